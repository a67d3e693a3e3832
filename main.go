package main

import (
	"github.com/danghoangviet/Twitter-Api-Clone/app"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/observability"
)

func main() {
	observability.StartProfiling("media-service")
	app.Run()
}

package observability

import (
	"os"

	"github.com/grafana/pyroscope-go"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/logger"
)

// StartProfiling 接入pyroscope持续性能剖析，未配置服务端地址时跳过
func StartProfiling(appName string) {
	serverAddress := os.Getenv("PYROSCOPE_SERVER_ADDRESS")
	if serverAddress == "" {
		return
	}

	_, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   serverAddress,
		Logger:          nil,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		logger.Warnf("pyroscope start failed server=%s error=%v", serverAddress, err)
	}
}

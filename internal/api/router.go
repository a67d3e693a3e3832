package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/config"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/middleware"
)

// Router 路由配置
type Router struct {
	mediaController *MediaController
	jwtCfg          config.JWTConfig
}

// NewRouter 创建路由配置
func NewRouter(mediaController *MediaController, jwtCfg config.JWTConfig) *Router {
	return &Router{
		mediaController: mediaController,
		jwtCfg:          jwtCfg,
	}
}

// SetupMiddleware 设置中间件
func (r *Router) SetupMiddleware(engine *gin.Engine) {
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.RequestContextMiddleware())
}

// SetupRoutes 设置路由
func (r *Router) SetupRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	{
		medias := v1.Group("/medias")
		{
			// 上传需要携带访问令牌，状态轮询保持公开
			medias.POST("/upload-video-hls", middleware.AuthMiddleware(r.jwtCfg), r.mediaController.UploadVideoHLS)
			medias.GET("/video-status/:id", r.mediaController.VideoStatus)
		}
	}

	// 健康检查路由
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"service":   "media-service",
			"timestamp": time.Now().Unix(),
		})
	})
}

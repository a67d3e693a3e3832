package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danghoangviet/Twitter-Api-Clone/internal/api"
	"github.com/danghoangviet/Twitter-Api-Clone/internal/media"
	"github.com/danghoangviet/Twitter-Api-Clone/internal/resource"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/config"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/logger"
)

func Run() {
	fmt.Println("[STARTUP] Starting media service...")

	// 加载配置
	cfgPath := config.ResolvePath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	// 立即初始化日志服务（确保所有后续组件都能使用正确的日志器）
	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	defer logService.Close()

	logger.Infof("Media service starting version=%s", "1.0.0")

	// 检查 FFmpeg 是否可用，直接在启动阶段失败
	ffmpegBin := cfg.Encode.FFmpeg.BinaryPath
	if strings.TrimSpace(ffmpegBin) == "" {
		ffmpegBin = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpegBin); err != nil {
		logger.Fatal(fmt.Sprintf("FFmpeg binary not found, please install or set encode.ffmpeg.binary_path binary=%s error=%s", ffmpegBin, err.Error()))
	}

	// 上传目录
	if err := os.MkdirAll(cfg.Upload.VideoDir, 0o755); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to create upload dir path=%s error=%v", cfg.Upload.VideoDir, err))
	}

	// 初始化数据库
	logger.Infof("Initializing database connection...")
	db, err := resource.NewMysqlResource(&cfg.Database)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize database error=%v", err))
	}
	defer db.Close()
	if err := db.MainDB().AutoMigrate(&media.VideoStatus{}); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to migrate video_status table error=%v", err))
	}

	// 初始化对象存储
	logger.Infof("Initializing object storage...")
	minioRes, err := resource.NewMinioResource(&cfg.Minio)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize minio error=%v", err))
	}
	defer minioRes.Close()

	// 状态存储，按配置叠加Redis读缓存
	store := media.NewVideoStatusStore(db.MainDB())
	var redisRes *resource.RedisResource
	if cfg.Redis.Enabled {
		redisRes, err = resource.NewRedisResource(&cfg.Redis)
		if err != nil {
			logger.Fatal(fmt.Sprintf("Failed to initialize redis error=%v", err))
		}
		defer redisRes.Close()
		store = media.NewCachedStatusStore(store, redisRes.Raw(), cfg.Redis.StatusTTL)
	}

	// 状态事件发布（可选）
	var publisher media.StatusPublisher
	var kafkaRes *resource.KafkaResource
	if cfg.Kafka.Enabled {
		kafkaRes = resource.NewKafkaResource(&cfg.Kafka)
		defer kafkaRes.Close()
		if err := kafkaRes.EnsureTopic(cfg.Kafka.Topics.VideoStatus, 1, 1); err != nil {
			logger.Warnf("ensure kafka topic failed topic=%s error=%v", cfg.Kafka.Topics.VideoStatus, err)
		}
		publisher = media.NewKafkaStatusPublisher(kafkaRes, cfg.Kafka.Topics.VideoStatus)
	}

	// 编码队列
	logger.Infof("Starting encode queue...")
	queue := media.NewEncodeQueue(media.EncodeQueueConfig{
		Store:      store,
		Storage:    media.NewMinioStorage(minioRes),
		Transcoder: media.NewFFmpegTranscoder(cfg.Encode),
		Publisher:  publisher,
		Capacity:   cfg.Encode.QueueCapacity,
		JobTimeout: cfg.Encode.JobTimeout,
	})
	queue.Start()

	// 创建Gin引擎
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	engine := gin.New()

	router := api.NewRouter(api.NewMediaController(queue, store, cfg.Upload, cfg.Public), cfg.JWT)
	router.SetupMiddleware(engine)
	router.SetupRoutes(engine)

	// 启动HTTP服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()
	logger.Infof("HTTP server started addr=%s health_url=%s", addr, fmt.Sprintf("http://%s/health", addr))

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Received shutdown signal, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP server forced to close error=%v", err)
	}
	if err := queue.Shutdown(ctx); err != nil {
		logger.Errorf("Encode queue forced to close error=%v", err)
	}

	logger.Infof("Server exited safely")
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Minio    MinioConfig    `mapstructure:"minio"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Encode   EncodeConfig   `mapstructure:"encode"`
	Public   PublicConfig   `mapstructure:"public"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
	StatusTTL    time.Duration `mapstructure:"status_ttl"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Enabled          bool              `mapstructure:"enabled"`
	BootstrapServers []string          `mapstructure:"bootstrap_servers"`
	ClientID         string            `mapstructure:"client_id"`
	Topics           KafkaTopicsConfig `mapstructure:"topics"`
}

type KafkaTopicsConfig struct {
	VideoStatus string `mapstructure:"video_status"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	ExpireTime time.Duration `mapstructure:"expire_time"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// UploadConfig 视频上传配置
type UploadConfig struct {
	VideoDir    string `mapstructure:"video_dir"`
	TempDir     string `mapstructure:"temp_dir"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

// EncodeConfig 编码队列与FFmpeg配置
type EncodeConfig struct {
	FFmpeg        FFmpegConfig    `mapstructure:"ffmpeg"`
	Variants      []VariantConfig `mapstructure:"variants"`
	QueueCapacity int             `mapstructure:"queue_capacity"`
	JobTimeout    time.Duration   `mapstructure:"job_timeout"`
}

// VariantConfig HLS输出变体配置
type VariantConfig struct {
	Resolution string `mapstructure:"resolution"`
	Bitrate    string `mapstructure:"bitrate"`
}

// FFmpegConfig FFmpeg相关配置
type FFmpegConfig struct {
	BinaryPath      string `mapstructure:"binary_path"`
	VideoCodec      string `mapstructure:"video_codec"`
	VideoPreset     string `mapstructure:"video_preset"`
	Threads         int    `mapstructure:"threads"`
	SegmentDuration int    `mapstructure:"segment_duration"`
}

// PublicConfig 对外访问配置
type PublicConfig struct {
	StorageBase string `mapstructure:"storage_base"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.client_id", "media-service")
	viper.SetDefault("kafka.bootstrap_servers", []string{"localhost:29092"})
	viper.SetDefault("kafka.topics.video_status", "media.video_status")
	viper.SetDefault("redis.enabled", false)

	// 设置环境变量前缀
	viper.SetEnvPrefix("TWTR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.normalize()

	return &config, nil
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	// 兼容不同的密钥字段
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}

	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}

	if c.Upload.VideoDir == "" {
		c.Upload.VideoDir = "uploads/videos"
	}
	if c.Upload.TempDir == "" {
		c.Upload.TempDir = "uploads/videos/temp"
	}
	if c.Upload.MaxFileSize <= 0 {
		c.Upload.MaxFileSize = 50 * 1024 * 1024
	}

	if c.Encode.QueueCapacity <= 0 {
		c.Encode.QueueCapacity = 100
	}
	if c.Encode.JobTimeout == 0 {
		c.Encode.JobTimeout = time.Hour
	}
	if c.Encode.FFmpeg.BinaryPath == "" {
		c.Encode.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.Encode.FFmpeg.VideoCodec == "" {
		c.Encode.FFmpeg.VideoCodec = "libx264"
	}
	if c.Encode.FFmpeg.VideoPreset == "" {
		c.Encode.FFmpeg.VideoPreset = "medium"
	}
	if c.Encode.FFmpeg.Threads < 0 {
		c.Encode.FFmpeg.Threads = 0
	}
	if c.Encode.FFmpeg.SegmentDuration <= 0 {
		c.Encode.FFmpeg.SegmentDuration = 6
	}
	if len(c.Encode.Variants) == 0 {
		c.Encode.Variants = []VariantConfig{
			{Resolution: "720p", Bitrate: "2500k"},
			{Resolution: "480p", Bitrate: "1000k"},
		}
	}

	if c.Redis.StatusTTL <= 0 {
		c.Redis.StatusTTL = 30 * time.Second
	}

	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "media-service"
	}
	if c.Kafka.Topics.VideoStatus == "" {
		c.Kafka.Topics.VideoStatus = "media.video_status"
	}
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, charset)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ResolvePath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func ResolvePath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}

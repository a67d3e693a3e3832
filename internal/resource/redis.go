package resource

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/config"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/logger"
)

// RedisResource wraps the go-redis client to allow tailored helpers.
type RedisResource struct {
	native *redis.Client
}

// NewRedisResource builds a redis client using service configuration and validates the connection.
func NewRedisResource(cfg *config.RedisConfig) (*RedisResource, error) {
	opts := &redis.Options{
		Addr: cfg.GetRedisAddr(),
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}

	opts.DialTimeout = pickDuration(cfg.DialTimeout, 5*time.Second)
	opts.ReadTimeout = pickDuration(cfg.ReadTimeout, 3*time.Second)
	opts.WriteTimeout = pickDuration(cfg.WriteTimeout, 3*time.Second)

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cli := redis.NewClient(opts)
	if err := cli.Ping(context.Background()).Err(); err != nil {
		_ = cli.Close()
		return nil, err
	}

	logger.Info("Redis resource initialized", map[string]interface{}{
		"addr": opts.Addr,
		"db":   opts.DB,
	})

	return &RedisResource{native: cli}, nil
}

// Raw exposes the underlying go-redis client for advanced use cases.
func (r *RedisResource) Raw() *redis.Client {
	return r.native
}

// Close stops the redis client and releases pooled connections.
func (r *RedisResource) Close() error {
	return r.native.Close()
}

func pickDuration(v time.Duration, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

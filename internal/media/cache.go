package media

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/logger"
)

const statusCacheKeyPrefix = "video_status:"

// statusCacheClient 状态缓存需要的最小客户端能力
type statusCacheClient interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisCacheClient struct {
	cli *redis.Client
}

func (c redisCacheClient) Get(ctx context.Context, key string) ([]byte, error) {
	return c.cli.Get(ctx, key).Bytes()
}

func (c redisCacheClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.cli.Set(ctx, key, value, ttl).Err()
}

func (c redisCacheClient) Del(ctx context.Context, key string) error {
	return c.cli.Del(ctx, key).Err()
}

// cachedStatusStore 在StatusStore之上加一层Redis读缓存，降低轮询对数据库的压力。
// 每次状态写入都会失效对应缓存，缓存故障只降级不阻断。
type cachedStatusStore struct {
	inner StatusStore
	cache statusCacheClient
	ttl   time.Duration
}

// NewCachedStatusStore 包装状态存储并启用Redis读缓存
func NewCachedStatusStore(inner StatusStore, cli *redis.Client, ttl time.Duration) StatusStore {
	return newCachedStatusStore(inner, redisCacheClient{cli: cli}, ttl)
}

func newCachedStatusStore(inner StatusStore, cache statusCacheClient, ttl time.Duration) StatusStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &cachedStatusStore{inner: inner, cache: cache, ttl: ttl}
}

func (s *cachedStatusStore) Insert(ctx context.Context, name string) error {
	if err := s.inner.Insert(ctx, name); err != nil {
		return err
	}
	s.invalidate(ctx, name)
	return nil
}

func (s *cachedStatusStore) UpdateStatus(ctx context.Context, name string, status EncodingStatus) error {
	if err := s.inner.UpdateStatus(ctx, name, status); err != nil {
		return err
	}
	s.invalidate(ctx, name)
	return nil
}

func (s *cachedStatusStore) UpdateError(ctx context.Context, name, msg string) error {
	if err := s.inner.UpdateError(ctx, name, msg); err != nil {
		return err
	}
	s.invalidate(ctx, name)
	return nil
}

func (s *cachedStatusStore) Get(ctx context.Context, name string) (*VideoStatus, error) {
	key := statusCacheKeyPrefix + name
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var record VideoStatus
		if jsonErr := json.Unmarshal(raw, &record); jsonErr == nil {
			return &record, nil
		}
		// 缓存内容损坏，删掉走数据库
		s.invalidate(ctx, name)
	}

	record, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	if raw, jsonErr := json.Marshal(record); jsonErr == nil {
		if setErr := s.cache.Set(ctx, key, raw, s.ttl); setErr != nil {
			logger.Warnf("set status cache failed name=%s error=%v", name, setErr)
		}
	}
	return record, nil
}

func (s *cachedStatusStore) invalidate(ctx context.Context, name string) {
	if err := s.cache.Del(ctx, statusCacheKeyPrefix+name); err != nil {
		logger.Warnf("invalidate status cache failed name=%s error=%v", name, err)
	}
}

package media

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeCacheClient struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	dels    []string
	getErr  error
	setErr  error
	delErr  error
}

func newFakeCacheClient() *fakeCacheClient {
	return &fakeCacheClient{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakeCacheClient) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	raw, ok := c.entries[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return raw, nil
}

func (c *fakeCacheClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCacheClient) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, key)
	if c.delErr != nil {
		return c.delErr
	}
	delete(c.entries, key)
	delete(c.ttls, key)
	return nil
}

func (c *fakeCacheClient) deleted(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.dels {
		if d == key {
			return true
		}
	}
	return false
}

func TestCachedStoreGetMissFillsCache(t *testing.T) {
	inner := newFakeStore()
	cache := newFakeCacheClient()
	store := newCachedStatusStore(inner, cache, 10*time.Second)

	if err := inner.Insert(context.Background(), "abc"); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	record, err := store.Get(context.Background(), "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != StatusPending.String() {
		t.Errorf("status = %q, want pending", record.Status)
	}

	key := statusCacheKeyPrefix + "abc"
	raw, ok := cache.entries[key]
	if !ok {
		t.Fatal("record not written to cache after miss")
	}
	var cached VideoStatus
	if err := json.Unmarshal(raw, &cached); err != nil {
		t.Fatalf("cached value not valid json: %v", err)
	}
	if cached.Name != "abc" {
		t.Errorf("cached name = %q, want abc", cached.Name)
	}
	if cache.ttls[key] != 10*time.Second {
		t.Errorf("cached ttl = %v, want 10s", cache.ttls[key])
	}
}

func TestCachedStoreGetHitSkipsDatabase(t *testing.T) {
	// inner为空：命中缓存时不会回源，否则会撞到记录不存在
	inner := newFakeStore()
	cache := newFakeCacheClient()
	store := newCachedStatusStore(inner, cache, time.Minute)

	cached := VideoStatus{Name: "hot", Status: StatusProcessing.String()}
	raw, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cache.entries[statusCacheKeyPrefix+"hot"] = raw

	record, err := store.Get(context.Background(), "hot")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != StatusProcessing.String() {
		t.Errorf("status = %q, want processing", record.Status)
	}
}

func TestCachedStoreCorruptEntryFallsBack(t *testing.T) {
	inner := newFakeStore()
	cache := newFakeCacheClient()
	store := newCachedStatusStore(inner, cache, time.Minute)

	if err := inner.Insert(context.Background(), "broken"); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	key := statusCacheKeyPrefix + "broken"
	cache.entries[key] = []byte("{not json")

	record, err := store.Get(context.Background(), "broken")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != StatusPending.String() {
		t.Errorf("status = %q, want pending from database", record.Status)
	}
	if !cache.deleted(key) {
		t.Error("corrupt cache entry was not deleted")
	}
}

func TestCachedStoreInvalidatesOnWrites(t *testing.T) {
	inner := newFakeStore()
	cache := newFakeCacheClient()
	store := newCachedStatusStore(inner, cache, time.Minute)
	key := statusCacheKeyPrefix + "job"

	seed := func() {
		cache.mu.Lock()
		cache.entries[key] = []byte(`{"name":"job"}`)
		cache.dels = nil
		cache.mu.Unlock()
	}

	seed()
	if err := store.Insert(context.Background(), "job"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !cache.deleted(key) {
		t.Error("Insert did not invalidate cache")
	}

	seed()
	if err := store.UpdateStatus(context.Background(), "job", StatusProcessing); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if !cache.deleted(key) {
		t.Error("UpdateStatus did not invalidate cache")
	}

	seed()
	if err := store.UpdateError(context.Background(), "job", "boom"); err != nil {
		t.Fatalf("update error: %v", err)
	}
	if !cache.deleted(key) {
		t.Error("UpdateError did not invalidate cache")
	}
}

func TestCachedStoreDegradesOnCacheFailure(t *testing.T) {
	inner := newFakeStore()
	cache := newFakeCacheClient()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	cache.delErr = errors.New("connection refused")
	store := newCachedStatusStore(inner, cache, time.Minute)

	if err := store.Insert(context.Background(), "deg"); err != nil {
		t.Fatalf("insert with broken cache: %v", err)
	}
	if err := store.UpdateStatus(context.Background(), "deg", StatusProcessing); err != nil {
		t.Fatalf("update with broken cache: %v", err)
	}
	record, err := store.Get(context.Background(), "deg")
	if err != nil {
		t.Fatalf("get with broken cache: %v", err)
	}
	if record.Status != StatusProcessing.String() {
		t.Errorf("status = %q, want processing", record.Status)
	}
}

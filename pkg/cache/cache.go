package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type localEntry struct {
	expires time.Time
	data    []byte
}

// RedisCache keeps a short lived local copy in front of redis.
type RedisCache struct {
	client   *redis.Client
	localTTL time.Duration

	mu       sync.RWMutex
	memCache map[string]localEntry
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{
		client:   rdb,
		localTTL: time.Minute,
		memCache: make(map[string]localEntry),
	}
}

func (c *RedisCache) getLocal(key string) ([]byte, bool) {
	c.mu.RLock()
	local, found := c.memCache[key]
	c.mu.RUnlock()
	if !found {
		return nil, false
	}
	if local.expires.Before(time.Now()) {
		c.mu.Lock()
		delete(c.memCache, key)
		c.mu.Unlock()
		return nil, false
	}
	return local.data, true
}

func (c *RedisCache) setLocal(key string, data []byte, expiration time.Duration) {
	ttl := c.localTTL
	if expiration > 0 && expiration < ttl {
		ttl = expiration
	}
	c.mu.Lock()
	c.memCache[key] = localEntry{expires: time.Now().Add(ttl), data: data}
	c.mu.Unlock()
}

func (c *RedisCache) Get(ctx context.Context, key string, out any) error {
	if data, ok := c.getLocal(key); ok {
		return sonic.Unmarshal(data, out)
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	if err = sonic.Unmarshal(data, out); err != nil {
		return err
	}
	c.setLocal(key, data, c.localTTL)
	return nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	c.setLocal(key, data, expiration)
	return c.client.Set(ctx, key, data, expiration).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache is the in process variant, used when no redis is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]localEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]localEntry)}
}

func (c *MemoryCache) Get(_ context.Context, key string, out any) error {
	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()
	if !found || (!entry.expires.IsZero() && entry.expires.Before(time.Now())) {
		return ErrMiss
	}
	return sonic.Unmarshal(entry.data, out)
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	entry := localEntry{data: data}
	if expiration > 0 {
		entry.expires = time.Now().Add(expiration)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

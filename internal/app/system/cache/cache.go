// Package cache is a best-effort Redis read-through cache for hot lookups
// (community by slug, profile by username).
//
// A nil *Cache is valid and caches nothing, so callers never branch on
// whether Redis is configured. Redis failures are logged and treated as
// misses; they never fail the request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache wraps a Redis client with a key prefix and TTL.
type Cache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// New wraps rdb. A nil rdb returns a nil Cache.
func New(rdb redis.UniversalClient, prefix string, ttl time.Duration, logger *zap.Logger) *Cache {
	if rdb == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl, log: logger}
}

// Dial connects to addr and verifies it with PING. An empty addr returns
// (nil, nil): caching disabled.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// Key builds a namespaced key from parts, e.g. Key("community", "go").
func (c *Cache) Key(kind, id string) string {
	if c == nil {
		return ""
	}
	return c.prefix + kind + ":" + id
}

// Get decodes the cached value for key into dst. It reports false on a
// miss, a Redis error or a decode error.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// Set stores v under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Fetch returns the cached value for key, or calls load, caches its result
// and returns it. Errors from load are returned and never cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var v T
	if c.Get(ctx, key, &v) {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(ctx, key, v)
	return v, nil
}

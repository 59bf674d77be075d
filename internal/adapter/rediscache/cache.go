// Package rediscache stores rendered charts in Redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chart:"

// ChartCache caches chart PNGs under content-addressed keys.
type ChartCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a ChartCache. Entries expire after ttl; zero keeps them
// until evicted.
func New(rdb *redis.Client, ttl time.Duration) *ChartCache {
	return &ChartCache{rdb: rdb, ttl: ttl}
}

// Connect parses a redis:// or rediss:// URL and pings the server.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Get returns the cached PNG, or ok=false on a miss.
func (c *ChartCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores png under key.
func (c *ChartCache) Set(ctx context.Context, key string, png []byte) error {
	return c.rdb.Set(ctx, keyPrefix+key, png, c.ttl).Err()
}

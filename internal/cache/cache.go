// Package cache memoizes capability responses in Redis, keyed by a canonical
// request fingerprint. The cache is optional infrastructure: the Noop variant
// always misses and never stores.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultTTL is the fixed per-capability entry lifetime.
const defaultTTL = 300 * time.Second

// Cache wraps a Redis client and stores serialized capability responses.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with the fixed 300-second TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// Get retrieves the payload stored under key.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, nil
}

// Set stores the payload under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Noop is the cache used when no Redis connection is configured: every get
// misses and every set is discarded. Correctness is unaffected, only latency
// and upstream cost.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error) { return nil, nil }

func (Noop) Set(context.Context, string, []byte) error { return nil }

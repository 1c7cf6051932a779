// Package rediscache provides a Redis-backed implementation of the
// verification response cache, for deployments where several instances
// should share recently-seen provider responses.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/evekey-api/internal/config"
)

// Cache implements eveapi.ResponseCache on top of a Redis connection.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis-backed response cache from the provided configuration.
// Returns nil if the URL is empty (shared cache not configured).
func New(cfg config.CacheConfig) (*Cache, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewWithClient(client, cfg.TTL), nil
}

// NewWithClient wraps an existing Redis client. Useful for tests and for
// callers that manage the connection themselves.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get implements eveapi.ResponseCache. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Set implements eveapi.ResponseCache. Entries expire after the configured
// TTL; a zero TTL stores entries without expiry.
func (c *Cache) Set(ctx context.Context, key string, body []byte) error {
	return c.client.Set(ctx, key, body, c.ttl).Err()
}

// Health checks if the Redis connection is healthy.
func (c *Cache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

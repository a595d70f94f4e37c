package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/blockcache/cache"
)

// Cache is a cache.Client backed by a Redis server. Redis applies the
// per-entry TTLs, so entries expire even if no process is running.
type Cache struct {
	client *redis.Client
}

var _ cache.Client = (*Cache)(nil)

// New creates a cache client on top of an existing Redis client. Close
// closes the underlying client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// NewFromURL creates a cache client from a Redis URL, e.g.
// "redis://localhost:6379/0".
func NewFromURL(url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return New(redis.NewClient(opts)), nil
}

// Get returns the value stored under key, or cache.ErrMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", cache.ErrMiss, key)
		}

		return nil, fmt.Errorf("redis get: %w", err)
	}

	return data, nil
}

// Set stores value under key for the given lifetime.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // redis treats 0 as no expiry
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// Close closes the underlying Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrMiss)`.
var ErrMiss = errors.New("cache miss")

// Client is the fast volatile tier. Implementations must be safe for
// concurrent use. Entries may vanish at any time.
type Client interface {
	// Get returns the value stored under key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for the given lifetime. A ttl <= 0
	// means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the client.
	Close() error
}

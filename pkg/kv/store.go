// Package kv defines the key-value backend contract shared by the cache,
// seen-tracker, and history layers. Implementations may be Redis-backed or
// in-process.
package kv

import (
	"context"
	"time"
)

// Store is the set of backend primitives the core relies on. All operations
// are expected to be atomic per key; no cross-key transactions are offered.
type Store interface {
	// Get retrieves a value by key. Returns the value and whether it was
	// present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetWithTTL stores a value, overwriting any prior value and resetting
	// the expiry to ttl from now.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Exists reports whether a key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeleteMatching removes all keys matching a glob pattern and returns
	// the number deleted.
	DeleteMatching(ctx context.Context, pattern string) (int64, error)

	// ZAdd adds a member with a score to a sorted set.
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRevRange returns members of a sorted set by descending score,
	// from rank start to stop inclusive (stop -1 means the last member).
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Expire resets a key's TTL to ttl from now.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// FlushAll removes every key. Admin use only.
	FlushAll(ctx context.Context) error

	// Close releases resources.
	Close() error
}

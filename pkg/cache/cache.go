// Package cache stores answers and seen flags keyed by user and question
// fingerprint, with independent TTLs.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/querybot-ai/querybot/pkg/kv"
)

// Entry kinds. Two-tier deployments cache the condensed summary; simple
// deployments cache the full answer.
const (
	KindSummary = "summary"
	KindAnswer  = "answer"
)

// Cache is an exact-match answer cache with a companion seen-tracker.
//
// Key layout:
//
//	cache:{namespace}:{kind}:{user}:{fingerprint}
//	cache:{namespace}:seen:{user}:{fingerprint}
type Cache struct {
	store     kv.Store
	namespace string
	kind      string
	answerTTL time.Duration
	seenTTL   time.Duration
}

// New creates a Cache. The seen-flag TTL is clamped to at least the answer
// TTL so the "already answered in full" fact always outlives the cached
// answer.
func New(store kv.Store, namespace, kind string, answerTTL, seenTTL time.Duration) *Cache {
	if seenTTL < answerTTL {
		seenTTL = answerTTL
	}
	return &Cache{
		store:     store,
		namespace: namespace,
		kind:      kind,
		answerTTL: answerTTL,
		seenTTL:   seenTTL,
	}
}

func (c *Cache) entryKey(user, fp string) string {
	return fmt.Sprintf("cache:%s:%s:%s:%s", c.namespace, c.kind, user, fp)
}

func (c *Cache) seenKey(user, fp string) string {
	return fmt.Sprintf("cache:%s:seen:%s:%s", c.namespace, user, fp)
}

// Get returns the cached answer for a user and fingerprint, if present and
// unexpired.
func (c *Cache) Get(ctx context.Context, user, fp string) (string, bool, error) {
	return c.store.Get(ctx, c.entryKey(user, fp))
}

// Put stores an answer, overwriting any prior value and resetting the TTL.
func (c *Cache) Put(ctx context.Context, user, fp, value string) error {
	return c.store.SetWithTTL(ctx, c.entryKey(user, fp), value, c.answerTTL)
}

// MarkSeen records that a full answer was shown for this fingerprint.
// Idempotent.
func (c *Cache) MarkSeen(ctx context.Context, user, fp string) error {
	return c.store.SetWithTTL(ctx, c.seenKey(user, fp), "1", c.seenTTL)
}

// Seen reports whether a full answer was ever shown for this fingerprint
// within the seen-flag window.
func (c *Cache) Seen(ctx context.Context, user, fp string) (bool, error) {
	return c.store.Exists(ctx, c.seenKey(user, fp))
}

// Clear removes all cache entries and seen flags for a user. Returns the
// number of keys removed.
func (c *Cache) Clear(ctx context.Context, user string) (int64, error) {
	pattern := fmt.Sprintf("cache:%s:*:%s:*", c.namespace, user)
	return c.store.DeleteMatching(ctx, pattern)
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/querybot-ai/querybot/pkg/fingerprint"
	"github.com/querybot-ai/querybot/pkg/kv/memory"
)

func newTestCache(t *testing.T) (*Cache, *time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := memory.NewWithClock(func() time.Time { return now })
	c := New(store, "qa", KindSummary, time.Hour, 24*time.Hour)
	return c, &now
}

func TestPutGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	fp := fingerprint.Hash("what is 2+2?")

	if err := c.Put(ctx, "alice", fp, "Four."); err != nil {
		t.Fatal(err)
	}
	val, ok, err := c.Get(ctx, "alice", fp)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || val != "Four." {
		t.Errorf("Get = (%q, %v), want (Four., true)", val, ok)
	}

	// Same fingerprint, different user: miss.
	if _, ok, _ := c.Get(ctx, "bob", fp); ok {
		t.Error("expected miss for different user")
	}
}

func TestPutIdempotent(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.Put(ctx, "alice", "aaaa", "Four.")
	_ = c.Put(ctx, "alice", "aaaa", "Four.")

	val, ok, _ := c.Get(ctx, "alice", "aaaa")
	if !ok || val != "Four." {
		t.Errorf("Get after double Put = (%q, %v)", val, ok)
	}
}

func TestEntryExpiresBeforeSeenFlag(t *testing.T) {
	c, now := newTestCache(t)
	ctx := context.Background()

	_ = c.Put(ctx, "alice", "aaaa", "Four.")
	_ = c.MarkSeen(ctx, "alice", "aaaa")

	*now = now.Add(2 * time.Hour)

	if _, ok, _ := c.Get(ctx, "alice", "aaaa"); ok {
		t.Error("expected cache entry to have expired")
	}
	seen, err := c.Seen(ctx, "alice", "aaaa")
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("seen flag should outlive the cache entry")
	}

	*now = now.Add(30 * time.Hour)
	if seen, _ := c.Seen(ctx, "alice", "aaaa"); seen {
		t.Error("seen flag should expire after its own TTL")
	}
}

func TestSeenTTLClampedToAnswerTTL(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := memory.NewWithClock(func() time.Time { return now })
	// Misconfigured: seen TTL shorter than answer TTL.
	c := New(store, "qa", KindSummary, time.Hour, time.Minute)
	ctx := context.Background()

	_ = c.Put(ctx, "alice", "aaaa", "Four.")
	_ = c.MarkSeen(ctx, "alice", "aaaa")

	now = now.Add(30 * time.Minute)
	if _, ok, _ := c.Get(ctx, "alice", "aaaa"); !ok {
		t.Fatal("cache entry should still be live")
	}
	if seen, _ := c.Seen(ctx, "alice", "aaaa"); !seen {
		t.Error("seen flag expired before the cache entry it covers")
	}
}

func TestClearRemovesEntriesAndFlags(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.Put(ctx, "alice", "aaaa", "Four.")
	_ = c.MarkSeen(ctx, "alice", "aaaa")
	_ = c.Put(ctx, "bob", "aaaa", "Four.")

	n, err := c.Clear(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("cleared %d keys, want 2", n)
	}
	if _, ok, _ := c.Get(ctx, "alice", "aaaa"); ok {
		t.Error("alice's entry survived clear")
	}
	if seen, _ := c.Seen(ctx, "alice", "aaaa"); seen {
		t.Error("alice's seen flag survived clear")
	}
	if _, ok, _ := c.Get(ctx, "bob", "aaaa"); !ok {
		t.Error("bob's entry should be untouched")
	}
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSetGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "k", "v", time.Minute); err != nil {
		t.Fatal(err)
	}
	val, ok, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || val != "v" {
		t.Errorf("Get = (%q, %v), want (v, true)", val, ok)
	}

	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestTTLExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_ = s.SetWithTTL(ctx, "k", "v", time.Minute)
	mr.FastForward(2 * time.Minute)

	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expected miss after TTL elapsed")
	}
}

func TestExists(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_ = s.SetWithTTL(ctx, "k", "v", time.Minute)

	if ok, _ := s.Exists(ctx, "k"); !ok {
		t.Error("expected Exists true")
	}
	if ok, _ := s.Exists(ctx, "missing"); ok {
		t.Error("expected Exists false")
	}
}

func TestDeleteMatching(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_ = s.SetWithTTL(ctx, "cache:qa:answer:alice:aaaa", "1", time.Hour)
	_ = s.SetWithTTL(ctx, "cache:qa:seen:alice:aaaa", "1", time.Hour)
	_ = s.SetWithTTL(ctx, "cache:qa:answer:bob:bbbb", "1", time.Hour)

	n, err := s.DeleteMatching(ctx, "cache:qa:*:alice:*")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("deleted %d keys, want 2", n)
	}
	if ok, _ := s.Exists(ctx, "cache:qa:answer:bob:bbbb"); !ok {
		t.Error("non-matching key was deleted")
	}
}

func TestSortedSetRoundTrip(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_ = s.ZAdd(ctx, "z", 1, "oldest")
	_ = s.ZAdd(ctx, "z", 3, "newest")
	_ = s.ZAdd(ctx, "z", 2, "middle")

	members, err := s.ZRevRange(ctx, "z", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"newest", "middle", "oldest"}
	for i := range want {
		if members[i] != want[i] {
			t.Errorf("members[%d] = %s, want %s", i, members[i], want[i])
		}
	}

	if err := s.Expire(ctx, "z", time.Minute); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if members, _ := s.ZRevRange(ctx, "z", 0, -1); len(members) != 0 {
		t.Errorf("expected expired sorted set, got %v", members)
	}
}

func TestFlushAll(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_ = s.SetWithTTL(ctx, "k", "v", time.Hour)
	if err := s.FlushAll(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Error("expected empty store after flush")
	}
}

func TestBackendUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	s := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = s.Close() })
	mr.Close()

	if _, _, err := s.Get(context.Background(), "k"); err == nil {
		t.Error("expected error when backend is unreachable")
	}
	if err := s.SetWithTTL(context.Background(), "k", "v", time.Minute); err == nil {
		t.Error("expected error when backend is unreachable")
	}
}

// Package memory implements kv.Store in process memory. It backs unit tests
// of the layers above and doubles as a zero-dependency dev mode.
package memory

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

type zset struct {
	members   map[string]float64
	expiresAt time.Time
}

// Store is an in-memory kv.Store. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]entry
	zsets   map[string]*zset
}

// New creates an empty Store using the wall clock.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Store with an injectable clock, so tests can
// simulate TTL expiry without sleeping.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:     now,
		entries: make(map[string]entry),
		zsets:   make(map[string]*zset),
	}
}

func (s *Store) expired(at time.Time) bool {
	return !at.IsZero() && !s.now().Before(at)
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || s.expired(e.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// SetWithTTL stores a value, resetting the expiry.
func (s *Store) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Exists reports whether a key is present and unexpired.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && !s.expired(e.expiresAt) {
		return true, nil
	}
	if z, ok := s.zsets[key]; ok && !s.expired(z.expiresAt) {
		return true, nil
	}
	return false, nil
}

// Delete removes the given keys.
func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
		delete(s.zsets, key)
	}
	return nil
}

// DeleteMatching removes all keys matching a glob pattern.
func (s *Store) DeleteMatching(_ context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key := range s.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.entries, key)
			deleted++
		}
	}
	for key := range s.zsets {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.zsets, key)
			deleted++
		}
	}
	return deleted, nil
}

// ZAdd adds a member with a score to a sorted set.
func (s *Store) ZAdd(_ context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zsets[key]
	if !ok || s.expired(z.expiresAt) {
		z = &zset{members: make(map[string]float64)}
		s.zsets[key] = z
	}
	z.members[member] = score
	return nil
}

// ZRevRange returns sorted-set members by descending score. Ties order by
// descending member, matching Redis lexicographic tie-breaking.
func (s *Store) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zsets[key]
	if !ok || s.expired(z.expiresAt) {
		delete(s.zsets, key)
		return nil, nil
	}

	members := make([]string, 0, len(z.members))
	for m := range z.members {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := z.members[members[i]], z.members[members[j]]
		if si != sj {
			return si > sj
		}
		return members[i] > members[j]
	})

	n := int64(len(members))
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if start >= n || stop < start {
		return nil, nil
	}
	if stop >= n {
		stop = n - 1
	}
	return members[start : stop+1], nil
}

// Expire resets a key's TTL.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := time.Time{}
	if ttl > 0 {
		at = s.now().Add(ttl)
	}
	if e, ok := s.entries[key]; ok {
		e.expiresAt = at
		s.entries[key] = e
	}
	if z, ok := s.zsets[key]; ok {
		z.expiresAt = at
	}
	return nil
}

// FlushAll removes every key.
func (s *Store) FlushAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]entry)
	s.zsets = make(map[string]*zset)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Package history keeps an append-only, time-ordered interaction log per
// user in a sorted set, capped on read and expired as a whole.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/querybot-ai/querybot/pkg/kv"
	"github.com/querybot-ai/querybot/pkg/models"
)

// DefaultLimit is the read cap applied when no smaller limit is given.
const DefaultLimit = 50

// Log records question/answer exchanges per user under history:{user}.
// Appends never prune; only the read path caps the result.
type Log struct {
	store kv.Store
	ttl   time.Duration
	limit int
	now   func() time.Time
}

// New creates a Log with a sliding TTL over each per-user set.
func New(store kv.Store, ttl time.Duration, limit int) *Log {
	return NewWithClock(store, ttl, limit, time.Now)
}

// NewWithClock creates a Log with an injectable clock for tests.
func NewWithClock(store kv.Store, ttl time.Duration, limit int, now func() time.Time) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{store: store, ttl: ttl, limit: limit, now: now}
}

func key(user string) string {
	return "history:" + user
}

// Append adds one record with the current timestamp and re-sets the whole
// log's TTL, so the log expires as a unit a fixed window after the last
// interaction.
func (l *Log) Append(ctx context.Context, user, question, answer string) error {
	now := l.now().UTC()
	rec := models.HistoryRecord{
		Timestamp:     now,
		FormattedTime: now.Format("2006-01-02 15:04:05"),
		Question:      question,
		Answer:        answer,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}

	k := key(user)
	if err := l.store.ZAdd(ctx, k, float64(now.UnixMilli()), string(data)); err != nil {
		return err
	}
	return l.store.Expire(ctx, k, l.ttl)
}

// Recent returns up to limit records for a user, most recent first. A
// non-positive or oversized limit falls back to the configured cap.
func (l *Log) Recent(ctx context.Context, user string, limit int) ([]models.HistoryRecord, error) {
	if limit <= 0 || limit > l.limit {
		limit = l.limit
	}

	members, err := l.store.ZRevRange(ctx, key(user), 0, int64(limit)-1)
	if err != nil {
		return nil, err
	}

	records := make([]models.HistoryRecord, 0, len(members))
	for _, m := range members {
		var rec models.HistoryRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			return nil, fmt.Errorf("decode history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Clear deletes the entire per-user log.
func (l *Log) Clear(ctx context.Context, user string) error {
	return l.store.Delete(ctx, key(user))
}

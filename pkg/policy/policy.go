// Package policy decides, per incoming question, whether to serve a cached
// answer or invoke the upstream model and populate the cache.
package policy

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/querybot-ai/querybot/pkg/budget"
	"github.com/querybot-ai/querybot/pkg/cache"
	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/fingerprint"
	"github.com/querybot-ai/querybot/pkg/history"
	"github.com/querybot-ai/querybot/pkg/llm"
	"github.com/querybot-ai/querybot/pkg/models"
	"github.com/querybot-ai/querybot/pkg/tracker"
)

// ErrEmptyQuestion rejects empty or whitespace-only questions before any
// backend call.
var ErrEmptyQuestion = errors.New("question is empty")

// Reply modes.
const (
	ModeHit  = "hit"
	ModeMiss = "miss"
)

// Reply is the outcome surfaced to the UI layer.
type Reply struct {
	Mode string `json:"mode"`
	Text string `json:"text"`
}

// Policy orchestrates the cache, seen-tracker, history log, and model
// client. It owns no persistent state of its own.
type Policy struct {
	mode     string
	cache    *cache.Cache
	history  *history.Log
	client   llm.Client
	tracker  tracker.Tracker  // optional
	enforcer *budget.Enforcer // optional
}

// New creates a Policy. tracker and enforcer may be nil to disable usage
// recording and budget enforcement.
func New(mode string, c *cache.Cache, h *history.Log, client llm.Client, t tracker.Tracker, e *budget.Enforcer) *Policy {
	return &Policy{
		mode:     mode,
		cache:    c,
		history:  h,
		client:   client,
		tracker:  t,
		enforcer: e,
	}
}

// Ask handles one question for a user.
//
// In two-tier mode a hit requires both the cached summary and the seen flag;
// the first ask returns the full model answer and caches a condensation for
// later asks. In simple mode the full answer itself is cached and returned
// on every ask. A model failure aborts before any cache, seen-flag, or
// history write.
func (p *Policy) Ask(ctx context.Context, user, question string) (*Reply, error) {
	if fingerprint.Normalize(question) == "" {
		return nil, ErrEmptyQuestion
	}
	fp := fingerprint.Hash(question)

	// Cache check
	cached, hit, err := p.cache.Get(ctx, user, fp)
	if err != nil {
		return nil, err
	}
	if hit && p.mode == config.ModeTwoTier {
		seen, err := p.cache.Seen(ctx, user, fp)
		if err != nil {
			return nil, err
		}
		// A live summary without its seen flag means the bookkeeping
		// window has closed; regenerate rather than serve it stale.
		hit = seen
	}
	if hit {
		if err := p.history.Append(ctx, user, question, cached); err != nil {
			return nil, err
		}
		return &Reply{Mode: ModeHit, Text: cached}, nil
	}

	// Budget check
	if p.enforcer != nil {
		if err := p.enforcer.Check(ctx, user); err != nil {
			return nil, err
		}
	}

	// Cache miss: invoke the model.
	full, err := p.generate(ctx, user, question)
	if err != nil {
		return nil, err
	}

	stored := full.Text
	if p.mode == config.ModeTwoTier {
		summary, err := p.generate(ctx, user, condensePrompt(full.Text))
		if err != nil {
			return nil, err
		}
		stored = summary.Text
	}

	if err := p.cache.Put(ctx, user, fp, stored); err != nil {
		return nil, err
	}
	if p.mode == config.ModeTwoTier {
		if err := p.cache.MarkSeen(ctx, user, fp); err != nil {
			return nil, err
		}
	}
	if err := p.history.Append(ctx, user, question, stored); err != nil {
		return nil, err
	}

	return &Reply{Mode: ModeMiss, Text: full.Text}, nil
}

// History returns the user's recent interaction records, most recent first.
func (p *Policy) History(ctx context.Context, user string) ([]models.HistoryRecord, error) {
	return p.history.Recent(ctx, user, 0)
}

// ClearUser removes the user's cache entries, seen flags, and history.
func (p *Policy) ClearUser(ctx context.Context, user string) error {
	if _, err := p.cache.Clear(ctx, user); err != nil {
		return err
	}
	return p.history.Clear(ctx, user)
}

// generate invokes the model once and records token usage.
func (p *Policy) generate(ctx context.Context, user, prompt string) (*models.Completion, error) {
	start := time.Now()
	comp, err := p.client.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if p.tracker != nil {
		rec := models.UsageRecord{
			User:             user,
			Provider:         p.client.Provider(),
			Model:            comp.Model,
			PromptTokens:     comp.Usage.PromptTokens,
			CompletionTokens: comp.Usage.CompletionTokens,
			TotalTokens:      comp.Usage.TotalTokens,
			LatencyMs:        time.Since(start).Milliseconds(),
			CreatedAt:        time.Now().UTC(),
		}
		if err := p.tracker.Record(ctx, rec); err != nil {
			log.Printf("usage record error: %v", err)
		}
	}
	return comp, nil
}

func condensePrompt(answer string) string {
	return "Condense the following answer into a summary of 1 to 3 sentences. " +
		"Keep only the essential facts.\n\n" + answer
}

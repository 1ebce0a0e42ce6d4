package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/querybot-ai/querybot/pkg/models"
	"github.com/querybot-ai/querybot/pkg/tracker"
)

// ErrBudgetExceeded is returned when a user has exhausted their daily tokens.
var ErrBudgetExceeded = errors.New("budget exceeded")

// Enforcer checks token usage against per-user daily budget policies.
type Enforcer struct {
	policies []models.BudgetPolicy
	tracker  tracker.Tracker
}

// New creates an Enforcer with the given policies and tracker.
func New(policies []models.BudgetPolicy, t tracker.Tracker) *Enforcer {
	return &Enforcer{policies: policies, tracker: t}
}

// Check returns ErrBudgetExceeded if the user has exceeded any applicable
// policy for the current day.
func (e *Enforcer) Check(ctx context.Context, user string) error {
	since := dayStart()
	for _, p := range e.policiesForUser(user) {
		used, err := e.tracker.TotalByUser(ctx, user, since)
		if err != nil {
			return fmt.Errorf("budget check: %w", err)
		}
		if used >= p.MaxTokens {
			return ErrBudgetExceeded
		}
	}
	return nil
}

// Status returns today's usage against each applicable policy.
func (e *Enforcer) Status(ctx context.Context, user string) ([]models.BudgetStatus, error) {
	since := dayStart()
	policies := e.policiesForUser(user)
	statuses := make([]models.BudgetStatus, 0, len(policies))

	for _, p := range policies {
		used, err := e.tracker.TotalByUser(ctx, user, since)
		if err != nil {
			return nil, fmt.Errorf("budget status: %w", err)
		}
		remaining := p.MaxTokens - used
		if remaining < 0 {
			remaining = 0
		}
		statuses = append(statuses, models.BudgetStatus{
			Policy:    p,
			Used:      used,
			Remaining: remaining,
		})
	}
	return statuses, nil
}

func (e *Enforcer) policiesForUser(user string) []models.BudgetPolicy {
	var result []models.BudgetPolicy
	for _, p := range e.policies {
		if p.User == "*" || p.User == user {
			result = append(result, p)
		}
	}
	return result
}

func dayStart() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

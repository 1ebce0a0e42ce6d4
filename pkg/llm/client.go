// Package llm calls the hosted model inference service.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/models"
)

// ErrUpstream marks provider failures (quota, auth, network, bad payload).
// Callers distinguish it from cache misses and backend errors; it never
// degrades to an empty answer.
var ErrUpstream = errors.New("upstream model error")

// Client generates text from a prompt. No streaming, no retries.
type Client interface {
	Generate(ctx context.Context, prompt string) (*models.Completion, error)
	// Provider names the upstream for usage attribution.
	Provider() string
}

// New creates a Client for the configured provider type.
func New(cfg config.ProviderConfig) (Client, error) {
	httpClient := &http.Client{Timeout: 60 * time.Second}
	switch cfg.Type {
	case "gemini":
		return &geminiClient{cfg: cfg, http: httpClient}, nil
	case "openai":
		return &openaiClient{cfg: cfg, http: httpClient}, nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

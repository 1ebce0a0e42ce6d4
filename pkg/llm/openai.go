package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/querybot-ai/querybot/pkg/config"
	"github.com/querybot-ai/querybot/pkg/models"
)

// openaiClient calls an OpenAI-compatible chat completions API.
type openaiClient struct {
	cfg  config.ProviderConfig
	http *http.Client
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Usage *models.Usage `json:"usage,omitempty"`
}

func (c *openaiClient) Provider() string { return "openai" }

// Generate sends the prompt as a single user message.
func (c *openaiClient) Generate(ctx context.Context, prompt string) (*models.Completion, error) {
	reqBody := openaiRequest{
		Model:    c.cfg.Model,
		Messages: []openaiMessage{{Role: "user", Content: prompt}},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai %s: %w: %s", resp.Status, ErrUpstream, body)
	}

	var apiResp openaiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w: %v", ErrUpstream, err)
	}

	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: %w: empty response", ErrUpstream)
	}

	completion := &models.Completion{
		Text:  apiResp.Choices[0].Message.Content,
		Model: apiResp.Model,
	}
	if completion.Model == "" {
		completion.Model = c.cfg.Model
	}
	if apiResp.Usage != nil {
		completion.Usage = *apiResp.Usage
	}
	return completion, nil
}

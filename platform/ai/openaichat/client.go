// Package openaichat implements the ai.ChatModel contract against any
// OpenAI-compatible /chat/completions endpoint.
package openaichat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wacrm_backend/platform/ai"
)

// Config for an OpenAI-compatible backend.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls a single OpenAI-compatible chat completion backend.
type Client struct {
	config Config
	client *http.Client
}

var _ ai.ChatModel = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Name() string {
	return c.config.Model
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error interface{} `json:"error"`
}

// Generate sends the messages to the backend and returns the first choice.
func (c *Client) Generate(ctx context.Context, messages []ai.Message, opts ai.Options) (*ai.Result, error) {
	payload := map[string]interface{}{
		"model":    c.config.Model,
		"messages": messages,
	}
	if opts.MaxTokens > 0 {
		payload["max_tokens"] = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		payload["temperature"] = opts.Temperature
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("chat api error: %v", result.Error)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("chat api error: empty choices")
	}

	out := &ai.Result{
		Content:   strings.TrimSpace(result.Choices[0].Message.Content),
		Model:     c.config.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if result.Usage.TotalTokens > 0 {
		tokens := result.Usage.TotalTokens
		out.Tokens = &tokens
	}
	return out, nil
}

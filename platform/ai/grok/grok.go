// Package grok configures the xAI chat completion backend.
package grok

import (
	"wacrm_backend/platform/ai/openaichat"
)

// Config for Grok.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewModel(cfg Config) *openaichat.Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.x.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "grok-3"
	}
	return openaichat.New(openaichat.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
}

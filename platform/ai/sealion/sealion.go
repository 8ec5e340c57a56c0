// Package sealion configures the SEA-LION chat completion backend, tuned
// for Bahasa Indonesia conversations.
package sealion

import (
	"wacrm_backend/platform/ai/openaichat"
)

// Config for SEA-LION.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewModel(cfg Config) *openaichat.Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sea-lion.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "aisingapore/Gemma-SEA-LION-v3-9B-IT"
	}
	return openaichat.New(openaichat.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
}

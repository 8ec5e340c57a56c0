// Package ai defines the contract shared by the text-generation backends.
package ai

import "context"

// Message is a single turn in a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single generation call.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Result is the outcome of a successful generation.
type Result struct {
	Content   string
	Model     string
	Tokens    *int
	LatencyMs int64
}

// ChatModel is an OpenAI-compatible chat completion backend.
type ChatModel interface {
	Name() string
	Generate(ctx context.Context, messages []Message, opts Options) (*Result, error)
}

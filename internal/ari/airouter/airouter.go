// Package airouter splits AI traffic between two chat backends with a
// deterministic per-contact hash, so a lead always talks to the same model
// for the whole journey.
package airouter

import (
	"context"
	"time"

	"wacrm_backend/platform/ai"
	"wacrm_backend/platform/logger"
)

// FallbackMessage is sent when every model call fails. The conversation
// must keep moving even when the AI backends are down.
const FallbackMessage = "Maaf kak, sistem lagi sibuk. Coba kirim lagi sebentar ya, atau konsultan kami akan segera membantu."

// DefaultGrokWeight is the percentage of contacts routed to the primary
// model when the workspace has no override.
const DefaultGrokWeight = 50

// hashString maps a string to [0,100) with an order-sensitive rolling
// hash. The same input always lands in the same bucket, which keeps A/B
// cohorts stable across deployments.
func hashString(s string) int {
	hash := int32(0)
	for _, r := range s {
		hash = (hash << 5) - hash + int32(r)
	}
	if hash < 0 {
		hash = -hash
	}
	return int(hash % 100)
}

// Router picks between a primary and secondary chat model per contact.
type Router struct {
	primary   ai.ChatModel
	secondary ai.ChatModel
	log       *logger.Logger
}

// New builds a router over two injected chat backends.
func New(primary, secondary ai.ChatModel, log *logger.Logger) *Router {
	return &Router{primary: primary, secondary: secondary, log: log}
}

// SelectModel returns the backend for a contact. grokWeight is the
// percentage of traffic sent to the primary model; values outside
// [0,100] fall back to the default split.
func (r *Router) SelectModel(contactID string, grokWeight int) ai.ChatModel {
	if grokWeight < 0 || grokWeight > 100 {
		grokWeight = DefaultGrokWeight
	}
	if hashString(contactID) < grokWeight {
		return r.primary
	}
	return r.secondary
}

// Generate runs a chat completion on the contact's model. It never
// returns an error: on failure the fallback message is returned with nil
// token usage so the conversation continues.
func (r *Router) Generate(ctx context.Context, contactID string, grokWeight int, messages []ai.Message, opts ai.Options) *ai.Result {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 150
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.8
	}

	model := r.SelectModel(contactID, grokWeight)
	start := time.Now()

	result, err := model.Generate(ctx, messages, opts)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		r.log.Error("ai generation failed, using fallback",
			"model", model.Name(),
			"contact_id", contactID,
			"error", err)
		r.log.AIGeneration(model.Name(), latency, nil, true)
		return &ai.Result{
			Content:   FallbackMessage,
			Model:     model.Name(),
			Tokens:    nil,
			LatencyMs: latency,
		}
	}

	r.log.AIGeneration(result.Model, result.LatencyMs, result.Tokens, false)
	return result
}

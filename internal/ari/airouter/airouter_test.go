package airouter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"wacrm_backend/platform/ai"
	"wacrm_backend/platform/logger"
)

type stubModel struct {
	name    string
	content string
	err     error
	gotOpts ai.Options
}

func (s *stubModel) Name() string { return s.name }

func (s *stubModel) Generate(_ context.Context, _ []ai.Message, opts ai.Options) (*ai.Result, error) {
	s.gotOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	tokens := 42
	return &ai.Result{Content: s.content, Model: s.name, Tokens: &tokens, LatencyMs: 7}, nil
}

func newTestRouter(primary, secondary ai.ChatModel) *Router {
	return New(primary, secondary, logger.New("development"))
}

func TestSelectModelIsDeterministic(t *testing.T) {
	r := newTestRouter(&stubModel{name: "primary"}, &stubModel{name: "secondary"})

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("contact-%d", i)
		first := r.SelectModel(id, 50).Name()
		for j := 0; j < 10; j++ {
			if got := r.SelectModel(id, 50).Name(); got != first {
				t.Fatalf("SelectModel(%q) flapped: %q then %q", id, first, got)
			}
		}
	}
}

func TestSelectModelSplit(t *testing.T) {
	r := newTestRouter(&stubModel{name: "primary"}, &stubModel{name: "secondary"})

	primary := 0
	const total = 10000
	for i := 0; i < total; i++ {
		if r.SelectModel(fmt.Sprintf("lead-%d-suffix", i), 50).Name() == "primary" {
			primary++
		}
	}

	// A healthy hash keeps a 50/50 split within a few points.
	if primary < total*40/100 || primary > total*60/100 {
		t.Errorf("primary share = %d/%d, want roughly half", primary, total)
	}
}

func TestSelectModelWeightExtremes(t *testing.T) {
	r := newTestRouter(&stubModel{name: "primary"}, &stubModel{name: "secondary"})

	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("lead-%d", i)
		if got := r.SelectModel(id, 100).Name(); got != "primary" {
			t.Fatalf("weight 100 routed %q to %q", id, got)
		}
		if got := r.SelectModel(id, 0).Name(); got != "secondary" {
			t.Fatalf("weight 0 routed %q to %q", id, got)
		}
	}
}

func TestGenerateAppliesDefaults(t *testing.T) {
	primary := &stubModel{name: "primary", content: "halo kak"}
	r := newTestRouter(primary, &stubModel{name: "secondary"})

	result := r.Generate(context.Background(), "contact-1", 100, []ai.Message{{Role: "user", Content: "halo"}}, ai.Options{})

	if result.Content != "halo kak" {
		t.Errorf("content = %q", result.Content)
	}
	if primary.gotOpts.MaxTokens != 150 {
		t.Errorf("MaxTokens = %d, want default 150", primary.gotOpts.MaxTokens)
	}
	if primary.gotOpts.Temperature != 0.8 {
		t.Errorf("Temperature = %v, want default 0.8", primary.gotOpts.Temperature)
	}
	if result.Tokens == nil || *result.Tokens != 42 {
		t.Errorf("tokens = %v, want 42", result.Tokens)
	}
}

func TestGenerateFallsBackOnError(t *testing.T) {
	primary := &stubModel{name: "primary", err: errors.New("upstream down")}
	r := newTestRouter(primary, &stubModel{name: "secondary"})

	result := r.Generate(context.Background(), "contact-1", 100, nil, ai.Options{})

	if result.Content != FallbackMessage {
		t.Errorf("content = %q, want fallback message", result.Content)
	}
	if result.Tokens != nil {
		t.Errorf("tokens = %v, want nil on fallback", *result.Tokens)
	}
	if result.Model != "primary" {
		t.Errorf("model = %q, want the attempted model", result.Model)
	}
}

package statemachine

import (
	"testing"

	"wacrm_backend/internal/ari/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from domain.State
		to   domain.State
		want bool
	}{
		{"greeting to qualifying", domain.StateGreeting, domain.StateQualifying, true},
		{"greeting cannot skip to payment", domain.StateGreeting, domain.StatePayment, false},
		{"qualifying can stay", domain.StateQualifying, domain.StateQualifying, true},
		{"qualifying to scoring", domain.StateQualifying, domain.StateScoring, true},
		{"scoring to booking", domain.StateScoring, domain.StateBooking, true},
		{"booking to scheduling", domain.StateBooking, domain.StateScheduling, true},
		{"scheduling can repeat", domain.StateScheduling, domain.StateScheduling, true},
		{"handoff escape hatch from greeting", domain.StateGreeting, domain.StateHandoff, true},
		{"handoff escape hatch from payment", domain.StatePayment, domain.StateHandoff, true},
		{"handoff escape hatch from completed", domain.StateCompleted, domain.StateHandoff, true},
		{"completed cannot restart", domain.StateCompleted, domain.StateQualifying, false},
		{"handoff only completes", domain.StateHandoff, domain.StateScoring, false},
		{"handoff to completed", domain.StateHandoff, domain.StateCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNextState(t *testing.T) {
	w := domain.Defaults()
	tests := []struct {
		name    string
		current domain.State
		score   int
		action  domain.RoutingAction
		want    domain.State
	}{
		{"greeting always qualifies", domain.StateGreeting, 0, "", domain.StateQualifying},
		{"qualifying stays below threshold", domain.StateQualifying, 25, domain.ActionContinueQualifying, domain.StateQualifying},
		{"qualifying advances at threshold", domain.StateQualifying, 40, domain.ActionContinueQualifying, domain.StateScoring},
		{"qualifying advances on hot routing", domain.StateQualifying, 10, domain.ActionHandoffHot, domain.StateScoring},
		{"qualifying advances on cold routing", domain.StateQualifying, 10, domain.ActionSendCommunityCold, domain.StateScoring},
		{"scoring hands off hot", domain.StateScoring, 85, domain.ActionHandoffHot, domain.StateHandoff},
		{"scoring hands off cold", domain.StateScoring, 20, domain.ActionSendCommunityCold, domain.StateHandoff},
		{"scoring nurtures warm", domain.StateScoring, 55, domain.ActionContinueNurturing, domain.StateScoring},
		{"scoring books hot without routing", domain.StateScoring, 75, "", domain.StateBooking},
		{"scoring falls back to handoff", domain.StateScoring, 55, "", domain.StateHandoff},
		{"booking goes to scheduling", domain.StateBooking, 75, "", domain.StateScheduling},
		{"payment waits for webhook", domain.StatePayment, 75, "", domain.StatePayment},
		{"scheduling waits for confirmation", domain.StateScheduling, 75, "", domain.StateScheduling},
		{"handoff completes", domain.StateHandoff, 75, "", domain.StateCompleted},
		{"completed is terminal", domain.StateCompleted, 75, "", domain.StateCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextState(tt.current, tt.score, tt.action, w); got != tt.want {
				t.Errorf("NextState(%s, %d, %s) = %s, want %s", tt.current, tt.score, tt.action, got, tt.want)
			}
		})
	}
}

func TestNextStateUsesTenantWarmThreshold(t *testing.T) {
	w := domain.Defaults()
	w.WarmThreshold = 60

	if got := NextState(domain.StateQualifying, 45, domain.ActionContinueQualifying, w); got != domain.StateQualifying {
		t.Errorf("score below the raised threshold should stay qualifying, got %s", got)
	}
	if got := NextState(domain.StateQualifying, 60, domain.ActionContinueQualifying, w); got != domain.StateScoring {
		t.Errorf("score at the raised threshold should advance to scoring, got %s", got)
	}
}

func TestShouldAutoHandoff(t *testing.T) {
	tests := []struct {
		name     string
		state    domain.State
		messages int
		want     bool
	}{
		{"progressing normally", domain.StateQualifying, 5, false},
		{"at the limit", domain.StateQualifying, 10, false},
		{"stuck past the limit", domain.StateQualifying, 11, true},
		{"stuck in scheduling", domain.StateScheduling, 12, true},
		{"handoff never triggers", domain.StateHandoff, 20, false},
		{"completed never triggers", domain.StateCompleted, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldAutoHandoff(tt.state, tt.messages, 10); got != tt.want {
				t.Errorf("ShouldAutoHandoff(%s, %d) = %v, want %v", tt.state, tt.messages, got, tt.want)
			}
		})
	}
}

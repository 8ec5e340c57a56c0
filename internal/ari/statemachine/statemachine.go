// Package statemachine governs how a conversation moves through the lead
// journey, from greeting to completion or consultant handoff.
package statemachine

import "wacrm_backend/internal/ari/domain"

// transitions maps each state to the states it may move to next.
// Handoff is handled separately as a global escape hatch.
var transitions = map[domain.State][]domain.State{
	domain.StateGreeting:   {domain.StateQualifying},
	domain.StateQualifying: {domain.StateScoring, domain.StateQualifying},
	domain.StateScoring:    {domain.StateBooking, domain.StateHandoff},
	domain.StateBooking:    {domain.StateScheduling, domain.StateHandoff},
	domain.StatePayment:    {domain.StateScheduling, domain.StatePayment, domain.StateHandoff},
	domain.StateScheduling: {domain.StateHandoff, domain.StateScheduling},
	domain.StateHandoff:    {domain.StateCompleted},
	domain.StateCompleted:  {},
}

// CanTransition reports whether moving from one state to another is
// allowed. Transitioning to handoff is always allowed so a human can
// take over at any point.
func CanTransition(from, to domain.State) bool {
	if to == domain.StateHandoff {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// NextState recommends the next state given the current one, the lead
// score, and the routing decision for this message. The warm threshold
// gates leaving qualifying; the hot threshold gates leaving scoring.
func NextState(current domain.State, score int, action domain.RoutingAction, w domain.Weights) domain.State {
	switch current {
	case domain.StateGreeting:
		return domain.StateQualifying

	case domain.StateQualifying:
		if action == domain.ActionHandoffHot || action == domain.ActionSendCommunityCold {
			return domain.StateScoring
		}
		if score >= w.WarmThreshold {
			return domain.StateScoring
		}
		return domain.StateQualifying

	case domain.StateScoring:
		if action == domain.ActionHandoffHot || action == domain.ActionSendCommunityCold {
			return domain.StateHandoff
		}
		if action == domain.ActionContinueNurturing && score < w.HotThreshold {
			return domain.StateScoring
		}
		if score >= w.HotThreshold {
			return domain.StateBooking
		}
		return domain.StateHandoff

	case domain.StateBooking:
		// Payment is bypassed in the current flow.
		return domain.StateScheduling

	case domain.StatePayment:
		// Only the payment provider webhook moves this state.
		return domain.StatePayment

	case domain.StateScheduling:
		// Stays until an appointment is confirmed.
		return domain.StateScheduling

	case domain.StateHandoff:
		return domain.StateCompleted

	default:
		return domain.StateCompleted
	}
}

// ShouldAutoHandoff reports whether a conversation is stuck: too many
// messages without leaving the current state. Terminal states never
// trigger it.
func ShouldAutoHandoff(state domain.State, messagesInState, limit int) bool {
	if state == domain.StateCompleted || state == domain.StateHandoff {
		return false
	}
	return messagesInState > limit
}

var stateDescriptions = map[domain.State]string{
	domain.StateGreeting:   "Perkenalan awal",
	domain.StateQualifying: "Mengumpulkan informasi",
	domain.StateScoring:    "Menilai kesiapan",
	domain.StateBooking:    "Menawarkan konsultasi",
	domain.StatePayment:    "Proses pembayaran",
	domain.StateScheduling: "Mengatur jadwal",
	domain.StateHandoff:    "Dialihkan ke konsultan",
	domain.StateCompleted:  "Selesai",
}

// Describe returns the Indonesian label shown to agents for a state.
func Describe(state domain.State) string {
	return stateDescriptions[state]
}

// Package routing decides what the conversation flow should do with a lead
// after each inbound message: keep qualifying, hand off, or park in the
// community group. Decisions are recomputed on every message and never cached.
package routing

import (
	"fmt"

	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/ari/qualification"
)

// Input is everything the routing policy looks at for one decision.
type Input struct {
	Score       int
	Temperature domain.Temperature
	Form        domain.FormData
	Documents   domain.DocumentStatus
	// WarmMessages is the number of messages exchanged while the lead
	// has been warm. It only resets with the conversation episode.
	WarmMessages int
	// WarmLimit is the message budget before a warm lead is handed off
	// anyway. Zero disables the limit.
	WarmLimit int
	// CommunityGroupLink is the workspace's WhatsApp group invite, if set.
	CommunityGroupLink string
}

// Decision is the outcome of one routing evaluation.
type Decision struct {
	Action domain.RoutingAction
	// Message is an outbound text to send to the lead, when the action
	// carries one (community link for cold leads).
	Message string
	// Notes is the context line recorded for the consultant.
	Notes string
}

// Decide evaluates the routing policy. Rules are checked in precedence
// order; the first match wins.
func Decide(in Input) Decision {
	ready := qualification.HasAllRequiredFields(in.Form) && in.Documents.AllAsked()
	if !ready {
		return Decision{Action: domain.ActionContinueQualifying}
	}

	switch in.Temperature {
	case domain.TemperatureHot:
		return Decision{
			Action: domain.ActionHandoffHot,
			Notes:  fmt.Sprintf("Hot lead (score: %d). Ready for consultation offer.", in.Score),
		}

	case domain.TemperatureCold:
		d := Decision{Action: domain.ActionSendCommunityCold}
		if in.CommunityGroupLink != "" {
			d.Message = fmt.Sprintf(
				"Tetap terhubung dengan kami di grup WhatsApp ini ya kak: %s. Nanti kalau ada pertanyaan atau update, bisa langsung diskusi di sana.",
				in.CommunityGroupLink,
			)
			d.Notes = fmt.Sprintf("Cold lead (score: %d). Community link sent. Follow up in 30 days.", in.Score)
		} else {
			d.Notes = fmt.Sprintf("Cold lead (score: %d). Community link not configured. Follow up in 30 days.", in.Score)
		}
		return d

	default:
		if in.WarmLimit > 0 && in.WarmMessages >= in.WarmLimit {
			return Decision{
				Action: domain.ActionHandoffWarm,
				Notes:  fmt.Sprintf("Warm lead (score: %d). Nurturing limit reached, needs human follow-up.", in.Score),
			}
		}
		return Decision{Action: domain.ActionContinueNurturing}
	}
}

// Package handoff moves a conversation from the AI assistant to a human
// consultant: it writes a summary for the consultant, tags the contact,
// and sends out notifications. Claiming is idempotent so concurrent
// triggers produce a single handoff.
package handoff

import (
	"fmt"
	"strings"

	"wacrm_backend/internal/ari/domain"
)

// ConsultationType classifies why the lead is being handed off.
type ConsultationType string

const (
	TypeConsultation ConsultationType = "consultation"
	TypeCommunity    ConsultationType = "community"
	TypeColdFollowup ConsultationType = "cold_followup"
)

// Tag returns the contact tag recorded for a consultation type.
func (t ConsultationType) Tag() string {
	switch t {
	case TypeCommunity:
		return "Community"
	case TypeColdFollowup:
		return "Follow-up"
	default:
		return "1on1"
	}
}

// Outbound messages sent to the lead around a handoff.
const (
	// HotMessage closes a hot-lead conversation before the consultant
	// takes over.
	HotMessage = "Terima kasih sudah berbagi info yang lengkap. Konsultan kami akan segera menghubungi kamu untuk mendiskusikan pilihan yang cocok."
	// ColdMessage closes a cold-lead conversation after the community
	// invite went out.
	ColdMessage = "Konsultan kami akan follow up nanti ya kak. Kalau ada pertanyaan, langsung chat di grup aja."
	// AutoMessage is sent when a stuck conversation is force-escalated.
	AutoMessage = "Terima kasih sudah menunggu. Konsultan kami akan segera menghubungi kamu untuk membantu lebih lanjut."
)

// topicKeywords maps message keywords to the consultant-facing topic label.
var topicKeywords = []struct {
	keyword string
	label   string
}{
	{"universitas", "Tanya universitas"},
	{"biaya", "Tanya biaya"},
	{"beasiswa", "Tertarik beasiswa"},
	{"visa", "Tanya visa"},
	{"ielts", "Perlu bantuan IELTS"},
	{"dokumen", "Tanya dokumen"},
}

// SummaryInput is everything the summary generator looks at.
type SummaryInput struct {
	UserMessages []string
	TotalCount   int
	Form         domain.FormData
	Score        *int
	Temperature  domain.Temperature
}

// Summarize builds the short conversation summary shown to the consultant.
func Summarize(in SummaryInput) string {
	var parts []string

	if in.Score != nil && in.Temperature != "" {
		label := map[domain.Temperature]string{
			domain.TemperatureHot:  "Hot",
			domain.TemperatureWarm: "Warm",
			domain.TemperatureCold: "Cold",
		}[in.Temperature]
		parts = append(parts, fmt.Sprintf("Lead Score: %d/100 (%s lead)", *in.Score, label))
	}

	var highlights []string
	if v := in.Form.Get("country"); v != "" {
		highlights = append(highlights, "Negara tujuan: "+v)
	}
	if v := in.Form.Get("budget"); v != "" {
		highlights = append(highlights, "Budget: "+v)
	}
	if v := in.Form.Get("timeline"); v != "" {
		highlights = append(highlights, "Timeline: "+v)
	}
	if v := in.Form.Get("english_level"); v != "" {
		highlights = append(highlights, "English: "+v)
	}
	if len(highlights) > 0 {
		parts = append(parts, "Key info: "+strings.Join(highlights, ", "))
	}

	var topics []string
	for _, tk := range topicKeywords {
		for _, msg := range in.UserMessages {
			if strings.Contains(strings.ToLower(msg), tk.keyword) {
				topics = append(topics, tk.label)
				break
			}
		}
	}
	if len(topics) > 3 {
		topics = topics[:3]
	}
	if len(topics) > 0 {
		parts = append(parts, "Topik dibahas: "+strings.Join(topics, ", "))
	}

	switch {
	case in.TotalCount > 20:
		parts = append(parts, "Percakapan panjang - lead sangat engaged")
	case in.TotalCount > 10:
		parts = append(parts, "Percakapan aktif")
	}

	if len(parts) == 0 {
		return "Lead dari WhatsApp. Lihat riwayat percakapan untuk detail."
	}
	return strings.Join(parts, ". ") + "."
}

// TypeFor maps a routing action to the consultation type it implies.
func TypeFor(action domain.RoutingAction) ConsultationType {
	switch action {
	case domain.ActionSendCommunityCold:
		return TypeCommunity
	case domain.ActionHandoffWarm:
		return TypeColdFollowup
	default:
		return TypeConsultation
	}
}

package prompt

import (
	"strings"
	"testing"
	"time"

	"wacrm_backend/internal/ari/domain"
)

func TestTimeGreeting(t *testing.T) {
	tests := []struct {
		utcHour int
		want    string
	}{
		{2, "pagi"},   // 09:00 WIB
		{5, "siang"},  // 12:00 WIB
		{9, "sore"},   // 16:00 WIB
		{13, "malam"}, // 20:00 WIB
		{21, "malam"}, // 04:00 WIB
	}

	for _, tt := range tests {
		now := time.Date(2026, 3, 1, tt.utcHour, 0, 0, 0, time.UTC)
		if got := TimeGreeting(now); got != tt.want {
			t.Errorf("TimeGreeting(%02d:00 UTC) = %q, want %q", tt.utcHour, got, tt.want)
		}
	}
}

func baseContext() Context {
	score := 55
	return Context{
		AgentName:   "ARI",
		ContactName: "Budi",
		Form:        domain.FormData{"country": "Australia", "budget": "300 juta"},
		Score:       &score,
		Weights:     domain.Defaults(),
		State:       domain.StateQualifying,
		Now:         time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC),
	}
}

func TestBuildSystemPromptQualifying(t *testing.T) {
	got := BuildSystemPrompt(baseContext())

	for _, want := range []string{
		"Kamu adalah ARI, asisten AI untuk konsultasi pendidikan luar negeri.",
		"Selamat pagi",
		"Nama lead: Budi",
		"- Negara tujuan: Australia",
		"Lead Score: 55/100 (warm)",
		"## Status Saat Ini: QUALIFYING",
		"Data yang masih kosong: name, email, english_level, timeline",
		"Tanyakan: Boleh tau nama lengkapnya siapa kak?",
		"Tanya SATU hal per pesan",
		"## Aturan Komunikasi",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestBuildSystemPromptAsksDocumentsWhenFormComplete(t *testing.T) {
	ctx := baseContext()
	ctx.Form = domain.FormData{
		"name": "Budi", "email": "budi@mail.com", "english_level": "menengah",
		"budget": "300 juta", "timeline": "2026", "country": "Australia",
	}
	yes := true
	ctx.Documents = domain.DocumentStatus{Passport: &yes}

	got := BuildSystemPrompt(ctx)
	if !strings.Contains(got, "Data form sudah lengkap. Sekarang tanya dokumen.") {
		t.Errorf("prompt should move to documents:\n%s", got)
	}
	if !strings.Contains(got, "Tanyakan: CV atau resume udah siap kak?") {
		t.Errorf("prompt should ask the next unanswered document:\n%s", got)
	}
}

func TestBuildSystemPromptScoringHot(t *testing.T) {
	ctx := baseContext()
	ctx.State = domain.StateScoring
	hot := 82
	ctx.Score = &hot
	ctx.ScoreReasons = []string{"Email valid", "Negara tujuan: Australia"}

	got := BuildSystemPrompt(ctx)
	for _, want := range []string{
		"## HASIL SCORING",
		"Lead Score: 82/100 (hot)",
		"- Email valid",
		"## ROUTING: HOT LEAD",
		"## LARANGAN DI STATE SCORING",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestBuildSystemPromptScoringColdMentionsCommunity(t *testing.T) {
	ctx := baseContext()
	ctx.State = domain.StateScoring
	cold := 20
	ctx.Score = &cold
	ctx.CommunityLinkSent = true

	got := BuildSystemPrompt(ctx)
	if !strings.Contains(got, "## ROUTING: COLD LEAD") {
		t.Fatalf("missing cold routing section:\n%s", got)
	}
	if !strings.Contains(got, "Community link sudah dikirim terpisah.") {
		t.Errorf("prompt should note the community link was sent:\n%s", got)
	}
}

func TestBuildChatMessages(t *testing.T) {
	history := []HistoryMessage{
		{Role: "system", Content: "ignored"},
		{Role: "user", Content: "halo"},
		{Role: "assistant", Content: "Halo kak!"},
		{Role: "user", Content: "mau tanya kuliah"},
	}

	messages := BuildChatMessages(baseContext(), history, 2)

	if len(messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3 (system + 2 history)", len(messages))
	}
	if messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if messages[1].Content != "Halo kak!" || messages[2].Content != "mau tanya kuliah" {
		t.Errorf("history should keep the most recent turns: %+v", messages[1:])
	}
}

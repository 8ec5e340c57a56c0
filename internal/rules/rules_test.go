package rules

import (
	"testing"
	"time"
)

func TestMatchTrigger(t *testing.T) {
	triggers := DefaultConfig().KeywordTriggers

	tests := []struct {
		name     string
		message  string
		wantRule string
		wantOK   bool
	}{
		{"handoff contains", "I want to speak to a real person please", "handoff-trigger", true},
		{"handoff indonesian", "bisa bicara dengan orang?", "handoff-trigger", true},
		{"manager command", "!summary minggu ini", "manager-trigger", true},
		{"manager not at start", "tolong kirim !summary", "", false},
		{"case insensitive", "HUMAN please", "handoff-trigger", true},
		{"no match", "halo, mau tanya kuliah di australia", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := MatchTrigger(tt.message, triggers)
			if ok != tt.wantOK {
				t.Fatalf("MatchTrigger(%q) ok = %v, want %v", tt.message, ok, tt.wantOK)
			}
			if ok && match.RuleID != tt.wantRule {
				t.Errorf("rule = %q, want %q", match.RuleID, tt.wantRule)
			}
		})
	}
}

func TestMatchTriggerSkipsDisabled(t *testing.T) {
	triggers := []KeywordTrigger{
		{ID: "off", Keywords: []string{"promo"}, Action: ActionHandoff, MatchMode: MatchContains, Enabled: false},
		{ID: "on", Keywords: []string{"promo"}, Action: ActionFAQResponse, MatchMode: MatchContains, Enabled: true},
	}

	match, ok := MatchTrigger("ada promo gak?", triggers)
	if !ok || match.RuleID != "on" {
		t.Fatalf("match = %+v ok=%v, want rule \"on\"", match, ok)
	}
}

func TestMatchTriggerExactMode(t *testing.T) {
	triggers := []KeywordTrigger{
		{ID: "exact", Keywords: []string{"menu"}, Action: ActionFAQResponse, MatchMode: MatchExact, Enabled: true},
	}

	if _, ok := MatchTrigger("  menu  ", triggers); !ok {
		t.Error("trimmed exact match should hit")
	}
	if _, ok := MatchTrigger("menu dong", triggers); ok {
		t.Error("exact mode must not match a longer message")
	}
}

func TestMatchFAQ(t *testing.T) {
	templates := []FAQTemplate{
		{ID: "pricing", TriggerKeywords: []string{"harga", "biaya", "berapa"}, Response: "Biaya konsultasi gratis kak.", Enabled: true},
		{ID: "hours", TriggerKeywords: []string{"jam", "buka"}, Response: "Kami aktif jam 9-18 WIB.", Enabled: true},
	}

	match, ok := MatchFAQ("Berapa biayanya kak?", templates)
	if !ok {
		t.Fatal("expected FAQ match")
	}
	if match.RuleID != "pricing" {
		t.Errorf("rule = %q, want pricing", match.RuleID)
	}
	if match.Response != "Biaya konsultasi gratis kak." {
		t.Errorf("response = %q", match.Response)
	}

	if _, ok := MatchFAQ("mau tanya beasiswa", templates); ok {
		t.Error("unrelated message must not match")
	}
}

func TestIsCommand(t *testing.T) {
	if !IsCommand("!summary") || !IsCommand("  /help") {
		t.Error("command prefixes not detected")
	}
	if IsCommand("halo!") {
		t.Error("trailing bang is not a command")
	}
}

func TestDetectLeadType(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Hour)
	stale := now.Add(-48 * time.Hour)

	tests := []struct {
		name   string
		last   *time.Time
		window int
		want   LeadType
	}{
		{"first contact", nil, 24, LeadNew},
		{"within window", &recent, 24, LeadReturning},
		{"outside window", &stale, 24, LeadNew},
		{"window disabled", &recent, 0, LeadNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLeadType(tt.last, tt.window, now); got != tt.want {
				t.Errorf("DetectLeadType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluatePrecedence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FAQTemplates = []FAQTemplate{
		{ID: "pricing", TriggerKeywords: []string{"human"}, Response: "faq copy", Enabled: true},
	}

	// "human" appears in both a trigger and an FAQ keyword; triggers win.
	result := Evaluate(cfg, "human please", LeadNew)
	if !result.Handled || !result.ShouldHandoff {
		t.Fatalf("result = %+v, want handled handoff", result)
	}
	if result.MatchedRule != "handoff-trigger" {
		t.Errorf("matched = %q, want handoff-trigger", result.MatchedRule)
	}
}

func TestEvaluateManagerFlag(t *testing.T) {
	result := Evaluate(DefaultConfig(), "!report", LeadReturning)
	if !result.ShouldTriggerManager || result.ShouldHandoff {
		t.Fatalf("result = %+v, want manager flag only", result)
	}
	if result.LeadType != LeadReturning {
		t.Errorf("lead type = %q, want returning", result.LeadType)
	}
}

func TestEvaluatePassThrough(t *testing.T) {
	result := Evaluate(DefaultConfig(), "mau tanya kuliah di UK", LeadNew)
	if result.Handled {
		t.Fatalf("result = %+v, want pass through to AI", result)
	}
	if result.Action != ActionPassThrough {
		t.Errorf("action = %q", result.Action)
	}
}

func TestEvaluateAIFallbackDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AIFallbackEnabled = false

	result := Evaluate(cfg, "mau tanya kuliah", LeadNew)
	if !result.Handled {
		t.Fatal("disabled AI fallback must still produce a reply")
	}
	if result.Response == "" {
		t.Error("expected generic receipt response")
	}
}

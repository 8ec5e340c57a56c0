package routing

import (
	"strings"
	"testing"

	"wacrm_backend/internal/ari/domain"
)

func completeForm() domain.FormData {
	return domain.FormData{
		"name": "Budi", "email": "budi@mail.com", "english_level": "menengah",
		"budget": "300 juta", "timeline": "tahun ini", "country": "Australia",
	}
}

func askedDocs() domain.DocumentStatus {
	yes, no := true, false
	return domain.DocumentStatus{Passport: &yes, CV: &yes, EnglishTest: &no, Transcript: &no}
}

func TestDecideContinuesQualifyingWhenIncomplete(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{
			name: "missing required fields",
			in:   Input{Score: 90, Temperature: domain.TemperatureHot, Form: domain.FormData{"name": "Budi"}, Documents: askedDocs()},
		},
		{
			name: "documents not fully asked",
			in:   Input{Score: 90, Temperature: domain.TemperatureHot, Form: completeForm(), Documents: domain.DocumentStatus{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.in)
			if d.Action != domain.ActionContinueQualifying {
				t.Errorf("action = %q, want continue_qualifying", d.Action)
			}
		})
	}
}

func TestDecideHotHandsOff(t *testing.T) {
	d := Decide(Input{Score: 82, Temperature: domain.TemperatureHot, Form: completeForm(), Documents: askedDocs()})

	if d.Action != domain.ActionHandoffHot {
		t.Fatalf("action = %q, want handoff_hot", d.Action)
	}
	if d.Notes != "Hot lead (score: 82). Ready for consultation offer." {
		t.Errorf("unexpected notes %q", d.Notes)
	}
}

func TestDecideColdSendsCommunityLink(t *testing.T) {
	in := Input{
		Score: 25, Temperature: domain.TemperatureCold,
		Form: completeForm(), Documents: askedDocs(),
		CommunityGroupLink: "https://chat.whatsapp.com/abc123",
	}
	d := Decide(in)

	if d.Action != domain.ActionSendCommunityCold {
		t.Fatalf("action = %q, want send_community_cold", d.Action)
	}
	if !strings.Contains(d.Message, "https://chat.whatsapp.com/abc123") {
		t.Errorf("message missing group link: %q", d.Message)
	}
	if !strings.Contains(d.Notes, "Community link sent") {
		t.Errorf("notes = %q", d.Notes)
	}

	in.CommunityGroupLink = ""
	d = Decide(in)
	if d.Message != "" {
		t.Errorf("no link configured but message = %q", d.Message)
	}
	if !strings.Contains(d.Notes, "Community link not configured") {
		t.Errorf("notes = %q", d.Notes)
	}
}

func TestDecideWarmNurturesUntilLimit(t *testing.T) {
	base := Input{
		Score: 55, Temperature: domain.TemperatureWarm,
		Form: completeForm(), Documents: askedDocs(),
		WarmLimit: 5,
	}

	base.WarmMessages = 4
	if d := Decide(base); d.Action != domain.ActionContinueNurturing {
		t.Errorf("under limit: action = %q, want continue_nurturing", d.Action)
	}

	base.WarmMessages = 5
	if d := Decide(base); d.Action != domain.ActionHandoffWarm {
		t.Errorf("at limit: action = %q, want handoff_warm", d.Action)
	}

	base.WarmLimit = 0
	base.WarmMessages = 50
	if d := Decide(base); d.Action != domain.ActionContinueNurturing {
		t.Errorf("disabled limit: action = %q, want continue_nurturing", d.Action)
	}
}

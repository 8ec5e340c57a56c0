package scoring

import (
	"testing"
	"time"

	"wacrm_backend/internal/ari/domain"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func fullForm() domain.FormData {
	return domain.FormData{
		"name":          "Budi Santoso",
		"email":         "budi@mail.com",
		"english_level": "IELTS 7.0",
		"budget":        "300 juta",
		"timeline":      "tahun ini",
		"country":       "Australia",
	}
}

func allDocsReady() domain.DocumentStatus {
	yes := true
	return domain.DocumentStatus{Passport: &yes, CV: &yes, EnglishTest: &yes, Transcript: &yes}
}

func TestScoreEmptyForm(t *testing.T) {
	result := scoreAt(domain.FormData{}, domain.DocumentStatus{}, nil, domain.Defaults(), testNow)

	if result.Score >= 20 {
		t.Errorf("empty form score = %d, want < 20", result.Score)
	}
	if result.Breakdown.EngagementScore != 5 {
		t.Errorf("default engagement = %v, want 5", result.Breakdown.EngagementScore)
	}
	if result.Breakdown.BasicScore != 0 || result.Breakdown.QualificationScore != 0 || result.Breakdown.DocumentScore != 0 {
		t.Errorf("empty form breakdown should be zero apart from engagement: %+v", result.Breakdown)
	}
}

func TestScoreFullProfile(t *testing.T) {
	result := scoreAt(fullForm(), allDocsReady(), nil, domain.Defaults(), testNow)

	if result.Score < 70 {
		t.Errorf("full profile score = %d, want >= 70 (hot)", result.Score)
	}
	if result.Breakdown.BasicScore != 25 {
		t.Errorf("basic score = %v, want 25 (name + email + valid email)", result.Breakdown.BasicScore)
	}
	if result.Breakdown.QualificationScore != 43 {
		t.Errorf("qualification score = %v, want 43 (4 fields + IELTS bonus)", result.Breakdown.QualificationScore)
	}
	if result.Breakdown.DocumentScore != 30 {
		t.Errorf("document score = %v, want 30", result.Breakdown.DocumentScore)
	}

	wantReasons := map[string]bool{"Email valid": false, "Skor IELTS 6.5+ (IELTS 7.0)": false, "Negara tujuan: Australia": false}
	for _, reason := range result.Reasons {
		if _, ok := wantReasons[reason]; ok {
			wantReasons[reason] = true
		}
	}
	for reason, seen := range wantReasons {
		if !seen {
			t.Errorf("missing reason %q in %v", reason, result.Reasons)
		}
	}
}

func TestScoreInvalidEmailGetsPresenceOnly(t *testing.T) {
	form := domain.FormData{"name": "Budi", "email": "not-an-email"}
	result := scoreAt(form, domain.DocumentStatus{}, nil, domain.Defaults(), testNow)

	if result.Breakdown.BasicScore != 20 {
		t.Errorf("basic score = %v, want 20 (15 name + 5 email present, no validity bonus)", result.Breakdown.BasicScore)
	}
	for _, reason := range result.Reasons {
		if reason == "Email valid" {
			t.Error("invalid email must not produce the validity reason")
		}
	}
}

func TestScoreTimelinePenalty(t *testing.T) {
	near := fullForm()
	far := fullForm()
	far["timeline"] = "2028"

	nearResult := scoreAt(near, domain.DocumentStatus{}, nil, domain.Defaults(), testNow)
	farResult := scoreAt(far, domain.DocumentStatus{}, nil, domain.Defaults(), testNow)

	if farResult.Score >= nearResult.Score {
		t.Errorf("far timeline score %d not below near timeline score %d", farResult.Score, nearResult.Score)
	}
	if diff := nearResult.Breakdown.QualificationScore - farResult.Breakdown.QualificationScore; diff != 10 {
		t.Errorf("penalty delta = %v, want 10", diff)
	}
}

func TestScoreQualificationClampsAtZero(t *testing.T) {
	form := domain.FormData{"timeline": "3 tahun lagi"}
	result := scoreAt(form, domain.DocumentStatus{}, nil, domain.Defaults(), testNow)

	if result.Breakdown.QualificationScore != 0 {
		t.Errorf("qualification score = %v, want 0 (10 - 10 penalty, clamped)", result.Breakdown.QualificationScore)
	}
	if result.Score < 0 {
		t.Errorf("total score went negative: %d", result.Score)
	}
}

func TestScoreEngagementClamp(t *testing.T) {
	tests := []struct {
		name       string
		engagement int
		want       float64
	}{
		{"below range", -3, 0},
		{"in range", 7, 7},
		{"above range", 42, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scoreAt(domain.FormData{}, domain.DocumentStatus{}, &tt.engagement, domain.Defaults(), testNow)
			if result.Breakdown.EngagementScore != tt.want {
				t.Errorf("engagement = %v, want %v", result.Breakdown.EngagementScore, tt.want)
			}
		})
	}
}

func TestIsLongTimeline(t *testing.T) {
	tests := []struct {
		timeline string
		want     bool
	}{
		{"tahun ini", false},
		{"6 bulan lagi", false},
		{"2 tahun lagi", true},
		{"3 tahun", true},
		{"2026", false},
		{"2027", false},
		{"2028", true},
		{"masih lama sih", true},
		{"nanti dulu", true},
		{"belum tau", true},
	}

	for _, tt := range tests {
		t.Run(tt.timeline, func(t *testing.T) {
			if got := IsLongTimeline(tt.timeline, testNow); got != tt.want {
				t.Errorf("IsLongTimeline(%q) = %v, want %v", tt.timeline, got, tt.want)
			}
		})
	}
}

func TestHasHighIELTS(t *testing.T) {
	tests := []struct {
		english string
		want    bool
	}{
		{"IELTS 7.0", true},
		{"ielts: 6.5", true},
		{"IELTS 5.5", false},
		{"dapat 7.5 kemarin", true},
		{"pemula", false},
		{"udah mahir", true},
		{"fluent speaker", true},
		{"level C1", true},
		{"menengah", false},
	}

	for _, tt := range tests {
		t.Run(tt.english, func(t *testing.T) {
			if got := HasHighIELTS(tt.english); got != tt.want {
				t.Errorf("HasHighIELTS(%q) = %v, want %v", tt.english, got, tt.want)
			}
		})
	}
}

func TestTemperatureBoundaries(t *testing.T) {
	w := domain.Defaults()
	tests := []struct {
		score int
		want  domain.Temperature
	}{
		{0, domain.TemperatureCold},
		{39, domain.TemperatureCold},
		{40, domain.TemperatureWarm},
		{69, domain.TemperatureWarm},
		{70, domain.TemperatureHot},
		{100, domain.TemperatureHot},
	}

	for _, tt := range tests {
		if got := w.TemperatureFor(tt.score); got != tt.want {
			t.Errorf("TemperatureFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

package knowledge

import (
	"strings"
	"testing"
)

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"uk", "United Kingdom"},
		{"UK", "United Kingdom"},
		{"  Inggris  ", "United Kingdom"},
		{"aussie", "Australia"},
		{"singapura", "Singapore"},
		{"belanda", "Netherlands"},
		{"Wakanda", "Wakanda"},
	}

	for _, tt := range tests {
		if got := NormalizeCountry(tt.input); got != tt.want {
			t.Errorf("NormalizeCountry(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDetectUniversityQuestion(t *testing.T) {
	tests := []struct {
		message     string
		wantIs      bool
		wantCountry string
	}{
		{"Berapa biaya kuliah di UK?", true, "United Kingdom"},
		{"Syarat masuk universitas di jepang apa aja?", true, "Japan"},
		{"Ada beasiswa gak kak?", true, ""},
		{"What are the tuition costs in south korea?", true, "South Korea"},
		{"Halo", false, ""},
		{"Makasih infonya", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			isQ, country := DetectUniversityQuestion(tt.message)
			if isQ != tt.wantIs || country != tt.wantCountry {
				t.Errorf("DetectUniversityQuestion(%q) = (%v, %q), want (%v, %q)",
					tt.message, isQ, country, tt.wantIs, tt.wantCountry)
			}
		})
	}
}

func TestFormatDestinationList(t *testing.T) {
	if got := FormatDestinationList(nil); got != "Tidak ada data universitas untuk kriteria ini." {
		t.Errorf("empty list message = %q", got)
	}

	ielts := 6.5
	budgetMin, budgetMax := int64(400_000_000), int64(600_000_000)
	dest := Destination{
		Country:        "Australia",
		City:           "Melbourne",
		UniversityName: "University of Melbourne",
		Requirements:   Requirements{IELTSMin: &ielts, BudgetMin: &budgetMin, BudgetMax: &budgetMax},
		Programs:       []string{"Business", "IT"},
		IsPromoted:     true,
		Notes:          "Scholarship available",
	}

	got := FormatDestinationList([]Destination{dest})
	for _, want := range []string{
		"[PROMO] - University of Melbourne, Melbourne, Australia",
		"IELTS min: 6.5",
		"Budget: Rp400-Rp600 juta/tahun",
		"Program: Business, IT",
		"Info: Scholarship available",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted output missing %q:\n%s", want, got)
		}
	}

	// Single country must not produce a country heading.
	if strings.Contains(got, "### Australia") {
		t.Error("single-country list should not be grouped")
	}

	two := []Destination{dest, {Country: "Singapore", UniversityName: "NUS"}}
	got = FormatDestinationList(two)
	if !strings.Contains(got, "### Australia") || !strings.Contains(got, "### Singapore") {
		t.Errorf("multi-country list should group by country:\n%s", got)
	}
}

func TestRecommendationText(t *testing.T) {
	if got := RecommendationText(nil, nil); !strings.Contains(got, "belum punya data") {
		t.Errorf("empty recommendation = %q", got)
	}

	budget := int64(500_000_000)
	dests := []Destination{
		{Country: "Australia", UniversityName: "Uni A"},
		{Country: "Australia", UniversityName: "Uni B", IsPromoted: true, Notes: "Promo intake"},
		{Country: "Australia", UniversityName: "Uni C"},
		{Country: "Australia", UniversityName: "Uni D"},
	}

	got := RecommendationText(dests, &budget)
	if !strings.Contains(got, "Rp500 juta/tahun") {
		t.Errorf("recommendation missing budget intro:\n%s", got)
	}
	// Promoted university is listed first with its note.
	lines := strings.Split(got, "\n")
	if !strings.Contains(lines[1], "Uni B") || !strings.Contains(lines[1], "Promo intake") {
		t.Errorf("promoted university should lead the list: %q", lines[1])
	}
	if !strings.Contains(got, "Masih ada 1 pilihan lain") {
		t.Errorf("recommendation missing more-options hint:\n%s", got)
	}
	if strings.Contains(got, "Uni D") {
		t.Error("recommendation should cap at three universities")
	}
}

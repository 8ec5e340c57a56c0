// Package knowledge holds the destination knowledge base: the universities
// a workspace promotes, with lookup by country and formatting for prompts.
package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Requirements captures a university's admission constraints.
type Requirements struct {
	IELTSMin  *float64 `json:"ielts_min,omitempty"`
	GPAMin    *float64 `json:"gpa_min,omitempty"`
	BudgetMin *int64   `json:"budget_min,omitempty"`
	BudgetMax *int64   `json:"budget_max,omitempty"`
	Deadline  string   `json:"deadline,omitempty"`
}

// Destination is one university entry in a workspace's knowledge base.
type Destination struct {
	ID             uuid.UUID    `json:"id"`
	WorkspaceID    uuid.UUID    `json:"workspace_id"`
	Country        string       `json:"country"`
	City           string       `json:"city"`
	UniversityName string       `json:"university_name"`
	Requirements   Requirements `json:"requirements"`
	Programs       []string     `json:"programs"`
	IsPromoted     bool         `json:"is_promoted"`
	Priority       int          `json:"priority"`
	Notes          string       `json:"notes"`
}

// countryAliases maps common spellings, abbreviations, and Indonesian
// names to canonical country names.
var countryAliases = map[string]string{
	"uk":             "United Kingdom",
	"united kingdom": "United Kingdom",
	"england":        "United Kingdom",
	"britain":        "United Kingdom",
	"us":             "United States",
	"usa":            "United States",
	"america":        "United States",
	"united states":  "United States",
	"au":             "Australia",
	"aussie":         "Australia",
	"australia":      "Australia",
	"nz":             "New Zealand",
	"new zealand":    "New Zealand",
	"canada":         "Canada",
	"sg":             "Singapore",
	"singapore":      "Singapore",
	"malaysia":       "Malaysia",
	"japan":          "Japan",
	"korea":          "South Korea",
	"south korea":    "South Korea",
	"germany":        "Germany",
	"netherlands":    "Netherlands",
	"holland":        "Netherlands",
	"inggris":        "United Kingdom",
	"amerika":        "United States",
	"kanada":         "Canada",
	"jepang":         "Japan",
	"belanda":        "Netherlands",
	"jerman":         "Germany",
	"singapura":      "Singapore",
}

// NormalizeCountry maps a free-text country mention to its canonical
// name. Unknown inputs pass through unchanged.
func NormalizeCountry(input string) string {
	if canonical, ok := countryAliases[strings.ToLower(strings.TrimSpace(input))]; ok {
		return canonical
	}
	return input
}

var universityKeywords = []string{
	"universitas", "kampus", "kuliah", "perguruan tinggi", "syarat", "persyaratan",
	"biaya", "budget", "program", "jurusan", "beasiswa", "scholarship",
	"university", "college", "requirements", "cost", "tuition", "major", "degree",
}

// aliasKeys is countryAliases keys in deterministic longest-first order so
// multi-word aliases ("south korea") win over substrings.
var aliasKeys = func() []string {
	keys := make([]string, 0, len(countryAliases))
	for k := range countryAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// DetectUniversityQuestion reports whether a message is asking about
// universities, and which country it mentions if any.
func DetectUniversityQuestion(message string) (isQuestion bool, country string) {
	normalized := strings.ToLower(message)

	hasKeyword := false
	for _, kw := range universityKeywords {
		if strings.Contains(normalized, kw) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return false, ""
	}

	for _, alias := range aliasKeys {
		if strings.Contains(normalized, alias) {
			return true, countryAliases[alias]
		}
	}
	return true, ""
}

func formatBudget(amount int64) string {
	return fmt.Sprintf("%d", amount/1_000_000)
}

// FormatDestination renders one destination as prompt-ready text.
func FormatDestination(d Destination) string {
	var parts []string

	location := d.Country
	if d.City != "" {
		location = d.City + ", " + d.Country
	}
	parts = append(parts, fmt.Sprintf("- %s, %s", d.UniversityName, location))

	if d.Requirements.IELTSMin != nil {
		parts = append(parts, fmt.Sprintf("  IELTS min: %g", *d.Requirements.IELTSMin))
	} else {
		parts = append(parts, "  IELTS min: tidak ditentukan")
	}

	if d.Requirements.BudgetMin != nil || d.Requirements.BudgetMax != nil {
		min, max := "?", "?"
		if d.Requirements.BudgetMin != nil {
			min = "Rp" + formatBudget(*d.Requirements.BudgetMin)
		}
		if d.Requirements.BudgetMax != nil {
			max = "Rp" + formatBudget(*d.Requirements.BudgetMax)
		}
		parts = append(parts, fmt.Sprintf("  Budget: %s-%s juta/tahun", min, max))
	}

	if d.Requirements.Deadline != "" {
		parts = append(parts, "  Deadline: "+d.Requirements.Deadline)
	}
	if len(d.Programs) > 0 {
		parts = append(parts, "  Program: "+strings.Join(d.Programs, ", "))
	}
	if d.Notes != "" {
		parts = append(parts, "  Info: "+d.Notes)
	}

	return strings.Join(parts, "\n")
}

// FormatDestinationList renders destinations for the AI prompt, grouped
// by country when more than one is present. Promoted entries are marked.
func FormatDestinationList(destinations []Destination) string {
	if len(destinations) == 0 {
		return "Tidak ada data universitas untuk kriteria ini."
	}

	byCountry := make(map[string][]Destination)
	var order []string
	for _, d := range destinations {
		if _, seen := byCountry[d.Country]; !seen {
			order = append(order, d.Country)
		}
		byCountry[d.Country] = append(byCountry[d.Country], d)
	}

	var parts []string
	for _, country := range order {
		if len(byCountry) > 1 {
			parts = append(parts, "\n### "+country)
		}
		for _, d := range byCountry[country] {
			prefix := ""
			if d.IsPromoted {
				prefix = "[PROMO] "
			}
			parts = append(parts, prefix+FormatDestination(d))
		}
	}
	return strings.Join(parts, "\n")
}

// RecommendationText builds a natural Indonesian recommendation from the
// available destinations, personalized to the lead's budget when known.
func RecommendationText(destinations []Destination, userBudget *int64) string {
	if len(destinations) == 0 {
		return "Saya belum punya data universitas untuk kriteria ini. Mau coba negara lain?"
	}

	var parts []string
	if userBudget != nil {
		parts = append(parts, fmt.Sprintf("Berdasarkan budget kamu sekitar Rp%s juta/tahun, berikut rekomendasinya:", formatBudget(*userBudget)))
	} else {
		parts = append(parts, "Berikut beberapa pilihan universitas yang bagus:")
	}

	var promoted, others []Destination
	for _, d := range destinations {
		if d.IsPromoted {
			promoted = append(promoted, d)
		} else {
			others = append(others, d)
		}
	}
	toShow := append(promoted, others...)
	if len(toShow) > 3 {
		toShow = toShow[:3]
	}

	for _, d := range toShow {
		location := d.Country
		if d.City != "" {
			location = d.City + ", " + d.Country
		}
		line := fmt.Sprintf("- %s (%s)", d.UniversityName, location)
		if d.Requirements.IELTSMin != nil {
			line += fmt.Sprintf(" - IELTS min %g", *d.Requirements.IELTSMin)
		}
		if d.IsPromoted && d.Notes != "" {
			line += " - " + d.Notes
		}
		parts = append(parts, line)
	}

	if rest := len(destinations) - 3; rest > 0 {
		parts = append(parts, fmt.Sprintf("\nMasih ada %d pilihan lain. Mau tau lebih detail yang mana?", rest))
	}

	return strings.Join(parts, "\n")
}

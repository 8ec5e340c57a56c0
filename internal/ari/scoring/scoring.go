// Package scoring computes lead readiness scores from collected form data,
// document status, and engagement. All functions are pure; the weights come
// from the workspace scoring config so operators can tune them per tenant.
package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/ari/qualification"
)

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	yearPattern      = regexp.MustCompile(`\b(20\d{2})\b`)
	yearsOutPattern  = regexp.MustCompile(`\b(\d+)\s*tahun\b`)
	ieltsPattern     = regexp.MustCompile(`ielts\s*[:\-]?\s*(\d+\.?\d*)`)
	bareScorePattern = regexp.MustCompile(`\b([6-9]\.?[05]?)\b`)
)

// Score computes the lead score from the collected data. engagement is an
// optional signal in [0,10]; nil falls back to the configured default.
func Score(form domain.FormData, docs domain.DocumentStatus, engagement *int, w domain.Weights) domain.ScoreResult {
	return scoreAt(form, docs, engagement, w, time.Now())
}

func scoreAt(form domain.FormData, docs domain.DocumentStatus, engagement *int, w domain.Weights, now time.Time) domain.ScoreResult {
	var reasons []string

	// Basic: identity fields. A valid email earns both the presence
	// weight and the validity bonus.
	basic := 0.0
	if form.Has("name") {
		basic += float64(w.NameWeight)
		reasons = append(reasons, fmt.Sprintf("Nama terisi: %s", form.Get("name")))
	}
	if email := form.Get("email"); email != "" {
		basic += float64(w.EmailWeight)
		if emailPattern.MatchString(email) {
			basic += float64(w.ValidEmailBonus)
			reasons = append(reasons, "Email valid")
		}
	}

	// Qualification: study-readiness fields.
	qual := 0.0
	if english := form.Get("english_level"); english != "" {
		qual += float64(w.QualificationFieldWeight)
		if HasHighIELTS(english) {
			qual += float64(w.IELTSBonus)
			reasons = append(reasons, fmt.Sprintf("Skor IELTS 6.5+ (%s)", english))
		} else {
			reasons = append(reasons, fmt.Sprintf("Bahasa Inggris: %s", english))
		}
	}
	if budget := form.Get("budget"); budget != "" {
		qual += float64(w.QualificationFieldWeight)
		reasons = append(reasons, fmt.Sprintf("Budget jelas: %s", budget))
	}
	if timeline := form.Get("timeline"); timeline != "" {
		qual += float64(w.QualificationFieldWeight)
		if IsLongTimeline(timeline, now) {
			qual -= float64(w.TimelinePenalty)
			reasons = append(reasons, fmt.Sprintf("Timeline jauh (%s) - penalty", timeline))
		} else {
			reasons = append(reasons, fmt.Sprintf("Timeline dekat: %s", timeline))
		}
	}
	if country := form.Get("country"); country != "" {
		qual += float64(w.QualificationFieldWeight)
		reasons = append(reasons, fmt.Sprintf("Negara tujuan: %s", country))
	}
	if qual < 0 {
		qual = 0
	}

	// Documents: flat weight per confirmed document.
	docScore := float64(docs.ReadyCount()) * w.DocumentWeight
	if ready := readyDocumentLabels(docs); len(ready) > 0 {
		reasons = append(reasons, "Dokumen siap: "+strings.Join(ready, ", "))
	}

	// Engagement: clamped pass-through.
	eng := float64(w.DefaultEngagement)
	if engagement != nil {
		eng = float64(*engagement)
	}
	if eng < 0 {
		eng = 0
	}
	if eng > 10 {
		eng = 10
	}

	total := int(math.Round(basic + qual + docScore + eng))
	if total < 0 {
		total = 0
	}

	return domain.ScoreResult{
		Score: total,
		Breakdown: domain.ScoreBreakdown{
			BasicScore:         basic,
			QualificationScore: qual,
			DocumentScore:      docScore,
			EngagementScore:    eng,
		},
		Reasons: reasons,
	}
}

func readyDocumentLabels(docs domain.DocumentStatus) []string {
	var labels []string
	for _, key := range qualification.DocumentKeys {
		if answer := docs.Answer(key); answer != nil && *answer {
			labels = append(labels, qualification.DocumentLabel(key))
		}
	}
	return labels
}

// IsLongTimeline reports whether the timeline text implies the lead is
// two or more years away from starting.
func IsLongTimeline(timeline string, now time.Time) bool {
	normalized := strings.ToLower(timeline)

	if match := yearsOutPattern.FindStringSubmatch(normalized); match != nil {
		if years, err := strconv.Atoi(match[1]); err == nil && years >= 2 {
			return true
		}
	}
	if match := yearPattern.FindStringSubmatch(normalized); match != nil {
		if year, err := strconv.Atoi(match[1]); err == nil && year-now.Year() >= 2 {
			return true
		}
	}
	for _, vague := range []string{"lama", "nanti dulu", "belum tau"} {
		if strings.Contains(normalized, vague) {
			return true
		}
	}
	return false
}

// HasHighIELTS reports whether the english level text implies an IELTS
// score of 6.5 or better, or an equivalent fluency claim.
func HasHighIELTS(english string) bool {
	normalized := strings.ToLower(english)

	if match := ieltsPattern.FindStringSubmatch(normalized); match != nil {
		if score, err := strconv.ParseFloat(match[1], 64); err == nil {
			return score >= 6.5
		}
	}
	if match := bareScorePattern.FindStringSubmatch(normalized); match != nil {
		if score, err := strconv.ParseFloat(match[1], 64); err == nil && score >= 6.5 {
			return true
		}
	}
	for _, keyword := range []string{"mahir", "fluent", "advanced", "c1", "c2"} {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

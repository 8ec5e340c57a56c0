// Package qualification holds the field and document rules the lead
// qualification flow works from: which profile fields must be collected,
// the Indonesian follow-up question for each, and the document checklist
// with its yes/no answer parsing.
package qualification

import (
	"strings"

	"wacrm_backend/internal/ari/domain"
)

// RequiredFields must all be present before a lead can be routed.
var RequiredFields = []string{"name", "email", "english_level", "budget", "timeline", "country"}

// ImportantFields improve scoring but do not block routing.
var ImportantFields = []string{"activity", "notes"}

var fieldLabels = map[string]string{
	"name":          "nama lengkap",
	"email":         "alamat email",
	"english_level": "kemampuan bahasa Inggris",
	"budget":        "budget",
	"timeline":      "kapan mau mulai kuliah",
	"country":       "negara tujuan",
	"activity":      "status (kerja/kuliah)",
	"notes":         "informasi tambahan",
}

var followUpQuestions = map[string]string{
	"name":          "Boleh tau nama lengkapnya siapa kak?",
	"email":         "Email yang aktif apa kak? Buat kirim info lebih lanjut.",
	"english_level": "Kalau bahasa Inggris, udah di level mana kak? Pemula, menengah, atau udah mahir?",
	"budget":        "Budget untuk kuliah kira-kira berapa kak? Nanti saya carikan yang cocok.",
	"timeline":      "Rencananya mau berangkat kapan kak? Tahun ini atau tahun depan?",
	"country":       "Negara tujuannya kemana kak? UK, Australia, atau yang lain?",
	"activity":      "Sekarang lagi kerja atau masih kuliah kak?",
	"notes":         "Ada info tambahan yang mau diceritakan kak?",
}

// DocumentKeys lists the document checklist in the order it is asked.
var DocumentKeys = []string{"passport", "cv", "english_test", "transcript"}

var documentQuestions = map[string]string{
	"passport":     "Paspor udah punya belum kak?",
	"cv":           "CV atau resume udah siap kak?",
	"english_test": "Udah punya skor IELTS atau TOEFL kak? Atau masih rencana mau ambil?",
	"transcript":   "Transkrip akademik dari kampus/sekolah udah ada kak?",
}

var documentLabels = map[string]string{
	"passport":     "Paspor",
	"cv":           "CV",
	"english_test": "Tes bahasa Inggris",
	"transcript":   "Transkrip",
}

// FieldLabel returns the Indonesian label for a field. Unknown fields
// fall back to the key itself with underscores spelled out.
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return strings.ReplaceAll(field, "_", " ")
}

// FollowUpQuestion returns the question to ask for a missing field.
func FollowUpQuestion(field string) string {
	if q, ok := followUpQuestions[field]; ok {
		return q
	}
	return "Boleh tau " + FieldLabel(field) + "-nya kak?"
}

// DocumentQuestion returns the checklist question for a document key.
func DocumentQuestion(key string) string {
	return documentQuestions[key]
}

// DocumentLabel returns the Indonesian label for a document key.
func DocumentLabel(key string) string {
	if label, ok := documentLabels[key]; ok {
		return label
	}
	return key
}

// MissingRequiredFields returns the required fields not yet present in
// the form, in collection order.
func MissingRequiredFields(form domain.FormData) []string {
	var missing []string
	for _, field := range RequiredFields {
		if !form.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// MissingImportantFields returns the nice-to-have fields not yet present.
func MissingImportantFields(form domain.FormData) []string {
	var missing []string
	for _, field := range ImportantFields {
		if !form.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// HasAllRequiredFields reports whether every required field is filled.
func HasAllRequiredFields(form domain.FormData) bool {
	return len(MissingRequiredFields(form)) == 0
}

// NextFieldQuestion returns the follow-up question for the first missing
// required field, or empty when the form is complete.
func NextFieldQuestion(form domain.FormData) (field, question string) {
	missing := MissingRequiredFields(form)
	if len(missing) == 0 {
		return "", ""
	}
	return missing[0], FollowUpQuestion(missing[0])
}

// NextDocumentKey returns the first document not yet asked about, or
// empty when the checklist is exhausted.
func NextDocumentKey(docs domain.DocumentStatus) string {
	for _, key := range DocumentKeys {
		if docs.Answer(key) == nil {
			return key
		}
	}
	return ""
}

// NextDocumentQuestion returns the key and question for the next
// unasked document.
func NextDocumentQuestion(docs domain.DocumentStatus) (key, question string) {
	key = NextDocumentKey(docs)
	if key == "" {
		return "", ""
	}
	return key, documentQuestions[key]
}

var positivePatterns = []string{
	"sudah", "udah", "ada", "punya", "yes", "iya", "ya", "siap", "ready", "done", "ok", "oke",
}

var negativePatterns = []string{
	"belum", "tidak", "gak", "no", "nggak", "engga", "enggak", "ga", "blm", "tdk",
}

// ParseDocumentResponse interprets a free-text reply to a document
// question. Positive patterns win over negative ones, so a reply like
// "belum ada" counts as positive. Returns nil when the answer is unclear
// so the question can be repeated.
func ParseDocumentResponse(text string) *bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, pattern := range positivePatterns {
		if strings.Contains(normalized, pattern) {
			yes := true
			return &yes
		}
	}
	for _, pattern := range negativePatterns {
		if strings.Contains(normalized, pattern) {
			no := false
			return &no
		}
	}
	return nil
}

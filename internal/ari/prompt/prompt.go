// Package prompt assembles the system prompt and chat history for the
// qualification assistant, personalized with everything the CRM knows
// about the lead.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/ari/knowledge"
	"wacrm_backend/internal/ari/qualification"
	"wacrm_backend/platform/ai"
)

// Context carries everything the prompt builder personalizes on.
type Context struct {
	AgentName       string
	BusinessContext string

	ContactName string
	Form        domain.FormData
	Score       *int
	Weights     domain.Weights

	State        domain.State
	Documents    domain.DocumentStatus
	ScoreReasons []string
	// CommunityLinkSent is set when the cold community invite has already
	// gone out in a separate message.
	CommunityLinkSent bool

	Destinations []knowledge.Destination

	// Now is injected for testability; zero means time.Now.
	Now time.Time
}

// TimeGreeting returns the Indonesian time-of-day word in WIB (UTC+7),
// where most of the audience lives.
func TimeGreeting(now time.Time) string {
	hour := now.UTC().Add(7 * time.Hour).Hour()
	switch {
	case hour >= 5 && hour < 11:
		return "pagi"
	case hour >= 11 && hour < 15:
		return "siang"
	case hour >= 15 && hour < 18:
		return "sore"
	default:
		return "malam"
	}
}

var stateInstructions = map[domain.State]string{
	domain.StateGreeting:   "Kamu baru menyapa lead ini. Referensikan data dari form yang mereka isi (jika ada). Tanyakan apa yang ingin mereka ketahui tentang kuliah di luar negeri.",
	domain.StateQualifying: "Kumpulkan informasi yang belum lengkap. SATU pertanyaan per pesan. Fokus pada: negara tujuan, budget, timeline, level bahasa Inggris.",
	domain.StateScoring:    "Kamu sudah selesai mengumpulkan data. Berdasarkan informasi yang ada, nilai kesiapan lead ini. JANGAN tawarkan konsultasi langsung - tunggu instruksi routing.",
	domain.StateBooking:    "Tawarkan konsultasi berbayar. Jelaskan manfaat: bicara langsung dengan konsultan, dapat rekomendasi universitas personal.",
	domain.StatePayment:    "Guide lead melalui proses pembayaran. Jawab pertanyaan tentang metode bayar dan keamanan.",
	domain.StateScheduling: "Bantu lead pilih waktu konsultasi yang cocok. Konfirmasi jadwal yang dipilih.",
	domain.StateHandoff:    "Lead sudah di-handoff ke konsultan manusia. Jika masih ada pertanyaan, jawab singkat dan bilang konsultan akan membantu lebih detail.",
	domain.StateCompleted:  "Percakapan selesai. Ucapkan terima kasih dan ingatkan untuk cek email konfirmasi.",
}

var formLabels = map[string]string{
	"country":       "Negara tujuan",
	"budget":        "Budget",
	"timeline":      "Timeline/Kapan",
	"english_level": "Level bahasa Inggris",
	"activity":      "Aktivitas saat ini",
	"program":       "Program minat",
	"name":          "Nama",
	"email":         "Email",
	"phone":         "Telepon",
	"notes":         "Catatan",
}

func formLabel(key string) string {
	if label, ok := formLabels[key]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// BuildSystemPrompt renders the full system prompt for one AI turn.
func BuildSystemPrompt(ctx Context) string {
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	agentName := ctx.AgentName
	if agentName == "" {
		agentName = "ARI"
	}

	var parts []string

	greeting := TimeGreeting(now)
	parts = append(parts,
		fmt.Sprintf("Kamu adalah %s, asisten AI untuk konsultasi pendidikan luar negeri.", agentName),
		"Gaya komunikasi: santai dan friendly.",
		fmt.Sprintf("Waktu sekarang: %s. Gunakan \"Selamat %s\" untuk menyapa.", greeting, greeting),
	)

	if ctx.BusinessContext != "" {
		parts = append(parts, "\n## Tentang Bisnis", ctx.BusinessContext)
	}

	if ctx.ContactName != "" {
		parts = append(parts, "\nNama lead: "+ctx.ContactName)
	}

	if len(ctx.Form) > 0 {
		parts = append(parts, "\n## Data dari Form")
		// Known fields first for stable ordering.
		seen := make(map[string]bool)
		for _, key := range append(append([]string{}, qualification.RequiredFields...), qualification.ImportantFields...) {
			if value := ctx.Form.Get(key); value != "" {
				parts = append(parts, fmt.Sprintf("- %s: %s", formLabel(key), value))
				seen[key] = true
			}
		}
		for key := range ctx.Form {
			if !seen[key] && ctx.Form.Has(key) {
				parts = append(parts, fmt.Sprintf("- %s: %s", formLabel(key), ctx.Form.Get(key)))
			}
		}
		parts = append(parts, "Referensikan data ini dalam percakapan untuk personalisasi.")
	}

	var temp domain.Temperature
	if ctx.Score != nil {
		temp = ctx.Weights.TemperatureFor(*ctx.Score)
		parts = append(parts, fmt.Sprintf("\nLead Score: %d/100 (%s)", *ctx.Score, temp))
	}

	parts = append(parts,
		"\n## Status Saat Ini: "+strings.ToUpper(string(ctx.State)),
		stateInstructions[ctx.State],
	)

	if ctx.State == domain.StateQualifying {
		parts = append(parts, qualifyingInstructions(ctx)...)
		if ctx.Score != nil && temp == domain.TemperatureHot {
			parts = append(parts,
				"\n## ROUTING PREVIEW: HOT LEAD",
				fmt.Sprintf("Score: %d/100 - Lead ini sudah hot!", *ctx.Score),
				"Selesaikan kualifikasi dengan cepat. Setelah lengkap, akan langsung handoff.",
			)
		}
	}

	if ctx.State == domain.StateScoring && ctx.Score != nil {
		parts = append(parts, scoringInstructions(ctx, temp)...)
	}

	if len(ctx.Destinations) > 0 {
		parts = append(parts,
			"\n## KNOWLEDGE BASE - UNIVERSITAS",
			"Berikut data universitas yang tersedia:",
			knowledge.FormatDestinationList(ctx.Destinations),
			"\nGunakan data ini untuk menjawab pertanyaan tentang universitas, syarat, dan biaya.",
			"Jika user tanya tentang universitas yang tidak ada di data, bilang \"Saya cek dulu ya kak, nanti saya infoin.\"",
		)
	}

	parts = append(parts,
		"\n## Aturan Komunikasi",
		"- Singkat: 1-2 kalimat per pesan",
		"- JANGAN pakai emoji",
		"- Bahasa: Indonesia santai (saya/kamu)",
		"- Mirror bahasa customer (jika formal, ikuti formal)",
		"- Jangan terlalu banyak bicara, tunggu respon",
	)

	return strings.Join(parts, "\n")
}

func qualifyingInstructions(ctx Context) []string {
	missing := qualification.MissingRequiredFields(ctx.Form)
	if len(missing) > 0 {
		return []string{
			"\n## INSTRUKSI KUALIFIKASI",
			"Data yang masih kosong: " + strings.Join(missing, ", "),
			"Tanyakan: " + qualification.FollowUpQuestion(missing[0]),
			"\nPENTING: Tanya SATU hal per pesan. Jangan borong!",
		}
	}

	if _, question := qualification.NextDocumentQuestion(ctx.Documents); question != "" {
		return []string{
			"\n## INSTRUKSI KUALIFIKASI",
			"Data form sudah lengkap. Sekarang tanya dokumen.",
			"Tanyakan: " + question,
			"\nPENTING: Tanya SATU hal per pesan. Jangan borong!",
		}
	}
	return nil
}

func scoringInstructions(ctx Context, temp domain.Temperature) []string {
	parts := []string{
		"\n## HASIL SCORING",
		fmt.Sprintf("Lead Score: %d/100 (%s)", *ctx.Score, temp),
	}
	if len(ctx.ScoreReasons) > 0 {
		parts = append(parts, "Alasan:")
		reasons := ctx.ScoreReasons
		if len(reasons) > 5 {
			reasons = reasons[:5]
		}
		for _, reason := range reasons {
			parts = append(parts, "- "+reason)
		}
	}

	switch temp {
	case domain.TemperatureHot:
		parts = append(parts,
			"\n## ROUTING: HOT LEAD",
			"Lead ini siap untuk konsultasi. JANGAN tawarkan langsung.",
			"Bilang: \"Data kamu sudah lengkap. Konsultan kami akan segera menghubungi untuk mendiskusikan pilihan yang cocok.\"",
		)
	case domain.TemperatureCold:
		parts = append(parts, "\n## ROUTING: COLD LEAD")
		if ctx.CommunityLinkSent {
			parts = append(parts, "Lead ini cold. Community link sudah dikirim terpisah.")
		}
		parts = append(parts, "Bilang: \"Terima kasih sudah mengisi. Nanti konsultan kami akan follow up ya. Kalau ada pertanyaan, langsung chat di grup.\"")
	default:
		parts = append(parts,
			"\n## ROUTING: WARM LEAD",
			"Lead ini warm. Lanjutkan percakapan, jawab pertanyaan mereka.",
			"Tetap ramah dan informatif. Jangan push terlalu keras.",
		)
	}

	parts = append(parts,
		"\n## LARANGAN DI STATE SCORING",
		"- JANGAN tawarkan konsultasi atau pembayaran",
		"- JANGAN kirim link booking sendiri",
		"- TUNGGU handoff ke manusia",
	)
	return parts
}

// HistoryMessage is one prior turn of the conversation.
type HistoryMessage struct {
	Role    string // "user" or "assistant"
	Content string
}

// DefaultHistoryLimit caps how many prior turns go into the context window.
const DefaultHistoryLimit = 10

// BuildChatMessages combines the system prompt with recent history into
// the message array sent to the model.
func BuildChatMessages(ctx Context, history []HistoryMessage, limit int) []ai.Message {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	filtered := make([]HistoryMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role == "user" || msg.Role == "assistant" {
			filtered = append(filtered, msg)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	messages := make([]ai.Message, 0, len(filtered)+1)
	messages = append(messages, ai.Message{Role: "system", Content: BuildSystemPrompt(ctx)})
	for _, msg := range filtered {
		messages = append(messages, ai.Message{Role: msg.Role, Content: msg.Content})
	}
	return messages
}

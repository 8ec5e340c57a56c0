package handoff

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/events"
	"wacrm_backend/platform/logger"
)

func TestSummarize(t *testing.T) {
	score := 82
	in := SummaryInput{
		UserMessages: []string{
			"Berapa biaya kuliah di Australia?",
			"Ada beasiswa gak?",
			"Saya perlu IELTS berapa?",
			"Visa gimana ngurusnya?",
		},
		TotalCount:  24,
		Form:        domain.FormData{"country": "Australia", "budget": "300 juta", "timeline": "tahun ini"},
		Score:       &score,
		Temperature: domain.TemperatureHot,
	}

	got := Summarize(in)

	for _, want := range []string{
		"Lead Score: 82/100 (Hot lead)",
		"Key info: Negara tujuan: Australia, Budget: 300 juta, Timeline: tahun ini",
		"Percakapan panjang - lead sangat engaged",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}

	// Topics are capped at three even though four keywords matched.
	topicLine := ""
	for _, part := range strings.Split(got, ". ") {
		if strings.HasPrefix(part, "Topik dibahas: ") {
			topicLine = part
		}
	}
	if topicLine == "" {
		t.Fatalf("summary missing topics: %s", got)
	}
	if count := strings.Count(topicLine, ","); count != 2 {
		t.Errorf("topics = %q, want exactly three entries", topicLine)
	}
}

func TestSummarizeEmptyFallback(t *testing.T) {
	got := Summarize(SummaryInput{})
	if got != "Lead dari WhatsApp. Lihat riwayat percakapan untuk detail." {
		t.Errorf("empty summary = %q", got)
	}
}

func TestConsultationTypeTag(t *testing.T) {
	tests := []struct {
		typ  ConsultationType
		want string
	}{
		{TypeConsultation, "1on1"},
		{TypeCommunity, "Community"},
		{TypeColdFollowup, "Follow-up"},
	}
	for _, tt := range tests {
		if got := tt.typ.Tag(); got != tt.want {
			t.Errorf("%s.Tag() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestTypeFor(t *testing.T) {
	if got := TypeFor(domain.ActionHandoffHot); got != TypeConsultation {
		t.Errorf("hot action type = %q", got)
	}
	if got := TypeFor(domain.ActionSendCommunityCold); got != TypeCommunity {
		t.Errorf("cold action type = %q", got)
	}
	if got := TypeFor(domain.ActionHandoffWarm); got != TypeColdFollowup {
		t.Errorf("warm action type = %q", got)
	}
}

type fakeClaimer struct {
	claimed bool
	calls   int
}

func (f *fakeClaimer) ClaimHandoff(_ context.Context, _ uuid.UUID, _ string) (bool, error) {
	f.calls++
	won := !f.claimed
	f.claimed = true
	return won, nil
}

type fakeTagger struct {
	tags []string
}

func (f *fakeTagger) AddTags(_ context.Context, _, _ uuid.UUID, tags []string) error {
	f.tags = append(f.tags, tags...)
	return nil
}

type noopMailer struct{}

func (noopMailer) SendHandoffNotification(context.Context, string, string, string, int, string) error {
	return nil
}

func (noopMailer) SendAppointmentConfirmation(context.Context, string, string, string, string) error {
	return nil
}

func TestExecuteClaimsOnce(t *testing.T) {
	claimer := &fakeClaimer{}
	tagger := &fakeTagger{}
	bus := events.NewInMemoryBus(logger.New("development"))
	svc := NewService(claimer, tagger, nil, noopMailer{}, bus, logger.New("development"))

	score := 75
	params := Params{
		WorkspaceID:    uuid.New(),
		ContactID:      uuid.New(),
		ConversationID: uuid.New(),
		ContactName:    "Budi",
		Type:           TypeConsultation,
		Temperature:    domain.TemperatureHot,
		Score:          score,
		Summary:        SummaryInput{Score: &score, Temperature: domain.TemperatureHot},
	}

	summary, claimed, err := svc.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !claimed {
		t.Fatal("first Execute() should win the claim")
	}
	if !strings.Contains(summary, "Lead Score: 75/100") {
		t.Errorf("summary = %q", summary)
	}
	if len(tagger.tags) != 1 || tagger.tags[0] != "1on1" {
		t.Errorf("tags = %v, want [1on1]", tagger.tags)
	}

	// A second trigger is a no-op.
	_, claimed, err = svc.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if claimed {
		t.Error("second Execute() should not claim again")
	}
	if len(tagger.tags) != 1 {
		t.Errorf("side effects ran twice: tags = %v", tagger.tags)
	}
}

package ari

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	apptrepo "wacrm_backend/internal/appointments/repository"
	apptsvc "wacrm_backend/internal/appointments/service"
	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/ari/handoff"
	"wacrm_backend/internal/ari/knowledge"
	contactsrepo "wacrm_backend/internal/contacts/repository"
	convrepo "wacrm_backend/internal/conversations/repository"
	"wacrm_backend/internal/events"
	"wacrm_backend/internal/whatsapp"
	wsrepo "wacrm_backend/internal/workspaces/repository"
	"wacrm_backend/platform/ai"
	"wacrm_backend/platform/logger"
)

type fakeConversations struct {
	conv       convrepo.Conversation
	history    []convrepo.Message
	appended   []convrepo.Message
	states     []domain.State
	pendingSet []*string
	daySet     []*int
}

func (f *fakeConversations) GetByID(_ context.Context, _, _ uuid.UUID) (convrepo.Conversation, error) {
	return f.conv, nil
}

func (f *fakeConversations) SetState(_ context.Context, _ uuid.UUID, state domain.State) error {
	f.states = append(f.states, state)
	f.conv.State = state
	return nil
}

func (f *fakeConversations) SetPendingDocument(_ context.Context, _ uuid.UUID, key *string) error {
	f.pendingSet = append(f.pendingSet, key)
	f.conv.PendingDocumentKey = key
	return nil
}

func (f *fakeConversations) SetSchedulingDay(_ context.Context, _ uuid.UUID, day *int) error {
	f.daySet = append(f.daySet, day)
	f.conv.SchedulingDay = day
	return nil
}

func (f *fakeConversations) UpdatePreview(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

func (f *fakeConversations) Append(_ context.Context, msg convrepo.Message) (convrepo.Message, error) {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	f.appended = append(f.appended, msg)
	return msg, nil
}

func (f *fakeConversations) ListRecent(_ context.Context, _ uuid.UUID, _ int) ([]convrepo.Message, error) {
	return f.history, nil
}

type fakeContacts struct {
	contact     contactsrepo.Contact
	savedDocs   []*domain.DocumentStatus
	savedScores []domain.ScoreResult
}

func (f *fakeContacts) Get(_ context.Context, _, _ uuid.UUID) (contactsrepo.Contact, error) {
	return f.contact, nil
}

func (f *fakeContacts) SaveFormData(_ context.Context, _, _ uuid.UUID, formData domain.FormData, docs *domain.DocumentStatus) (contactsrepo.Contact, error) {
	if formData != nil {
		f.contact.FormData = formData
	}
	if docs != nil {
		f.contact.DocumentStatus = *docs
	}
	f.savedDocs = append(f.savedDocs, docs)
	return f.contact, nil
}

func (f *fakeContacts) SaveScore(_ context.Context, _ contactsrepo.Contact, result domain.ScoreResult, _ domain.Temperature) error {
	f.savedScores = append(f.savedScores, result)
	return nil
}

type fakeConfigs struct {
	ari     wsrepo.ARIConfig
	scoring wsrepo.ScoringConfig
}

func (f *fakeConfigs) EffectiveARIConfig(_ context.Context, _ uuid.UUID) (wsrepo.ARIConfig, error) {
	return f.ari, nil
}

func (f *fakeConfigs) EffectiveScoringConfig(_ context.Context, _ uuid.UUID) (wsrepo.ScoringConfig, error) {
	return f.scoring, nil
}

type fakeKnowledge struct{}

func (fakeKnowledge) ForCountry(_ context.Context, _ uuid.UUID, _ string) ([]knowledge.Destination, error) {
	return nil, nil
}

type fakeHandoffs struct {
	executed []handoff.Params
}

func (f *fakeHandoffs) Execute(_ context.Context, p handoff.Params) (string, bool, error) {
	f.executed = append(f.executed, p)
	return "summary", true, nil
}

type fakeScheduler struct {
	slots  []apptsvc.AvailableSlot
	booked []apptsvc.BookParams
}

func (f *fakeScheduler) AvailableSlots(_ context.Context, _ uuid.UUID, _ int) ([]apptsvc.AvailableSlot, error) {
	return f.slots, nil
}

func (f *fakeScheduler) SlotsForDay(_ context.Context, _ uuid.UUID, dayOfWeek, _ int) ([]apptsvc.AvailableSlot, error) {
	var out []apptsvc.AvailableSlot
	for _, s := range f.slots {
		if s.DayOfWeek == dayOfWeek {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScheduler) Book(_ context.Context, p apptsvc.BookParams) (apptrepo.Appointment, error) {
	f.booked = append(f.booked, p)
	return apptrepo.Appointment{ID: uuid.New()}, nil
}

type fakeResponder struct {
	reply string
	calls int
}

func (f *fakeResponder) Generate(_ context.Context, _ string, _ int, _ []ai.Message, _ ai.Options) *ai.Result {
	f.calls++
	tokens := 42
	return &ai.Result{Content: f.reply, Model: "grok-3", Tokens: &tokens, LatencyMs: 12}
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(_ context.Context, _ whatsapp.Credentials, _, message string) error {
	f.sent = append(f.sent, message)
	return nil
}

func defaultScoring() wsrepo.ScoringConfig {
	return wsrepo.ScoringConfig{
		HotThreshold:             70,
		WarmThreshold:            40,
		NameWeight:               15,
		EmailWeight:              5,
		ValidEmailBonus:          5,
		QualificationFieldWeight: 10,
		TimelinePenalty:          10,
		IELTSBonus:               3,
		DocumentWeight:           7.5,
		DefaultEngagement:        5,
		AutoHandoffMessageLimit:  10,
		WarmHandoffMessageLimit:  5,
	}
}

func fullForm() domain.FormData {
	return domain.FormData{
		"name":          "Budi Santoso",
		"email":         "budi@mail.com",
		"english_level": "pemula",
		"budget":        "300 juta",
		"timeline":      "tahun ini",
		"country":       "Australia",
	}
}

func allDocs(answer bool) domain.DocumentStatus {
	docs := domain.DocumentStatus{}
	for _, key := range []string{"passport", "cv", "english_test", "transcript"} {
		docs.SetAnswer(key, answer)
	}
	return docs
}

type fixture struct {
	conversations *fakeConversations
	contacts      *fakeContacts
	configs       *fakeConfigs
	handoffs      *fakeHandoffs
	scheduler     *fakeScheduler
	responder     *fakeResponder
	sender        *fakeSender
	processor     *Processor
	params        Params
}

func newFixture(conv convrepo.Conversation, contact contactsrepo.Contact) *fixture {
	log := logger.New("development")
	f := &fixture{
		conversations: &fakeConversations{conv: conv},
		contacts:      &fakeContacts{contact: contact},
		configs: &fakeConfigs{
			ari:     wsrepo.ARIConfig{Enabled: true, AgentName: "ARI", GrokWeight: 50},
			scoring: defaultScoring(),
		},
		handoffs:  &fakeHandoffs{},
		scheduler: &fakeScheduler{},
		responder: &fakeResponder{reply: "Siap kak, aku bantu ya."},
		sender:    &fakeSender{},
	}
	f.processor = NewProcessor(
		f.conversations, f.contacts, f.configs, fakeKnowledge{},
		f.handoffs, f.scheduler, f.responder, f.sender,
		events.NewInMemoryBus(log), log,
	)
	f.params = Params{
		WorkspaceID:    conv.WorkspaceID,
		ContactID:      contact.ID,
		ConversationID: conv.ID,
		ContactPhone:   "+628123456789",
		UserMessage:    "Halo, mau tanya kuliah di luar negeri",
		Credentials:    whatsapp.Credentials{BaseURL: "https://wa.example.com", APIKey: "key"},
	}
	return f
}

func baseConversation(state domain.State) convrepo.Conversation {
	return convrepo.Conversation{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		State:       state,
	}
}

func baseContact(ws uuid.UUID, form domain.FormData, docs domain.DocumentStatus) contactsrepo.Contact {
	return contactsrepo.Contact{
		ID:             uuid.New(),
		WorkspaceID:    ws,
		Name:           form.Get("name"),
		FormData:       form,
		DocumentStatus: docs,
	}
}

func TestProcessRepliesWhileQualifying(t *testing.T) {
	conv := baseConversation(domain.StateQualifying)
	contact := baseContact(conv.WorkspaceID, domain.FormData{"name": "Budi"}, domain.DocumentStatus{})
	f := newFixture(conv, contact)

	result, err := f.processor.Process(context.Background(), f.params)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if result.Response != "Siap kak, aku bantu ya." {
		t.Errorf("response = %q", result.Response)
	}
	if result.NewState != domain.StateQualifying {
		t.Errorf("state = %q, want qualifying", result.NewState)
	}
	if len(f.sender.sent) != 1 || f.sender.sent[0] != "Siap kak, aku bantu ya." {
		t.Errorf("sent = %v", f.sender.sent)
	}
	if len(f.handoffs.executed) != 0 {
		t.Error("low-score lead should not hand off")
	}

	if len(f.conversations.appended) != 1 {
		t.Fatalf("appended %d messages, want 1", len(f.conversations.appended))
	}
	msg := f.conversations.appended[0]
	if msg.SenderType != convrepo.SenderAI || msg.Direction != convrepo.DirectionOutbound {
		t.Errorf("reply recorded as %s/%s", msg.Direction, msg.SenderType)
	}
	if msg.Metadata["ai_model"] != "grok-3" {
		t.Errorf("metadata = %v", msg.Metadata)
	}
}

func TestProcessConsumesPendingDocumentAnswer(t *testing.T) {
	conv := baseConversation(domain.StateQualifying)
	key := "passport"
	conv.PendingDocumentKey = &key
	contact := baseContact(conv.WorkspaceID, fullForm(), domain.DocumentStatus{})
	f := newFixture(conv, contact)
	f.params.UserMessage = "sudah ada kak"

	if _, err := f.processor.Process(context.Background(), f.params); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if len(f.contacts.savedDocs) == 0 {
		t.Fatal("document answer not saved")
	}
	docs := f.contacts.savedDocs[0]
	if answer := docs.Answer("passport"); answer == nil || !*answer {
		t.Errorf("passport answer = %v, want true", answer)
	}
	if len(f.conversations.pendingSet) == 0 || f.conversations.pendingSet[0] != nil {
		t.Error("pending document key should be cleared first")
	}
}

func TestProcessAsksNextDocument(t *testing.T) {
	conv := baseConversation(domain.StateQualifying)
	contact := baseContact(conv.WorkspaceID, fullForm(), domain.DocumentStatus{})
	f := newFixture(conv, contact)

	result, err := f.processor.Process(context.Background(), f.params)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	// Required fields are complete, so the lead advances while the
	// document checklist opens with its first question.
	if result.NewState != domain.StateScoring {
		t.Errorf("state = %q, want scoring", result.NewState)
	}
	last := f.conversations.pendingSet[len(f.conversations.pendingSet)-1]
	if last == nil || *last != "passport" {
		t.Errorf("pending document = %v, want passport", last)
	}
}

func TestProcessAutoHandoff(t *testing.T) {
	conv := baseConversation(domain.StateQualifying)
	conv.MessagesInState = 11
	contact := baseContact(conv.WorkspaceID, domain.FormData{}, domain.DocumentStatus{})
	f := newFixture(conv, contact)

	result, err := f.processor.Process(context.Background(), f.params)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if result.NewState != domain.StateHandoff {
		t.Errorf("state = %q, want handoff", result.NewState)
	}
	if len(f.sender.sent) != 1 || f.sender.sent[0] != handoff.AutoMessage {
		t.Errorf("sent = %v, want the waiting message", f.sender.sent)
	}
	if f.responder.calls != 0 {
		t.Error("stuck conversation should not call the model")
	}
	if len(f.handoffs.executed) != 1 || f.handoffs.executed[0].Type != handoff.TypeConsultation {
		t.Errorf("handoffs = %+v", f.handoffs.executed)
	}
}

func TestProcessHotLeadHandsOff(t *testing.T) {
	conv := baseConversation(domain.StateScoring)
	contact := baseContact(conv.WorkspaceID, fullForm(), allDocs(true))
	f := newFixture(conv, contact)

	result, err := f.processor.Process(context.Background(), f.params)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if result.NewState != domain.StateHandoff {
		t.Errorf("state = %q, want handoff", result.NewState)
	}
	if len(f.sender.sent) != 2 {
		t.Fatalf("sent %d messages, want AI reply then farewell", len(f.sender.sent))
	}
	if f.sender.sent[1] != handoff.HotMessage {
		t.Errorf("farewell = %q", f.sender.sent[1])
	}
	if len(f.handoffs.executed) != 1 || f.handoffs.executed[0].Type != handoff.TypeConsultation {
		t.Errorf("handoffs = %+v", f.handoffs.executed)
	}
	if f.handoffs.executed[0].Temperature != domain.TemperatureHot {
		t.Errorf("temperature = %q", f.handoffs.executed[0].Temperature)
	}
}

func TestProcessColdLeadGetsCommunityLinkFirst(t *testing.T) {
	conv := baseConversation(domain.StateScoring)
	contact := baseContact(conv.WorkspaceID, fullForm(), allDocs(false))
	f := newFixture(conv, contact)
	// Operators can raise thresholds so a middling lead parks cold.
	f.configs.scoring.HotThreshold = 90
	f.configs.scoring.WarmThreshold = 80
	f.configs.ari.CommunityGroupLink = "https://chat.whatsapp.com/abc123"

	result, err := f.processor.Process(context.Background(), f.params)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if result.NewState != domain.StateHandoff {
		t.Errorf("state = %q, want handoff", result.NewState)
	}
	if len(f.sender.sent) != 3 {
		t.Fatalf("sent %d messages, want reply, community link, farewell", len(f.sender.sent))
	}
	if !strings.Contains(f.sender.sent[1], "https://chat.whatsapp.com/abc123") {
		t.Errorf("community message = %q", f.sender.sent[1])
	}
	if f.sender.sent[2] != handoff.ColdMessage {
		t.Errorf("farewell = %q", f.sender.sent[2])
	}
	if len(f.handoffs.executed) != 1 || f.handoffs.executed[0].Type != handoff.TypeCommunity {
		t.Errorf("handoffs = %+v", f.handoffs.executed)
	}
}

func TestProcessWarmLimitHandsOff(t *testing.T) {
	conv := baseConversation(domain.StateScoring)
	conv.WarmMessageCount = 5
	form := fullForm()
	form["email"] = "not-an-email"
	contact := baseContact(conv.WorkspaceID, form, allDocs(false))
	f := newFixture(conv, contact)

	result, err := f.processor.Process(context.Background(), f.params)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if result.NewState != domain.StateHandoff {
		t.Errorf("state = %q, want handoff", result.NewState)
	}
	// Warm leads get no scripted farewell, just the AI reply.
	if len(f.sender.sent) != 1 {
		t.Errorf("sent = %v", f.sender.sent)
	}
	if len(f.handoffs.executed) != 1 || f.handoffs.executed[0].Type != handoff.TypeColdFollowup {
		t.Errorf("handoffs = %+v", f.handoffs.executed)
	}
}

func schedulingSlots() []apptsvc.AvailableSlot {
	monday := time.Date(2026, 3, 9, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	return []apptsvc.AvailableSlot{
		{
			SlotID: uuid.New(), Date: "2026-03-09", DayOfWeek: 1,
			StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60,
			ConsultantName: "Sinta", StartsAt: monday,
		},
		{
			SlotID: uuid.New(), Date: "2026-03-09", DayOfWeek: 1,
			StartTime: "13:00", EndTime: "14:00", DurationMinutes: 60,
			ConsultantName: "Sinta", StartsAt: monday.Add(4 * time.Hour),
		},
	}
}

func TestSchedulingDialogShowsSlotsForDay(t *testing.T) {
	conv := baseConversation(domain.StateScheduling)
	contact := baseContact(conv.WorkspaceID, fullForm(), allDocs(true))
	f := newFixture(conv, contact)
	f.scheduler.slots = schedulingSlots()
	f.params.UserMessage = "hari senin bisa?"

	result, err := f.processor.Process(context.Background(), f.params)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if result.NewState != domain.StateScheduling {
		t.Errorf("state = %q, want scheduling", result.NewState)
	}
	if !strings.Contains(result.Response, "Untuk hari Senin ada slot:") {
		t.Errorf("response = %q", result.Response)
	}
	if len(f.conversations.daySet) != 1 || f.conversations.daySet[0] == nil || *f.conversations.daySet[0] != 1 {
		t.Errorf("scheduling day = %v, want Monday", f.conversations.daySet)
	}
	if f.responder.calls != 0 {
		t.Error("scheduling dialog should not call the model")
	}
}

func TestSchedulingDialogBooksSelectedSlot(t *testing.T) {
	conv := baseConversation(domain.StateScheduling)
	day := 1
	conv.SchedulingDay = &day
	contact := baseContact(conv.WorkspaceID, fullForm(), allDocs(true))
	f := newFixture(conv, contact)
	f.scheduler.slots = schedulingSlots()
	f.params.UserMessage = "nomor 2"

	result, err := f.processor.Process(context.Background(), f.params)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if len(f.scheduler.booked) != 1 {
		t.Fatalf("booked %d appointments, want 1", len(f.scheduler.booked))
	}
	if f.scheduler.booked[0].Slot.StartTime != "13:00" {
		t.Errorf("booked slot starts %q, want 13:00", f.scheduler.booked[0].Slot.StartTime)
	}
	if result.NewState != domain.StateHandoff {
		t.Errorf("state = %q, want handoff", result.NewState)
	}
	if !strings.Contains(result.Response, "Jam: 13:00 WIB") {
		t.Errorf("confirmation = %q", result.Response)
	}
	// The chosen day resets once the appointment is locked in.
	last := f.conversations.daySet[len(f.conversations.daySet)-1]
	if last != nil {
		t.Errorf("scheduling day after booking = %v, want cleared", *last)
	}
	if len(f.handoffs.executed) != 1 || f.handoffs.executed[0].Type != handoff.TypeConsultation {
		t.Errorf("handoffs = %+v", f.handoffs.executed)
	}
}

func TestSchedulingDialogListsDaysOnUnclearMessage(t *testing.T) {
	conv := baseConversation(domain.StateScheduling)
	contact := baseContact(conv.WorkspaceID, fullForm(), allDocs(true))
	f := newFixture(conv, contact)
	f.scheduler.slots = schedulingSlots()
	f.params.UserMessage = "terserah deh"

	result, err := f.processor.Process(context.Background(), f.params)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if !strings.Contains(result.Response, "Jadwal konsultasi yang tersedia:") {
		t.Errorf("response = %q", result.Response)
	}
	if len(f.scheduler.booked) != 0 {
		t.Error("nothing should be booked")
	}
}

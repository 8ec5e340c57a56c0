package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/ari"
	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/ari/handoff"
	contactsrepo "wacrm_backend/internal/contacts/repository"
	convrepo "wacrm_backend/internal/conversations/repository"
	"wacrm_backend/internal/rules"
	"wacrm_backend/internal/whatsapp"
	wsrepo "wacrm_backend/internal/workspaces/repository"
	"wacrm_backend/platform/logger"
)

type fakeWorkspaces struct {
	workspace wsrepo.Workspace
	cfg       wsrepo.ARIConfig
}

func (f *fakeWorkspaces) ResolveByPhoneNumberID(_ context.Context, phoneNumberID string) (wsrepo.Workspace, error) {
	if phoneNumberID != f.workspace.PhoneNumberID {
		return wsrepo.Workspace{}, errors.New("workspace not found")
	}
	return f.workspace, nil
}

func (f *fakeWorkspaces) SendCredentials(_ context.Context, _ uuid.UUID) (whatsapp.Credentials, error) {
	return whatsapp.Credentials{BaseURL: "https://wa.example.com", APIKey: "key"}, nil
}

func (f *fakeWorkspaces) EffectiveARIConfig(_ context.Context, _ uuid.UUID) (wsrepo.ARIConfig, error) {
	return f.cfg, nil
}

type fakeContacts struct {
	mu       sync.Mutex
	byPhone  map[string]contactsrepo.Contact
	creates  int
	template contactsrepo.Contact
}

func (f *fakeContacts) FindOrCreate(_ context.Context, workspaceID uuid.UUID, phone, name string) (contactsrepo.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byPhone == nil {
		f.byPhone = map[string]contactsrepo.Contact{}
	}
	if c, ok := f.byPhone[phone]; ok {
		return c, nil
	}
	c := f.template
	c.ID = uuid.New()
	c.WorkspaceID = workspaceID
	c.Phone = phone
	c.Name = name
	f.byPhone[phone] = c
	f.creates++
	return c, nil
}

type fakeConversations struct {
	mu         sync.Mutex
	byContact  map[uuid.UUID]convrepo.Conversation
	seen       map[string]bool
	appended   []convrepo.Message
	increments []int
	previews   []string
	states     []domain.State
}

func (f *fakeConversations) FindOrCreate(_ context.Context, workspaceID, contactID uuid.UUID) (convrepo.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byContact == nil {
		f.byContact = map[uuid.UUID]convrepo.Conversation{}
	}
	if c, ok := f.byContact[contactID]; ok {
		return c, nil
	}
	c := convrepo.Conversation{ID: uuid.New(), WorkspaceID: workspaceID, ContactID: contactID, State: domain.StateGreeting}
	f.byContact[contactID] = c
	return c, nil
}

func (f *fakeConversations) ExistsByProviderID(_ context.Context, _ uuid.UUID, providerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[providerID], nil
}

func (f *fakeConversations) Append(_ context.Context, msg convrepo.Message) (convrepo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if msg.ProviderMessageID != nil {
		f.seen[*msg.ProviderMessageID] = true
	}
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	f.appended = append(f.appended, msg)
	return msg, nil
}

func (f *fakeConversations) IncrementUnread(_ context.Context, _ uuid.UUID, n int, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments = append(f.increments, n)
	return nil
}

func (f *fakeConversations) UpdatePreview(_ context.Context, _ uuid.UUID, preview string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews = append(f.previews, preview)
	return nil
}

func (f *fakeConversations) SetState(_ context.Context, _ uuid.UUID, state domain.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	return nil
}

type fakeProcessor struct {
	mu       sync.Mutex
	messages []string
	failOn   string
}

func (f *fakeProcessor) Process(_ context.Context, p ari.Params) (ari.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.UserMessage == f.failOn {
		return ari.Result{}, errors.New("pipeline exploded")
	}
	f.messages = append(f.messages, p.UserMessage)
	return ari.Result{Response: "ok"}, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(_ context.Context, _ whatsapp.Credentials, _, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return nil
}

type fakeHandoffs struct {
	mu       sync.Mutex
	executed []handoff.Params
}

func (f *fakeHandoffs) Execute(_ context.Context, p handoff.Params) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, p)
	return "summary", true, nil
}

type fakeArchiver struct {
	mu       sync.Mutex
	archived []string
}

func (f *fakeArchiver) Archive(_ context.Context, _ uuid.UUID, providerMessageID, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, providerMessageID)
	return "media/" + providerMessageID, nil
}

type webhookFixture struct {
	workspaces    *fakeWorkspaces
	contacts      *fakeContacts
	conversations *fakeConversations
	processor     *fakeProcessor
	sender        *fakeSender
	handoffs      *fakeHandoffs
	archiver      *fakeArchiver
	service       *Service
}

func newWebhookFixture() *webhookFixture {
	log := logger.New("development")
	ws := wsrepo.Workspace{ID: uuid.New(), Name: "Edu Consult", PhoneNumberID: "pn-1"}
	f := &webhookFixture{
		workspaces: &fakeWorkspaces{
			workspace: ws,
			cfg:       wsrepo.ARIConfig{WorkspaceID: ws.ID, Enabled: true, AgentName: "ARI", NewLeadWindowHours: 24},
		},
		contacts:      &fakeContacts{},
		conversations: &fakeConversations{},
		processor:     &fakeProcessor{},
		sender:        &fakeSender{},
		handoffs:      &fakeHandoffs{},
		archiver:      &fakeArchiver{},
	}
	f.service = NewService(
		f.workspaces, f.contacts, f.conversations,
		rules.NewEngine(nil, log),
		f.processor, f.sender, f.handoffs, f.archiver, log,
	)
	return f
}

func textMessage(id, phoneNumberID, from, body string) InboundMessage {
	return InboundMessage{
		ProviderMessageID: id,
		PhoneNumberID:     phoneNumberID,
		From:              from,
		Timestamp:         time.Now(),
		Type:              KindText,
		Text:              &TextPayload{Body: body},
	}
}

func countStatus(statuses []MessageStatus, want Status) int {
	n := 0
	for _, s := range statuses {
		if s.Status == want {
			n++
		}
	}
	return n
}

func TestProcessBatchRunsPipeline(t *testing.T) {
	f := newWebhookFixture()
	batch := Batch{Messages: []InboundMessage{
		textMessage("m1", "pn-1", "+628111", "Halo mau tanya kuliah"),
	}}

	statuses := f.service.ProcessBatch(context.Background(), batch)

	if got := countStatus(statuses, StatusProcessed); got != 1 {
		t.Fatalf("processed = %d, statuses = %+v", got, statuses)
	}
	if len(f.processor.messages) != 1 || f.processor.messages[0] != "Halo mau tanya kuliah" {
		t.Errorf("processor saw %v", f.processor.messages)
	}
	if len(f.conversations.increments) != 1 || f.conversations.increments[0] != 1 {
		t.Errorf("increments = %v", f.conversations.increments)
	}
	if len(f.conversations.previews) != 1 || f.conversations.previews[0] != "Halo mau tanya kuliah" {
		t.Errorf("previews = %v", f.conversations.previews)
	}
}

func TestProcessBatchStripsMarkupFromStoredText(t *testing.T) {
	f := newWebhookFixture()
	batch := Batch{Messages: []InboundMessage{
		textMessage("m1", "pn-1", "+628111", `<script>alert(1)</script>Mau tanya <b>kuliah</b>`),
	}}

	statuses := f.service.ProcessBatch(context.Background(), batch)
	if got := countStatus(statuses, StatusProcessed); got != 1 {
		t.Fatalf("processed = %d, statuses = %+v", got, statuses)
	}

	inbound := 0
	for _, m := range f.conversations.appended {
		if m.Direction != convrepo.DirectionInbound {
			continue
		}
		inbound++
		if m.Content != "alert(1)Mau tanya kuliah" {
			t.Errorf("stored content = %q, markup should be stripped", m.Content)
		}
	}
	if inbound != 1 {
		t.Fatalf("stored %d inbound messages, want 1", inbound)
	}
	if len(f.conversations.previews) != 1 || f.conversations.previews[0] != "alert(1)Mau tanya kuliah" {
		t.Errorf("previews = %v, markup should be stripped", f.conversations.previews)
	}
}

func TestProcessBatchIsIdempotent(t *testing.T) {
	f := newWebhookFixture()
	batch := Batch{Messages: []InboundMessage{
		textMessage("m1", "pn-1", "+628111", "Halo"),
		textMessage("m2", "pn-1", "+628111", "Masih ada kak?"),
	}}

	first := f.service.ProcessBatch(context.Background(), batch)
	if got := countStatus(first, StatusProcessed); got != 2 {
		t.Fatalf("first run processed = %d", got)
	}

	second := f.service.ProcessBatch(context.Background(), batch)
	if got := countStatus(second, StatusDeduped); got != 2 {
		t.Fatalf("second run deduped = %d, statuses = %+v", got, second)
	}

	// One increment of 2 from the first run, nothing from the retry.
	if len(f.conversations.increments) != 1 || f.conversations.increments[0] != 2 {
		t.Errorf("increments = %v", f.conversations.increments)
	}
	inbound := 0
	for _, m := range f.conversations.appended {
		if m.Direction == convrepo.DirectionInbound {
			inbound++
		}
	}
	if inbound != 2 {
		t.Errorf("stored %d inbound messages, want 2", inbound)
	}
}

func TestProcessBatchDropsUnknownPhoneNumberID(t *testing.T) {
	f := newWebhookFixture()
	batch := Batch{Messages: []InboundMessage{
		textMessage("m1", "pn-unknown", "+628111", "Halo"),
	}}

	statuses := f.service.ProcessBatch(context.Background(), batch)

	if got := countStatus(statuses, StatusDropped); got != 1 {
		t.Fatalf("dropped = %d", got)
	}
	if len(f.processor.messages) != 0 {
		t.Error("unknown tenant message must not reach the pipeline")
	}
}

func TestProcessBatchDropsInvalidPayload(t *testing.T) {
	f := newWebhookFixture()
	batch := Batch{Messages: []InboundMessage{
		{ProviderMessageID: "m1", PhoneNumberID: "pn-1", From: "+628111", Type: KindText}, // no body
	}}

	statuses := f.service.ProcessBatch(context.Background(), batch)

	if got := countStatus(statuses, StatusDropped); got != 1 {
		t.Fatalf("dropped = %d, statuses = %+v", got, statuses)
	}
}

func TestRuleTriggerBypassesAI(t *testing.T) {
	f := newWebhookFixture()
	batch := Batch{Messages: []InboundMessage{
		textMessage("m1", "pn-1", "+628111", "saya mau bicara dengan orang langsung"),
	}}

	statuses := f.service.ProcessBatch(context.Background(), batch)

	if got := countStatus(statuses, StatusProcessed); got != 1 {
		t.Fatalf("processed = %d", got)
	}
	if len(f.processor.messages) != 0 {
		t.Error("handoff keyword must skip the AI pipeline")
	}
	if len(f.handoffs.executed) != 1 {
		t.Fatalf("handoffs = %d, want 1", len(f.handoffs.executed))
	}
	if len(f.conversations.states) != 1 || f.conversations.states[0] != domain.StateHandoff {
		t.Errorf("states = %v", f.conversations.states)
	}
}

func TestMediaMessageStoredAndArchived(t *testing.T) {
	f := newWebhookFixture()
	batch := Batch{Messages: []InboundMessage{
		{
			ProviderMessageID: "m1",
			PhoneNumberID:     "pn-1",
			From:              "+628111",
			Type:              KindDocument,
			Document:          &DocumentPayload{URL: "https://cdn.example.com/doc", Filename: "transkrip.pdf"},
		},
	}}

	statuses := f.service.ProcessBatch(context.Background(), batch)

	if got := countStatus(statuses, StatusStored); got != 1 {
		t.Fatalf("stored = %d", got)
	}
	if len(f.conversations.previews) != 1 || f.conversations.previews[0] != "[Document: transkrip.pdf]" {
		t.Errorf("previews = %v", f.conversations.previews)
	}
	if len(f.archiver.archived) != 1 || f.archiver.archived[0] != "m1" {
		t.Errorf("archived = %v", f.archiver.archived)
	}
	if len(f.processor.messages) != 0 {
		t.Error("media must not reach the text pipeline")
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	f := newWebhookFixture()
	f.processor.failOn = "rusak"
	batch := Batch{Messages: []InboundMessage{
		textMessage("m1", "pn-1", "+628111", "rusak"),
		textMessage("m2", "pn-1", "+628222", "Halo kak"),
	}}

	statuses := f.service.ProcessBatch(context.Background(), batch)

	if got := countStatus(statuses, StatusFailed); got != 1 {
		t.Errorf("failed = %d", got)
	}
	if got := countStatus(statuses, StatusProcessed); got != 1 {
		t.Errorf("processed = %d", got)
	}
	if len(f.processor.messages) != 1 || f.processor.messages[0] != "Halo kak" {
		t.Errorf("sibling not processed: %v", f.processor.messages)
	}
}

func TestProcessBatchAsyncJoins(t *testing.T) {
	f := newWebhookFixture()
	batch := Batch{Messages: []InboundMessage{
		textMessage("m1", "pn-1", "+628111", "Halo"),
	}}

	f.service.ProcessBatchAsync(context.Background(), batch)
	f.service.Wait()

	if len(f.processor.messages) != 1 {
		t.Errorf("background batch not flushed: %v", f.processor.messages)
	}
}

func signFor(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidSignature(t *testing.T) {
	body := []byte(`{"messages":[]}`)
	secret := "topsecret"

	// Precomputed digest would couple the test to an implementation
	// detail; round-trip through the same primitive instead and check
	// rejection cases explicitly.
	if !ValidSignature(body, signFor(body, secret), secret) {
		t.Error("matching signature rejected")
	}
	if ValidSignature(body, signFor(body, "wrong"), secret) {
		t.Error("wrong secret accepted")
	}
	if ValidSignature([]byte("tampered"), signFor(body, secret), secret) {
		t.Error("tampered body accepted")
	}
}

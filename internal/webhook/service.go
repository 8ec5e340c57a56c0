package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"wacrm_backend/internal/ari"
	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/ari/handoff"
	contactsrepo "wacrm_backend/internal/contacts/repository"
	convrepo "wacrm_backend/internal/conversations/repository"
	"wacrm_backend/internal/rules"
	"wacrm_backend/internal/whatsapp"
	wsrepo "wacrm_backend/internal/workspaces/repository"
	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/sanitize"
)

// WorkspaceSource resolves tenants and their provider credentials.
type WorkspaceSource interface {
	ResolveByPhoneNumberID(ctx context.Context, phoneNumberID string) (wsrepo.Workspace, error)
	SendCredentials(ctx context.Context, workspaceID uuid.UUID) (whatsapp.Credentials, error)
	EffectiveARIConfig(ctx context.Context, workspaceID uuid.UUID) (wsrepo.ARIConfig, error)
}

// ContactSource finds or creates the lead profile for a sender phone.
type ContactSource interface {
	FindOrCreate(ctx context.Context, workspaceID uuid.UUID, phone, name string) (contactsrepo.Contact, error)
}

// ConversationStore is the conversation persistence surface for ingestion.
type ConversationStore interface {
	FindOrCreate(ctx context.Context, workspaceID, contactID uuid.UUID) (convrepo.Conversation, error)
	ExistsByProviderID(ctx context.Context, workspaceID uuid.UUID, providerID string) (bool, error)
	Append(ctx context.Context, msg convrepo.Message) (convrepo.Message, error)
	IncrementUnread(ctx context.Context, conversationID uuid.UUID, n int, warm bool) error
	UpdatePreview(ctx context.Context, conversationID uuid.UUID, preview string, at time.Time) error
	SetState(ctx context.Context, conversationID uuid.UUID, state domain.State) error
}

// RuleEvaluator is the keyword/FAQ fast path checked before the AI.
type RuleEvaluator interface {
	Evaluate(ctx context.Context, p rules.EvaluateParams) rules.Result
}

// Processor runs the qualification pipeline for one text message.
type Processor interface {
	Process(ctx context.Context, p ari.Params) (ari.Result, error)
}

// Sender delivers outbound messages to the lead.
type Sender interface {
	Send(ctx context.Context, creds whatsapp.Credentials, phoneNumber, message string) error
}

// HandoffExecutor escalates a conversation after a rule trigger.
type HandoffExecutor interface {
	Execute(ctx context.Context, p handoff.Params) (string, bool, error)
}

// MediaArchiver copies provider-hosted media to durable storage and
// returns the archived object key. Optional; nil disables archival.
type MediaArchiver interface {
	Archive(ctx context.Context, workspaceID uuid.UUID, providerMessageID, mediaURL, mimeType string) (string, error)
}

// Status classifies one message's batch outcome.
type Status string

const (
	StatusProcessed Status = "processed" // text message ran the full pipeline
	StatusStored    Status = "stored"    // media message persisted only
	StatusDeduped   Status = "deduped"   // provider message id already seen
	StatusDropped   Status = "dropped"   // invalid payload or unknown tenant
	StatusFailed    Status = "failed"
)

// MessageStatus is the per-message batch result reported to the caller.
type MessageStatus struct {
	ProviderMessageID string
	Status            Status
	Err               error
}

// Service is the inbound message batch processor.
type Service struct {
	workspaces    WorkspaceSource
	contacts      ContactSource
	conversations ConversationStore
	rules         RuleEvaluator
	processor     Processor
	sender        Sender
	handoffs      HandoffExecutor
	archiver      MediaArchiver
	log           *logger.Logger

	wg sync.WaitGroup
}

// NewService wires the batch processor. archiver may be nil.
func NewService(
	workspaces WorkspaceSource,
	contacts ContactSource,
	conversations ConversationStore,
	ruleEngine RuleEvaluator,
	processor Processor,
	sender Sender,
	handoffs HandoffExecutor,
	archiver MediaArchiver,
	log *logger.Logger,
) *Service {
	return &Service{
		workspaces:    workspaces,
		contacts:      contacts,
		conversations: conversations,
		rules:         ruleEngine,
		processor:     processor,
		sender:        sender,
		handoffs:      handoffs,
		archiver:      archiver,
		log:           log,
	}
}

// ProcessBatchAsync runs the batch in a tracked background task so the
// HTTP handler can acknowledge the provider immediately. The task
// survives the request context; Wait joins all in-flight batches.
func (s *Service) ProcessBatchAsync(ctx context.Context, batch Batch) {
	s.wg.Add(1)
	detached := context.WithoutCancel(ctx)
	go func() {
		defer s.wg.Done()
		s.ProcessBatch(detached, batch)
	}()
}

// Wait blocks until every in-flight background batch has completed.
func (s *Service) Wait() {
	s.wg.Wait()
}

// ProcessBatch runs the full ingestion algorithm and returns per-message
// outcomes. It returns only after all per-message work, including the
// concurrent AI tasks, has finished.
func (s *Service) ProcessBatch(ctx context.Context, batch Batch) []MessageStatus {
	statuses := make([]MessageStatus, 0, len(batch.Messages))
	byPhoneNumberID := make(map[string][]InboundMessage)

	for _, msg := range batch.Messages {
		if err := msg.Validate(); err != nil {
			s.log.Warn("webhook: invalid message dropped", "error", err)
			statuses = append(statuses, MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusDropped, Err: err})
			continue
		}
		byPhoneNumberID[msg.PhoneNumberID] = append(byPhoneNumberID[msg.PhoneNumberID], msg)
	}

	for phoneNumberID, messages := range byPhoneNumberID {
		workspace, err := s.workspaces.ResolveByPhoneNumberID(ctx, phoneNumberID)
		if err != nil {
			// Unknown tenant routing keys are dropped, not failed; the
			// provider must not retry them forever.
			s.log.Warn("webhook: no workspace for phone_number_id, dropping",
				"phone_number_id", phoneNumberID, "count", len(messages))
			for _, msg := range messages {
				statuses = append(statuses, MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusDropped})
			}
			continue
		}
		statuses = append(statuses, s.processWorkspaceBatch(ctx, workspace, messages)...)
	}

	return statuses
}

// thread groups one contact's new messages within a batch.
type thread struct {
	contact      contactsrepo.Contact
	conversation convrepo.Conversation
	newMessages  []InboundMessage
}

func (s *Service) processWorkspaceBatch(ctx context.Context, workspace wsrepo.Workspace, messages []InboundMessage) []MessageStatus {
	log := s.log.WithWorkspace(workspace.ID.String())
	statuses := make([]MessageStatus, 0, len(messages))

	threads := make(map[string]*thread)
	deduped := 0
	failed := 0

	for _, msg := range messages {
		th, err := s.resolveThread(ctx, workspace.ID, msg, threads)
		if err != nil {
			log.Error("webhook: resolve contact/conversation failed",
				"provider_message_id", msg.ProviderMessageID, "error", err)
			statuses = append(statuses, MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusFailed, Err: err})
			failed++
			continue
		}

		exists, err := s.conversations.ExistsByProviderID(ctx, workspace.ID, msg.ProviderMessageID)
		if err != nil {
			log.Error("webhook: dedup check failed",
				"provider_message_id", msg.ProviderMessageID, "error", err)
			statuses = append(statuses, MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusFailed, Err: err})
			failed++
			continue
		}
		if exists {
			statuses = append(statuses, MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusDeduped})
			deduped++
			continue
		}

		if err := s.persistInbound(ctx, workspace.ID, th.conversation.ID, msg); err != nil {
			log.Error("webhook: persist message failed",
				"provider_message_id", msg.ProviderMessageID, "error", err)
			statuses = append(statuses, MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusFailed, Err: err})
			failed++
			continue
		}
		th.newMessages = append(th.newMessages, msg)
	}

	// Conversation counters move once per thread, by the count of new
	// messages, so a retried batch cannot double-increment.
	for _, th := range threads {
		if len(th.newMessages) == 0 {
			continue
		}
		warm := th.contact.LeadTemperature == string(domain.TemperatureWarm)
		if err := s.conversations.IncrementUnread(ctx, th.conversation.ID, len(th.newMessages), warm); err != nil {
			log.Error("webhook: unread increment failed", "conversation_id", th.conversation.ID.String(), "error", err)
		}
		last := th.newMessages[len(th.newMessages)-1]
		at := last.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		if err := s.conversations.UpdatePreview(ctx, th.conversation.ID, sanitize.Text(last.Preview()), at); err != nil {
			log.Error("webhook: preview update failed", "conversation_id", th.conversation.ID.String(), "error", err)
		}
	}

	// Per-message pipeline tasks run concurrently; the batch reports
	// complete only after every task returns. Failures are logged and
	// recorded, never propagated to siblings.
	var (
		grp    errgroup.Group
		mu     sync.Mutex
		counts = struct{ processed, stored, taskFailed int }{}
	)
	for _, th := range threads {
		th := th
		for _, msg := range th.newMessages {
			msg := msg
			grp.Go(func() error {
				status := s.processNewMessage(ctx, workspace, th, msg)
				mu.Lock()
				statuses = append(statuses, status)
				switch status.Status {
				case StatusProcessed:
					counts.processed++
				case StatusStored:
					counts.stored++
				case StatusFailed:
					counts.taskFailed++
				}
				mu.Unlock()
				return nil
			})
		}
	}
	_ = grp.Wait()

	log.WebhookEvent(workspace.ID.String(), len(messages), deduped, failed+counts.taskFailed)
	return statuses
}

func (s *Service) resolveThread(ctx context.Context, workspaceID uuid.UUID, msg InboundMessage, threads map[string]*thread) (*thread, error) {
	if th, ok := threads[msg.From]; ok {
		return th, nil
	}

	contact, err := s.contacts.FindOrCreate(ctx, workspaceID, msg.From, msg.ContactName)
	if err != nil {
		return nil, err
	}
	conversation, err := s.conversations.FindOrCreate(ctx, workspaceID, contact.ID)
	if err != nil {
		return nil, err
	}

	th := &thread{contact: contact, conversation: conversation}
	threads[msg.From] = th
	return th, nil
}

func (s *Service) persistInbound(ctx context.Context, workspaceID, conversationID uuid.UUID, msg InboundMessage) error {
	providerID := msg.ProviderMessageID
	record := convrepo.Message{
		WorkspaceID:       workspaceID,
		ConversationID:    conversationID,
		Direction:         convrepo.DirectionInbound,
		SenderType:        convrepo.SenderContact,
		MessageType:       string(msg.Type),
		Content:           sanitize.Text(msg.Content()),
		ProviderMessageID: &providerID,
	}
	if url := msg.MediaURL(); url != "" {
		record.MediaURL = &url
	}
	_, err := s.conversations.Append(ctx, record)
	return err
}

// processNewMessage runs the per-message pipeline: archive media, or for
// text run rules first and the qualification engine second.
func (s *Service) processNewMessage(ctx context.Context, workspace wsrepo.Workspace, th *thread, msg InboundMessage) MessageStatus {
	log := s.log.WithWorkspace(workspace.ID.String())

	if !msg.IsText() {
		s.archiveMedia(ctx, workspace.ID, msg)
		return MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusStored}
	}

	cfg, err := s.workspaces.EffectiveARIConfig(ctx, workspace.ID)
	if err != nil {
		log.Error("webhook: agent config load failed", "error", err)
		return MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusFailed, Err: err}
	}

	creds, err := s.workspaces.SendCredentials(ctx, workspace.ID)
	if err != nil {
		log.Error("webhook: send credentials unavailable", "error", err)
		return MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusFailed, Err: err}
	}

	ruleResult := s.rules.Evaluate(ctx, rules.EvaluateParams{
		WorkspaceID: workspace.ID,
		Message:     msg.Text.Body,
		// LastMessageAt predates this batch; FindOrCreate read it before
		// the new messages landed.
		LastMessageAt:        th.conversation.LastMessageAt,
		DetectionWindowHours: cfg.NewLeadWindowHours,
	})

	if ruleResult.Handled {
		s.handleRuleMatch(ctx, workspace, th, msg, creds, cfg, ruleResult)
		return MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusProcessed}
	}

	if !cfg.Enabled || !creds.Valid() {
		return MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusStored}
	}

	_, err = s.processor.Process(ctx, ari.Params{
		WorkspaceID:    workspace.ID,
		ContactID:      th.contact.ID,
		ConversationID: th.conversation.ID,
		ContactPhone:   th.contact.Phone,
		UserMessage:    msg.Text.Body,
		Credentials:    creds,
	})
	if err != nil {
		log.Error("webhook: pipeline failed",
			"provider_message_id", msg.ProviderMessageID, "error", err)
		return MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusFailed, Err: err}
	}
	return MessageStatus{ProviderMessageID: msg.ProviderMessageID, Status: StatusProcessed}
}

func (s *Service) handleRuleMatch(ctx context.Context, workspace wsrepo.Workspace, th *thread, msg InboundMessage, creds whatsapp.Credentials, cfg wsrepo.ARIConfig, result rules.Result) {
	log := s.log.WithWorkspace(workspace.ID.String())

	if result.Response != "" && creds.Valid() {
		if err := s.sender.Send(ctx, creds, th.contact.Phone, result.Response); err != nil {
			log.Error("webhook: rule response send failed",
				"rule", result.MatchedRule, "error", err)
		} else if _, err := s.conversations.Append(ctx, convrepo.Message{
			WorkspaceID:    workspace.ID,
			ConversationID: th.conversation.ID,
			Direction:      convrepo.DirectionOutbound,
			SenderType:     convrepo.SenderAI,
			MessageType:    "text",
			Content:        result.Response,
		}); err != nil {
			log.Error("webhook: rule response persist failed", "error", err)
		}
	}

	if !result.ShouldHandoff {
		return
	}

	if err := s.conversations.SetState(ctx, th.conversation.ID, domain.StateHandoff); err != nil {
		log.Error("webhook: rule handoff state change failed",
			"conversation_id", th.conversation.ID.String(), "error", err)
	}

	score := th.contact.LeadScore
	temperature := domain.Temperature(th.contact.LeadTemperature)
	if temperature == "" {
		temperature = domain.TemperatureCold
	}
	_, _, err := s.handoffs.Execute(ctx, handoff.Params{
		WorkspaceID:     workspace.ID,
		ContactID:       th.contact.ID,
		ConversationID:  th.conversation.ID,
		ContactName:     th.contact.Name,
		ConsultantEmail: cfg.ConsultantEmail,
		Type:            handoff.TypeConsultation,
		Temperature:     temperature,
		Score:           score,
		Summary: handoff.SummaryInput{
			UserMessages: []string{msg.Text.Body},
			TotalCount:   1,
			Form:         th.contact.FormData,
			Score:        &score,
			Temperature:  temperature,
		},
	})
	if err != nil {
		log.Error("webhook: rule handoff failed",
			"conversation_id", th.conversation.ID.String(), "error", err)
	}
}

func (s *Service) archiveMedia(ctx context.Context, workspaceID uuid.UUID, msg InboundMessage) {
	if s.archiver == nil {
		return
	}
	url := msg.MediaURL()
	if url == "" {
		return
	}
	mimeType := ""
	switch msg.Type {
	case KindImage:
		mimeType = msg.Image.MimeType
	case KindAudio:
		mimeType = msg.Audio.MimeType
	case KindVideo:
		mimeType = msg.Video.MimeType
	case KindDocument:
		mimeType = msg.Document.MimeType
	}
	key, err := s.archiver.Archive(ctx, workspaceID, msg.ProviderMessageID, url, mimeType)
	if err != nil {
		s.log.Warn("webhook: media archival failed",
			"provider_message_id", msg.ProviderMessageID, "error", err)
		return
	}
	s.log.Debug("webhook: media archived",
		"provider_message_id", msg.ProviderMessageID, "key", key)
}

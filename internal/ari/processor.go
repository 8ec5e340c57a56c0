// Package ari orchestrates the qualification engine: for each inbound
// message it scores the lead, consults the routing policy and state
// machine, generates the assistant reply, and fires the handoff or
// scheduling flows when a conversation reaches them.
package ari

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apptrepo "wacrm_backend/internal/appointments/repository"
	apptsvc "wacrm_backend/internal/appointments/service"
	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/ari/handoff"
	"wacrm_backend/internal/ari/knowledge"
	"wacrm_backend/internal/ari/prompt"
	"wacrm_backend/internal/ari/qualification"
	"wacrm_backend/internal/ari/routing"
	"wacrm_backend/internal/ari/scoring"
	"wacrm_backend/internal/ari/statemachine"
	contactsrepo "wacrm_backend/internal/contacts/repository"
	convrepo "wacrm_backend/internal/conversations/repository"
	"wacrm_backend/internal/events"
	"wacrm_backend/internal/whatsapp"
	wsrepo "wacrm_backend/internal/workspaces/repository"
	"wacrm_backend/platform/ai"
	"wacrm_backend/platform/logger"
)

// ConversationStore is the conversation persistence surface the processor
// needs. Satisfied by the conversations repository.
type ConversationStore interface {
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (convrepo.Conversation, error)
	SetState(ctx context.Context, conversationID uuid.UUID, state domain.State) error
	SetPendingDocument(ctx context.Context, conversationID uuid.UUID, key *string) error
	SetSchedulingDay(ctx context.Context, conversationID uuid.UUID, day *int) error
	UpdatePreview(ctx context.Context, conversationID uuid.UUID, preview string, at time.Time) error
	Append(ctx context.Context, msg convrepo.Message) (convrepo.Message, error)
	ListRecent(ctx context.Context, conversationID uuid.UUID, limit int) ([]convrepo.Message, error)
}

// ContactStore reads and updates the lead profile.
type ContactStore interface {
	Get(ctx context.Context, workspaceID, id uuid.UUID) (contactsrepo.Contact, error)
	SaveFormData(ctx context.Context, workspaceID, id uuid.UUID, formData domain.FormData, docs *domain.DocumentStatus) (contactsrepo.Contact, error)
	SaveScore(ctx context.Context, contact contactsrepo.Contact, result domain.ScoreResult, temperature domain.Temperature) error
}

// ConfigSource resolves per-workspace agent and scoring settings.
type ConfigSource interface {
	EffectiveARIConfig(ctx context.Context, workspaceID uuid.UUID) (wsrepo.ARIConfig, error)
	EffectiveScoringConfig(ctx context.Context, workspaceID uuid.UUID) (wsrepo.ScoringConfig, error)
}

// KnowledgeSource looks up destination data for university questions.
type KnowledgeSource interface {
	ForCountry(ctx context.Context, workspaceID uuid.UUID, country string) ([]knowledge.Destination, error)
}

// HandoffExecutor runs the handoff protocol exactly once per episode.
type HandoffExecutor interface {
	Execute(ctx context.Context, p handoff.Params) (summary string, claimed bool, err error)
}

// Scheduler is the slot surface used by the scheduling dialog.
type Scheduler interface {
	AvailableSlots(ctx context.Context, workspaceID uuid.UUID, daysAhead int) ([]apptsvc.AvailableSlot, error)
	SlotsForDay(ctx context.Context, workspaceID uuid.UUID, dayOfWeek, daysAhead int) ([]apptsvc.AvailableSlot, error)
	Book(ctx context.Context, p apptsvc.BookParams) (apptrepo.Appointment, error)
}

// Responder generates the assistant reply. It never fails; errors inside
// degrade to the fallback message.
type Responder interface {
	Generate(ctx context.Context, contactID string, grokWeight int, messages []ai.Message, opts ai.Options) *ai.Result
}

// Sender delivers outbound messages.
type Sender interface {
	Send(ctx context.Context, creds whatsapp.Credentials, phoneNumber, message string) error
}

// Processor drives the per-message qualification pipeline.
type Processor struct {
	conversations ConversationStore
	contacts      ContactStore
	configs       ConfigSource
	knowledge     KnowledgeSource
	handoffs      HandoffExecutor
	scheduler     Scheduler
	responder     Responder
	sender        Sender
	bus           events.Bus
	log           *logger.Logger
}

// NewProcessor wires the pipeline.
func NewProcessor(
	conversations ConversationStore,
	contacts ContactStore,
	configs ConfigSource,
	knowledgeStore KnowledgeSource,
	handoffs HandoffExecutor,
	scheduler Scheduler,
	responder Responder,
	sender Sender,
	bus events.Bus,
	log *logger.Logger,
) *Processor {
	return &Processor{
		conversations: conversations,
		contacts:      contacts,
		configs:       configs,
		knowledge:     knowledgeStore,
		handoffs:      handoffs,
		scheduler:     scheduler,
		responder:     responder,
		sender:        sender,
		bus:           bus,
		log:           log,
	}
}

// Params describes one inbound text message, already persisted by the
// ingestion pipeline.
type Params struct {
	WorkspaceID    uuid.UUID
	ContactID      uuid.UUID
	ConversationID uuid.UUID
	ContactPhone   string
	UserMessage    string
	Credentials    whatsapp.Credentials
}

// Result reports what the pipeline did with the message.
type Result struct {
	Response string
	Model    string
	NewState domain.State
}

func weightsOf(cfg wsrepo.ScoringConfig) domain.Weights {
	return domain.Weights{
		HotThreshold:             cfg.HotThreshold,
		WarmThreshold:            cfg.WarmThreshold,
		NameWeight:               cfg.NameWeight,
		EmailWeight:              cfg.EmailWeight,
		ValidEmailBonus:          cfg.ValidEmailBonus,
		QualificationFieldWeight: cfg.QualificationFieldWeight,
		TimelinePenalty:          cfg.TimelinePenalty,
		IELTSBonus:               cfg.IELTSBonus,
		DocumentWeight:           cfg.DocumentWeight,
		DefaultEngagement:        cfg.DefaultEngagement,
		AutoHandoffMessageLimit:  cfg.AutoHandoffMessageLimit,
		WarmHandoffMessageLimit:  cfg.WarmHandoffMessageLimit,
	}
}

// Process runs the full pipeline for one message. It always tries to get
// some reply to the lead; persistent failures surface as the returned
// error for the caller to log.
func (p *Processor) Process(ctx context.Context, params Params) (Result, error) {
	log := p.log.WithWorkspace(params.WorkspaceID.String())

	conv, err := p.conversations.GetByID(ctx, params.WorkspaceID, params.ConversationID)
	if err != nil {
		return Result{}, fmt.Errorf("load conversation: %w", err)
	}
	contact, err := p.contacts.Get(ctx, params.WorkspaceID, params.ContactID)
	if err != nil {
		return Result{}, fmt.Errorf("load contact: %w", err)
	}
	cfg, err := p.configs.EffectiveARIConfig(ctx, params.WorkspaceID)
	if err != nil {
		return Result{}, fmt.Errorf("load agent config: %w", err)
	}
	scoringCfg, err := p.configs.EffectiveScoringConfig(ctx, params.WorkspaceID)
	if err != nil {
		return Result{}, fmt.Errorf("load scoring config: %w", err)
	}
	weights := weightsOf(scoringCfg)

	// A conversation in greeting moves to qualifying on first contact.
	if conv.State == domain.StateGreeting {
		p.transition(ctx, log, &conv, contact.ID, domain.StateQualifying, "first inbound message")
	}

	form := contact.FormData
	docs := contact.DocumentStatus

	// Consume a pending document answer before scoring so the answer
	// counts immediately. The key is only ever set during the document
	// phase, so no state check is needed.
	if conv.PendingDocumentKey != nil {
		if answer := qualification.ParseDocumentResponse(params.UserMessage); answer != nil {
			docs.SetAnswer(*conv.PendingDocumentKey, *answer)
			updated, err := p.contacts.SaveFormData(ctx, params.WorkspaceID, contact.ID, nil, &docs)
			if err != nil {
				log.Error("save document answer failed", "contact_id", contact.ID.String(), "error", err)
			} else {
				contact = updated
			}
			if err := p.conversations.SetPendingDocument(ctx, conv.ID, nil); err != nil {
				log.Error("clear pending document failed", "conversation_id", conv.ID.String(), "error", err)
			}
			conv.PendingDocumentKey = nil
		}
	}

	scoreResult := scoring.Score(form, docs, nil, weights)
	temperature := weights.TemperatureFor(scoreResult.Score)

	if err := p.contacts.SaveScore(ctx, contact, scoreResult, temperature); err != nil {
		log.Error("persist score failed", "contact_id", contact.ID.String(), "error", err)
	}

	// Stuck-conversation safeguard: too many messages without progress
	// forces a handoff regardless of score. The in-state counter already
	// includes this message; the ingestion layer bumps it before invoking
	// the pipeline.
	if statemachine.ShouldAutoHandoff(conv.State, conv.MessagesInState, weights.AutoHandoffMessageLimit) {
		return p.autoHandoff(ctx, log, params, conv, contact, cfg, scoreResult, temperature)
	}

	// The scheduling dialog is deterministic; no model call needed.
	if conv.State == domain.StateScheduling {
		return p.schedulingDialog(ctx, log, params, conv, contact, cfg, scoreResult, temperature)
	}

	destinations := p.lookupDestinations(ctx, log, params, form)

	reply := p.generateReply(ctx, params, conv, contact, cfg, weights, scoreResult, destinations)

	if err := p.sendAndRecord(ctx, params, conv.ID, reply.Content, convrepo.SenderAI, map[string]interface{}{
		"ai_model":         reply.Model,
		"tokens_used":      reply.Tokens,
		"response_time_ms": reply.LatencyMs,
	}); err != nil {
		return Result{Response: reply.Content, Model: reply.Model, NewState: conv.State}, err
	}

	decision := routing.Decide(routing.Input{
		Score:              scoreResult.Score,
		Temperature:        temperature,
		Form:               form,
		Documents:          docs,
		WarmMessages:       conv.WarmMessageCount,
		WarmLimit:          weights.WarmHandoffMessageLimit,
		CommunityGroupLink: cfg.CommunityGroupLink,
	})

	nextState := statemachine.NextState(conv.State, scoreResult.Score, decision.Action, weights)

	switch decision.Action {
	case domain.ActionSendCommunityCold:
		if decision.Message != "" {
			if err := p.sendAndRecord(ctx, params, conv.ID, decision.Message, convrepo.SenderAI, nil); err != nil {
				log.Error("send community message failed", "conversation_id", conv.ID.String(), "error", err)
			}
		}
		return p.routeToHandoff(ctx, log, params, conv, contact, cfg, scoreResult, temperature, decision, handoff.ColdMessage)

	case domain.ActionHandoffHot:
		return p.routeToHandoff(ctx, log, params, conv, contact, cfg, scoreResult, temperature, decision, handoff.HotMessage)

	case domain.ActionHandoffWarm:
		return p.routeToHandoff(ctx, log, params, conv, contact, cfg, scoreResult, temperature, decision, "")
	}

	if nextState != conv.State {
		p.transition(ctx, log, &conv, contact.ID, nextState, "routing: "+string(decision.Action))

		if nextState == domain.StateScheduling {
			// Open the slot dialog right away so the lead is not left
			// hanging until their next message.
			if msg := p.openSchedulingDialog(ctx, log, params, conv.ID); msg != "" {
				_ = p.sendAndRecord(ctx, params, conv.ID, msg, convrepo.SenderAI, nil)
			}
		}
	}

	// In the document phase, remember which document the reply asked about
	// so the next inbound message can be parsed as its answer.
	inDocumentPhase := nextState == domain.StateQualifying || nextState == domain.StateScoring
	if inDocumentPhase && qualification.HasAllRequiredFields(form) && !docs.AllAsked() {
		if key := qualification.NextDocumentKey(docs); key != "" {
			if err := p.conversations.SetPendingDocument(ctx, conv.ID, &key); err != nil {
				log.Error("set pending document failed", "conversation_id", conv.ID.String(), "error", err)
			}
		}
	}

	return Result{Response: reply.Content, Model: reply.Model, NewState: nextState}, nil
}

// lookupDestinations fetches knowledge-base entries when the message looks
// like a university question. Failures degrade to an empty list.
func (p *Processor) lookupDestinations(ctx context.Context, log *logger.Logger, params Params, form domain.FormData) []knowledge.Destination {
	isQuestion, country := knowledge.DetectUniversityQuestion(params.UserMessage)
	if !isQuestion {
		return nil
	}
	if country == "" {
		country = knowledge.NormalizeCountry(form.Get("country"))
	}
	if country == "" {
		return nil
	}

	destinations, err := p.knowledge.ForCountry(ctx, params.WorkspaceID, country)
	if err != nil {
		log.Error("knowledge lookup failed", "country", country, "error", err)
		return nil
	}
	return destinations
}

func (p *Processor) generateReply(
	ctx context.Context,
	params Params,
	conv convrepo.Conversation,
	contact contactsrepo.Contact,
	cfg wsrepo.ARIConfig,
	weights domain.Weights,
	scoreResult domain.ScoreResult,
	destinations []knowledge.Destination,
) *ai.Result {
	history, err := p.conversations.ListRecent(ctx, conv.ID, prompt.DefaultHistoryLimit*2)
	if err != nil {
		p.log.Error("load history failed", "conversation_id", conv.ID.String(), "error", err)
	}

	promptCtx := prompt.Context{
		AgentName:       cfg.AgentName,
		BusinessContext: cfg.BusinessContext,
		ContactName:     contact.Name,
		Form:            contact.FormData,
		Score:           &scoreResult.Score,
		Weights:         weights,
		State:           conv.State,
		Documents:       contact.DocumentStatus,
		ScoreReasons:    scoreResult.Reasons,
		Destinations:    destinations,
	}

	// The inbound message is already persisted when the pipeline runs, so
	// the recent history normally ends with it. When it does not (history
	// load failed, or persistence raced), append it so the model always
	// sees the message it is replying to.
	hist := toHistory(history)
	if n := len(hist); n == 0 || hist[n-1].Role != "user" || hist[n-1].Content != params.UserMessage {
		hist = append(hist, prompt.HistoryMessage{Role: "user", Content: params.UserMessage})
	}

	messages := prompt.BuildChatMessages(promptCtx, hist, prompt.DefaultHistoryLimit)
	return p.responder.Generate(ctx, params.ContactID.String(), cfg.GrokWeight, messages, ai.Options{})
}

func toHistory(messages []convrepo.Message) []prompt.HistoryMessage {
	out := make([]prompt.HistoryMessage, 0, len(messages))
	for _, m := range messages {
		role := "assistant"
		if m.Direction == convrepo.DirectionInbound {
			role = "user"
		}
		out = append(out, prompt.HistoryMessage{Role: role, Content: m.Content})
	}
	return out
}

// sendAndRecord delivers a message to the lead and appends it to the
// conversation. The send happens first: a stored-but-unsent reply would
// mislead agents reading the thread.
func (p *Processor) sendAndRecord(ctx context.Context, params Params, conversationID uuid.UUID, content, senderType string, metadata map[string]interface{}) error {
	if err := p.sender.Send(ctx, params.Credentials, params.ContactPhone, content); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	msg, err := p.conversations.Append(ctx, convrepo.Message{
		WorkspaceID:    params.WorkspaceID,
		ConversationID: conversationID,
		Direction:      convrepo.DirectionOutbound,
		SenderType:     senderType,
		MessageType:    "text",
		Content:        content,
		Metadata:       metadata,
	})
	if err != nil {
		return fmt.Errorf("record reply: %w", err)
	}

	if err := p.conversations.UpdatePreview(ctx, conversationID, preview(content), msg.CreatedAt); err != nil {
		p.log.Warn("update preview failed", "conversation_id", conversationID.String(), "error", err)
	}
	return nil
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= 200 {
		return content
	}
	return string(runes[:200])
}

// transition moves the conversation, logs the change, and publishes the
// state event. The in-memory conversation is updated so later steps see
// the new state.
func (p *Processor) transition(ctx context.Context, log *logger.Logger, conv *convrepo.Conversation, contactID uuid.UUID, to domain.State, reason string) {
	if !statemachine.CanTransition(conv.State, to) {
		log.Error("blocked invalid state transition",
			"conversation_id", conv.ID.String(),
			"from", string(conv.State), "to", string(to))
		return
	}
	if err := p.conversations.SetState(ctx, conv.ID, to); err != nil {
		log.Error("set state failed", "conversation_id", conv.ID.String(), "error", err)
		return
	}

	log.StateTransition(conv.ID.String(), string(conv.State), string(to), reason)
	p.bus.Publish(ctx, events.ConversationStateChanged{
		BaseEvent:      events.NewBaseEvent(),
		WorkspaceID:    conv.WorkspaceID,
		ContactID:      contactID,
		ConversationID: conv.ID,
		OldState:       string(conv.State),
		NewState:       string(to),
		Reason:         reason,
	})

	conv.State = to
	conv.MessagesInState = 0
}

// autoHandoff forces a stuck conversation to a human.
func (p *Processor) autoHandoff(
	ctx context.Context,
	log *logger.Logger,
	params Params,
	conv convrepo.Conversation,
	contact contactsrepo.Contact,
	cfg wsrepo.ARIConfig,
	scoreResult domain.ScoreResult,
	temperature domain.Temperature,
) (Result, error) {
	log.Info("auto handoff triggered",
		"conversation_id", conv.ID.String(),
		"state", string(conv.State),
		"messages_in_state", conv.MessagesInState)

	if err := p.sendAndRecord(ctx, params, conv.ID, handoff.AutoMessage, convrepo.SenderAI, nil); err != nil {
		log.Error("send auto handoff message failed", "conversation_id", conv.ID.String(), "error", err)
	}

	p.transition(ctx, log, &conv, contact.ID, domain.StateHandoff, "auto handoff: conversation stuck")
	p.executeHandoff(ctx, log, params, conv, contact, cfg, scoreResult, temperature, handoff.TypeConsultation)

	return Result{Response: handoff.AutoMessage, NewState: domain.StateHandoff}, nil
}

// routeToHandoff finishes hot, cold, and warm-limit routings.
func (p *Processor) routeToHandoff(
	ctx context.Context,
	log *logger.Logger,
	params Params,
	conv convrepo.Conversation,
	contact contactsrepo.Contact,
	cfg wsrepo.ARIConfig,
	scoreResult domain.ScoreResult,
	temperature domain.Temperature,
	decision routing.Decision,
	farewell string,
) (Result, error) {
	if farewell != "" {
		if err := p.sendAndRecord(ctx, params, conv.ID, farewell, convrepo.SenderAI, nil); err != nil {
			log.Error("send handoff message failed", "conversation_id", conv.ID.String(), "error", err)
		}
	}

	p.transition(ctx, log, &conv, contact.ID, domain.StateHandoff, "routing: "+string(decision.Action))
	p.executeHandoff(ctx, log, params, conv, contact, cfg, scoreResult, temperature, handoff.TypeFor(decision.Action))

	return Result{Response: farewell, NewState: domain.StateHandoff}, nil
}

func (p *Processor) executeHandoff(
	ctx context.Context,
	log *logger.Logger,
	params Params,
	conv convrepo.Conversation,
	contact contactsrepo.Contact,
	cfg wsrepo.ARIConfig,
	scoreResult domain.ScoreResult,
	temperature domain.Temperature,
	consultationType handoff.ConsultationType,
) {
	history, err := p.conversations.ListRecent(ctx, conv.ID, 50)
	if err != nil {
		log.Error("load history for summary failed", "conversation_id", conv.ID.String(), "error", err)
	}
	var userMessages []string
	for _, m := range history {
		if m.Direction == convrepo.DirectionInbound {
			userMessages = append(userMessages, m.Content)
		}
	}

	_, _, err = p.handoffs.Execute(ctx, handoff.Params{
		WorkspaceID:     params.WorkspaceID,
		ContactID:       contact.ID,
		ConversationID:  conv.ID,
		ContactName:     contact.Name,
		ConsultantEmail: cfg.ConsultantEmail,
		Type:            consultationType,
		Temperature:     temperature,
		Score:           scoreResult.Score,
		Summary: handoff.SummaryInput{
			UserMessages: userMessages,
			TotalCount:   len(history),
			Form:         contact.FormData,
			Score:        &scoreResult.Score,
			Temperature:  temperature,
		},
	})
	if err != nil {
		log.Error("handoff execution failed", "conversation_id", conv.ID.String(), "error", err)
	}
}

// openSchedulingDialog loads availability and returns the opening message
// of the slot dialog.
func (p *Processor) openSchedulingDialog(ctx context.Context, log *logger.Logger, params Params, conversationID uuid.UUID) string {
	slots, err := p.scheduler.AvailableSlots(ctx, params.WorkspaceID, apptsvc.DefaultBookingWindowDays)
	if err != nil {
		log.Error("load availability failed", "conversation_id", conversationID.String(), "error", err)
		return ""
	}
	return apptsvc.FormatAvailableDays(slots)
}

// schedulingDialog walks the lead through day choice, slot choice, and
// booking. Each inbound message advances at most one step.
func (p *Processor) schedulingDialog(
	ctx context.Context,
	log *logger.Logger,
	params Params,
	conv convrepo.Conversation,
	contact contactsrepo.Contact,
	cfg wsrepo.ARIConfig,
	scoreResult domain.ScoreResult,
	temperature domain.Temperature,
) (Result, error) {
	// A day name always (re)starts slot listing, even after one was chosen.
	if day := apptsvc.ParseDayName(params.UserMessage); day >= 0 {
		return p.showSlotsForDay(ctx, log, params, conv, day)
	}

	if conv.SchedulingDay != nil {
		slots, err := p.scheduler.SlotsForDay(ctx, params.WorkspaceID, *conv.SchedulingDay, apptsvc.DefaultBookingWindowDays)
		if err != nil {
			return Result{}, fmt.Errorf("load day slots: %w", err)
		}

		if idx := apptsvc.ParseSlotSelection(params.UserMessage, slots); idx >= 0 {
			return p.bookSlot(ctx, log, params, conv, contact, cfg, scoreResult, temperature, slots[idx])
		}
	}

	// Not a day, not a selection: show (or re-show) the available days.
	msg := p.openSchedulingDialog(ctx, log, params, conv.ID)
	if msg == "" {
		msg = "Maaf, tidak ada jadwal konsultasi yang tersedia saat ini."
	}
	if err := p.sendAndRecord(ctx, params, conv.ID, msg, convrepo.SenderAI, nil); err != nil {
		return Result{}, err
	}
	return Result{Response: msg, NewState: conv.State}, nil
}

func (p *Processor) showSlotsForDay(ctx context.Context, log *logger.Logger, params Params, conv convrepo.Conversation, day int) (Result, error) {
	slots, err := p.scheduler.SlotsForDay(ctx, params.WorkspaceID, day, apptsvc.DefaultBookingWindowDays)
	if err != nil {
		return Result{}, fmt.Errorf("load day slots: %w", err)
	}

	msg := apptsvc.FormatSlotsForDay(slots)
	if len(slots) > 0 {
		if err := p.conversations.SetSchedulingDay(ctx, conv.ID, &day); err != nil {
			log.Error("set scheduling day failed", "conversation_id", conv.ID.String(), "error", err)
		}
	}

	if err := p.sendAndRecord(ctx, params, conv.ID, msg, convrepo.SenderAI, nil); err != nil {
		return Result{}, err
	}
	return Result{Response: msg, NewState: conv.State}, nil
}

func (p *Processor) bookSlot(
	ctx context.Context,
	log *logger.Logger,
	params Params,
	conv convrepo.Conversation,
	contact contactsrepo.Contact,
	cfg wsrepo.ARIConfig,
	scoreResult domain.ScoreResult,
	temperature domain.Temperature,
	slot apptsvc.AvailableSlot,
) (Result, error) {
	conversationID := conv.ID
	_, err := p.scheduler.Book(ctx, apptsvc.BookParams{
		WorkspaceID:     params.WorkspaceID,
		ContactID:       contact.ID,
		ConversationID:  &conversationID,
		Slot:            slot,
		Notes:           fmt.Sprintf("Booked via ARI. Lead score: %d", scoreResult.Score),
		ContactName:     contact.Name,
		ContactPhone:    params.ContactPhone,
		ConsultantEmail: cfg.ConsultantEmail,
	})
	if err != nil {
		// Most likely a lost race for the slot; re-show the day.
		log.Warn("booking failed, re-listing slots", "conversation_id", conv.ID.String(), "error", err)
		msg := "Waduh, slot itu baru saja terisi. Coba pilih waktu lain ya kak."
		if sendErr := p.sendAndRecord(ctx, params, conv.ID, msg, convrepo.SenderAI, nil); sendErr != nil {
			return Result{}, sendErr
		}
		return Result{Response: msg, NewState: conv.State}, nil
	}

	if err := p.conversations.SetSchedulingDay(ctx, conv.ID, nil); err != nil {
		log.Error("clear scheduling day failed", "conversation_id", conv.ID.String(), "error", err)
	}

	confirmation := apptsvc.BookingConfirmation(slot)
	if err := p.sendAndRecord(ctx, params, conv.ID, confirmation, convrepo.SenderAI, nil); err != nil {
		log.Error("send booking confirmation failed", "conversation_id", conv.ID.String(), "error", err)
	}

	p.transition(ctx, log, &conv, contact.ID, domain.StateHandoff, "appointment booked")
	p.executeHandoff(ctx, log, params, conv, contact, cfg, scoreResult, temperature, handoff.TypeConsultation)

	return Result{Response: confirmation, NewState: domain.StateHandoff}, nil
}

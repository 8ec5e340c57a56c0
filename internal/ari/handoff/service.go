package handoff

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/email"
	"wacrm_backend/internal/events"
	"wacrm_backend/platform/logger"
)

// Claimer marks a conversation as handed off, returning false when
// another trigger already claimed it.
type Claimer interface {
	ClaimHandoff(ctx context.Context, conversationID uuid.UUID, summary string) (bool, error)
}

// Tagger records consultation tags on the contact.
type Tagger interface {
	AddTags(ctx context.Context, workspaceID, contactID uuid.UUID, tags []string) error
}

// Notifier records an in-app notification for the workspace team.
type Notifier interface {
	NotifyHandoff(ctx context.Context, workspaceID, contactID uuid.UUID, contactName, summary string) error
}

// Params describes one handoff request.
type Params struct {
	WorkspaceID    uuid.UUID
	ContactID      uuid.UUID
	ConversationID uuid.UUID
	ContactName    string
	// ConsultantEmail receives the email alert; empty disables it.
	ConsultantEmail string
	Type            ConsultationType
	Temperature     domain.Temperature
	Score           int
	Summary         SummaryInput
}

// Service performs the handoff side effects around the claim.
type Service struct {
	conversations Claimer
	contacts      Tagger
	notifier      Notifier
	mailer        email.Sender
	bus           events.Bus
	log           *logger.Logger
}

// NewService wires the handoff orchestrator.
func NewService(conversations Claimer, contacts Tagger, notifier Notifier, mailer email.Sender, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		conversations: conversations,
		contacts:      contacts,
		notifier:      notifier,
		mailer:        mailer,
		bus:           bus,
		log:           log,
	}
}

// Execute claims the handoff and runs the side effects. It returns the
// generated summary and whether this call won the claim; a lost claim is
// not an error, the conversation was simply handed off already.
func (s *Service) Execute(ctx context.Context, p Params) (summary string, claimed bool, err error) {
	summary = Summarize(p.Summary)

	claimed, err = s.conversations.ClaimHandoff(ctx, p.ConversationID, summary)
	if err != nil {
		return "", false, err
	}
	if !claimed {
		s.log.Debug("handoff already claimed",
			"conversation_id", p.ConversationID.String())
		return summary, false, nil
	}

	log := s.log.WithWorkspace(p.WorkspaceID.String())

	if err := s.contacts.AddTags(ctx, p.WorkspaceID, p.ContactID, []string{p.Type.Tag()}); err != nil {
		log.Error("handoff: tag contact failed",
			"contact_id", p.ContactID.String(), "error", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyHandoff(ctx, p.WorkspaceID, p.ContactID, p.ContactName, summary); err != nil {
			log.Error("handoff: in-app notification failed",
				"contact_id", p.ContactID.String(), "error", err)
		}
	}

	if p.ConsultantEmail != "" {
		// Email delivery must not block or fail the handoff itself.
		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 20*time.Second)
		go func() {
			defer cancel()
			if err := s.mailer.SendHandoffNotification(mailCtx, p.ConsultantEmail, p.ContactName, string(p.Temperature), p.Score, summary); err != nil {
				log.Error("handoff: consultant email failed",
					"contact_id", p.ContactID.String(), "error", err)
			}
		}()
	}

	s.bus.Publish(ctx, events.ConversationHandedOff{
		BaseEvent:      events.NewBaseEvent(),
		WorkspaceID:    p.WorkspaceID,
		ContactID:      p.ContactID,
		ConversationID: p.ConversationID,
		Temperature:    string(p.Temperature),
		Score:          p.Score,
		Summary:        summary,
		Tags:           []string{p.Type.Tag()},
	})

	return summary, true, nil
}

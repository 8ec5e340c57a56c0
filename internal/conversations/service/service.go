// Package service implements conversation and message business logic.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/ari/domain"
	contactsrepo "wacrm_backend/internal/contacts/repository"
	"wacrm_backend/internal/conversations/repository"
	"wacrm_backend/internal/conversations/transport"
	"wacrm_backend/internal/events"
	"wacrm_backend/internal/whatsapp"
	"wacrm_backend/platform/logger"
)

// ContactGetter resolves contacts for outbound sends.
type ContactGetter interface {
	Get(ctx context.Context, workspaceID, id uuid.UUID) (contactsrepo.Contact, error)
}

// CredentialSource resolves per-workspace messaging provider credentials.
type CredentialSource interface {
	SendCredentials(ctx context.Context, workspaceID uuid.UUID) (whatsapp.Credentials, error)
}

// Sender delivers outbound messages through the messaging provider.
type Sender interface {
	Send(ctx context.Context, creds whatsapp.Credentials, phoneNumber, message string) error
}

// Service provides business logic for conversations.
type Service struct {
	repo     repository.Repository
	contacts ContactGetter
	creds    CredentialSource
	sender   Sender
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new conversations service.
func New(repo repository.Repository, contacts ContactGetter, creds CredentialSource, sender Sender, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		contacts: contacts,
		creds:    creds,
		sender:   sender,
		bus:      bus,
		log:      log,
	}
}

// Repository exposes the underlying store for the ingestion pipeline.
func (s *Service) Repository() repository.Repository {
	return s.repo
}

// List retrieves conversations for the dashboard.
func (s *Service) List(ctx context.Context, workspaceID uuid.UUID, req transport.ListConversationsRequest) (transport.ConversationListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	items, total, err := s.repo.List(ctx, repository.ListParams{
		WorkspaceID: workspaceID,
		State:       req.State,
		Offset:      (page - 1) * pageSize,
		Limit:       pageSize,
	})
	if err != nil {
		return transport.ConversationListResponse{}, err
	}

	out := transport.ConversationListResponse{
		Items:    make([]transport.ConversationResponse, 0, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, c := range items {
		out.Items = append(out.Items, toConversationResponse(c))
	}
	return out, nil
}

// Get retrieves a single conversation.
func (s *Service) Get(ctx context.Context, workspaceID, id uuid.UUID) (transport.ConversationResponse, error) {
	c, err := s.repo.GetByID(ctx, workspaceID, id)
	if err != nil {
		return transport.ConversationResponse{}, err
	}
	return toConversationResponse(c), nil
}

// Messages retrieves a message page for a conversation.
func (s *Service) Messages(ctx context.Context, workspaceID, conversationID uuid.UUID, page, pageSize int) (transport.MessageListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	items, total, err := s.repo.ListByConversation(ctx, workspaceID, conversationID, (page-1)*pageSize, pageSize)
	if err != nil {
		return transport.MessageListResponse{}, err
	}

	out := transport.MessageListResponse{
		Items:    make([]transport.MessageResponse, 0, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, m := range items {
		out.Items = append(out.Items, toMessageResponse(m))
	}
	return out, nil
}

// MarkRead clears the unread counter after an agent opens the thread.
func (s *Service) MarkRead(ctx context.Context, workspaceID, conversationID uuid.UUID) error {
	return s.repo.MarkRead(ctx, workspaceID, conversationID)
}

// SendAgentMessage delivers a manual reply from a human agent and stores it.
func (s *Service) SendAgentMessage(ctx context.Context, workspaceID, conversationID uuid.UUID, content string) (transport.MessageResponse, error) {
	conv, err := s.repo.GetByID(ctx, workspaceID, conversationID)
	if err != nil {
		return transport.MessageResponse{}, err
	}
	contact, err := s.contacts.Get(ctx, workspaceID, conv.ContactID)
	if err != nil {
		return transport.MessageResponse{}, err
	}
	creds, err := s.creds.SendCredentials(ctx, workspaceID)
	if err != nil {
		return transport.MessageResponse{}, err
	}

	if err := s.sender.Send(ctx, creds, contact.Phone, content); err != nil {
		return transport.MessageResponse{}, err
	}

	msg, err := s.repo.Append(ctx, repository.Message{
		WorkspaceID:    workspaceID,
		ConversationID: conversationID,
		Direction:      repository.DirectionOutbound,
		SenderType:     repository.SenderAgent,
		MessageType:    "text",
		Content:        content,
	})
	if err != nil {
		return transport.MessageResponse{}, err
	}

	if err := s.repo.UpdatePreview(ctx, conversationID, previewOf(content), msg.CreatedAt); err != nil {
		s.log.Warn("update preview failed", "conversation_id", conversationID, "error", err)
	}
	return toMessageResponse(msg), nil
}

// ResetEpisode returns a conversation to the start of the qualification
// journey, clearing handoff bookkeeping.
func (s *Service) ResetEpisode(ctx context.Context, workspaceID, conversationID uuid.UUID) error {
	conv, err := s.repo.GetByID(ctx, workspaceID, conversationID)
	if err != nil {
		return err
	}
	if err := s.repo.ResetEpisode(ctx, workspaceID, conversationID); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.ConversationStateChanged{
		BaseEvent:      events.NewBaseEvent(),
		WorkspaceID:    workspaceID,
		ContactID:      conv.ContactID,
		ConversationID: conversationID,
		OldState:       string(conv.State),
		NewState:       string(domain.StateGreeting),
		Reason:         "episode reset",
	})
	return nil
}

// previewOf truncates content to the stored preview length.
func previewOf(content string) string {
	runes := []rune(content)
	if len(runes) <= 200 {
		return content
	}
	return string(runes[:200])
}

func toConversationResponse(c repository.Conversation) transport.ConversationResponse {
	out := transport.ConversationResponse{
		ID:                 c.ID,
		WorkspaceID:        c.WorkspaceID,
		ContactID:          c.ContactID,
		State:              string(c.State),
		UnreadCount:        c.UnreadCount,
		LastMessagePreview: c.LastMessagePreview,
		HandoffSummary:     c.HandoffSummary,
		CreatedAt:          c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          c.UpdatedAt.Format(time.RFC3339),
	}
	if c.LastMessageAt != nil {
		v := c.LastMessageAt.Format(time.RFC3339)
		out.LastMessageAt = &v
	}
	if c.HandoffAt != nil {
		v := c.HandoffAt.Format(time.RFC3339)
		out.HandoffAt = &v
	}
	return out
}

func toMessageResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:                m.ID,
		ConversationID:    m.ConversationID,
		Direction:         m.Direction,
		SenderType:        m.SenderType,
		MessageType:       m.MessageType,
		Content:           m.Content,
		ProviderMessageID: m.ProviderMessageID,
		MediaURL:          m.MediaURL,
		Metadata:          m.Metadata,
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
	}
}

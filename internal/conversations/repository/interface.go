package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/ari/domain"
)

// Conversation is the single active thread between a workspace and a contact.
type Conversation struct {
	ID                 uuid.UUID    `db:"id"`
	WorkspaceID        uuid.UUID    `db:"workspace_id"`
	ContactID          uuid.UUID    `db:"contact_id"`
	State              domain.State `db:"state"`
	UnreadCount        int          `db:"unread_count"`
	LastMessagePreview string       `db:"last_message_preview"`
	LastMessageAt      *time.Time   `db:"last_message_at"`
	// MessagesInState counts inbound messages since the last state change.
	// Drives the stuck-conversation auto handoff safeguard.
	MessagesInState int `db:"messages_in_state"`
	// WarmMessageCount counts inbound messages exchanged while the lead was
	// warm. Reset only on state reset.
	WarmMessageCount int `db:"warm_message_count"`
	// PendingDocumentKey is the document the agent asked about last, awaiting
	// a yes/no style answer.
	PendingDocumentKey *string `db:"pending_document_key"`
	// SchedulingDay is the weekday (0-6) the lead picked during the slot
	// dialog, nil until a day is chosen.
	SchedulingDay *int `db:"scheduling_day"`
	// HandoffSummary is set exactly once per handoff episode and gates
	// duplicate handoff notifications.
	HandoffSummary *string    `db:"handoff_summary"`
	HandoffAt      *time.Time `db:"handoff_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Message direction and sender classification.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	SenderContact = "contact"
	SenderAgent   = "agent"
	SenderAI      = "ai"
)

// Message is an immutable chat message. Append-only once stored.
type Message struct {
	ID                uuid.UUID              `db:"id"`
	WorkspaceID       uuid.UUID              `db:"workspace_id"`
	ConversationID    uuid.UUID              `db:"conversation_id"`
	Direction         string                 `db:"direction"`
	SenderType        string                 `db:"sender_type"`
	MessageType       string                 `db:"message_type"`
	Content           string                 `db:"content"`
	ProviderMessageID *string                `db:"provider_message_id"`
	ReplyToProviderID *string                `db:"reply_to_provider_id"`
	MediaURL          *string                `db:"media_url"`
	Metadata          map[string]interface{} `db:"metadata"`
	CreatedAt         time.Time              `db:"created_at"`
}

// ListParams filter the conversation list.
type ListParams struct {
	WorkspaceID uuid.UUID
	State       *string
	Offset      int
	Limit       int
}

// ConversationStore provides conversation persistence.
type ConversationStore interface {
	// FindOrCreate resolves the active conversation for a contact, creating
	// it lazily on first message. Safe to race.
	FindOrCreate(ctx context.Context, workspaceID, contactID uuid.UUID) (Conversation, error)
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (Conversation, error)
	List(ctx context.Context, params ListParams) ([]Conversation, int, error)
	// SetState moves the conversation to a new state, resetting the
	// in-state message counter.
	SetState(ctx context.Context, conversationID uuid.UUID, state domain.State) error
	// IncrementUnread atomically bumps unread_count and trackers; callers
	// must never read-modify-write these counters.
	IncrementUnread(ctx context.Context, conversationID uuid.UUID, n int, warm bool) error
	MarkRead(ctx context.Context, workspaceID, conversationID uuid.UUID) error
	UpdatePreview(ctx context.Context, conversationID uuid.UUID, preview string, at time.Time) error
	SetPendingDocument(ctx context.Context, conversationID uuid.UUID, key *string) error
	SetSchedulingDay(ctx context.Context, conversationID uuid.UUID, day *int) error
	// ClaimHandoff records the handoff summary if and only if the current
	// episode has none yet. Returns false when a summary already exists,
	// making the handoff protocol idempotent.
	ClaimHandoff(ctx context.Context, conversationID uuid.UUID, summary string) (bool, error)
	// ResetEpisode clears handoff bookkeeping and counters so a conversation
	// can be re-qualified from scratch.
	ResetEpisode(ctx context.Context, workspaceID, conversationID uuid.UUID) error
}

// MessageStore provides append-only message persistence.
type MessageStore interface {
	ExistsByProviderID(ctx context.Context, workspaceID uuid.UUID, providerID string) (bool, error)
	Append(ctx context.Context, msg Message) (Message, error)
	ListRecent(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error)
	ListByConversation(ctx context.Context, workspaceID, conversationID uuid.UUID, offset, limit int) ([]Message, int, error)
}

// Repository combines conversation and message operations.
type Repository interface {
	ConversationStore
	MessageStore
}

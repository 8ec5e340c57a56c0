package transport

import "github.com/google/uuid"

// ListConversationsRequest filters the conversation list.
type ListConversationsRequest struct {
	State    *string `form:"state" validate:"omitempty,oneof=greeting qualifying scoring booking payment scheduling handoff completed"`
	Page     int     `form:"page" validate:"omitempty,min=1"`
	PageSize int     `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ConversationResponse represents a conversation in API responses.
type ConversationResponse struct {
	ID                 uuid.UUID `json:"id"`
	WorkspaceID        uuid.UUID `json:"workspaceId"`
	ContactID          uuid.UUID `json:"contactId"`
	State              string    `json:"state"`
	UnreadCount        int       `json:"unreadCount"`
	LastMessagePreview string    `json:"lastMessagePreview,omitempty"`
	LastMessageAt      *string   `json:"lastMessageAt,omitempty"`
	HandoffAt          *string   `json:"handoffAt,omitempty"`
	HandoffSummary     *string   `json:"handoffSummary,omitempty"`
	CreatedAt          string    `json:"createdAt"`
	UpdatedAt          string    `json:"updatedAt"`
}

// ConversationListResponse wraps a paginated conversation list.
type ConversationListResponse struct {
	Items    []ConversationResponse `json:"items"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}

// MessageResponse represents a stored message in API responses.
type MessageResponse struct {
	ID                uuid.UUID              `json:"id"`
	ConversationID    uuid.UUID              `json:"conversationId"`
	Direction         string                 `json:"direction"`
	SenderType        string                 `json:"senderType"`
	MessageType       string                 `json:"messageType"`
	Content           string                 `json:"content"`
	ProviderMessageID *string                `json:"providerMessageId,omitempty"`
	MediaURL          *string                `json:"mediaUrl,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt         string                 `json:"createdAt"`
}

// MessageListResponse wraps a paginated message page.
type MessageListResponse struct {
	Items    []MessageResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// SendMessageRequest is a manual agent reply from the dashboard.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4096"`
}

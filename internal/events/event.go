// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"wacrm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Conversation Domain Events
// =============================================================================

// MessageReceived is published after an inbound WhatsApp message has been
// persisted. The qualification pipeline reacts to it asynchronously.
type MessageReceived struct {
	BaseEvent
	WorkspaceID       uuid.UUID `json:"workspaceId"`
	ContactID         uuid.UUID `json:"contactId"`
	ConversationID    uuid.UUID `json:"conversationId"`
	MessageID         uuid.UUID `json:"messageId"`
	ProviderMessageID string    `json:"providerMessageId"`
	MessageType       string    `json:"messageType"`
	Content           string    `json:"content"`
}

func (e MessageReceived) EventName() string { return "conversations.message.received" }

// ConversationStateChanged is published when the qualification state machine
// moves a conversation to a new state.
type ConversationStateChanged struct {
	BaseEvent
	WorkspaceID    uuid.UUID `json:"workspaceId"`
	ContactID      uuid.UUID `json:"contactId"`
	ConversationID uuid.UUID `json:"conversationId"`
	OldState       string    `json:"oldState"`
	NewState       string    `json:"newState"`
	Reason         string    `json:"reason,omitempty"`
}

func (e ConversationStateChanged) EventName() string { return "conversations.state.changed" }

// ConversationHandedOff is published exactly once per conversation episode
// when a lead is routed to a human consultant.
type ConversationHandedOff struct {
	BaseEvent
	WorkspaceID    uuid.UUID `json:"workspaceId"`
	ContactID      uuid.UUID `json:"contactId"`
	ConversationID uuid.UUID `json:"conversationId"`
	Temperature    string    `json:"temperature"`
	Score          int       `json:"score"`
	Summary        string    `json:"summary"`
	Tags           []string  `json:"tags,omitempty"`
}

func (e ConversationHandedOff) EventName() string { return "conversations.handed_off" }

// =============================================================================
// Contact Domain Events
// =============================================================================

// ContactScoreUpdated is published when a recomputed lead score is persisted.
type ContactScoreUpdated struct {
	BaseEvent
	WorkspaceID uuid.UUID `json:"workspaceId"`
	ContactID   uuid.UUID `json:"contactId"`
	OldScore    int       `json:"oldScore"`
	NewScore    int       `json:"newScore"`
	Temperature string    `json:"temperature"`
	LeadStatus  string    `json:"leadStatus"`
}

func (e ContactScoreUpdated) EventName() string { return "contacts.score.updated" }

// ContactsMerged is published after a duplicate contact has been merged into
// the kept contact and deleted.
type ContactsMerged struct {
	BaseEvent
	WorkspaceID     uuid.UUID `json:"workspaceId"`
	KeptContactID   uuid.UUID `json:"keptContactId"`
	MergedContactID uuid.UUID `json:"mergedContactId"`
}

func (e ContactsMerged) EventName() string { return "contacts.merged" }

// =============================================================================
// Appointment Domain Events
// =============================================================================

// AppointmentBooked is published when a lead books a consultation slot.
type AppointmentBooked struct {
	BaseEvent
	WorkspaceID    uuid.UUID `json:"workspaceId"`
	AppointmentID  uuid.UUID `json:"appointmentId"`
	ContactID      uuid.UUID `json:"contactId"`
	ConversationID uuid.UUID `json:"conversationId"`
	SlotID         uuid.UUID `json:"slotId"`
	ConsultantName string    `json:"consultantName"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
}

func (e AppointmentBooked) EventName() string { return "appointments.booked" }

// AppointmentReminderDue is published by the scheduler when a reminder
// should be sent ahead of a consultation.
type AppointmentReminderDue struct {
	BaseEvent
	WorkspaceID   uuid.UUID `json:"workspaceId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	ContactID     uuid.UUID `json:"contactId"`
	ContactPhone  string    `json:"contactPhone"`
	StartTime     time.Time `json:"startTime"`
}

func (e AppointmentReminderDue) EventName() string { return "appointments.reminder.due" }

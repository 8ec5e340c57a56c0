package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/ari/domain"
)

// Contact represents a lead reachable over WhatsApp within one workspace.
type Contact struct {
	ID              uuid.UUID             `db:"id"`
	WorkspaceID     uuid.UUID             `db:"workspace_id"`
	Phone           string                `db:"phone"`
	NormalizedPhone string                `db:"normalized_phone"`
	Name            string                `db:"name"`
	FormData        domain.FormData       `db:"form_data"`
	DocumentStatus  domain.DocumentStatus `db:"document_status"`
	LeadScore       int                   `db:"lead_score"`
	LeadTemperature string                `db:"lead_temperature"`
	LeadStatus      string                `db:"lead_status"`
	Tags            []string              `db:"tags"`
	AssignedTo      *uuid.UUID            `db:"assigned_to"`
	CreatedAt       time.Time             `db:"created_at"`
	UpdatedAt       time.Time             `db:"updated_at"`
}

// UpdateParams contains partial profile updates for a contact.
type UpdateParams struct {
	ID             uuid.UUID
	WorkspaceID    uuid.UUID
	Name           *string
	FormData       domain.FormData
	DocumentStatus *domain.DocumentStatus
	AssignedTo     *uuid.UUID
	AddTags        []string
}

// ScoreParams contains a recomputed lead score to persist.
type ScoreParams struct {
	ID              uuid.UUID
	LeadScore       int
	LeadTemperature string
	LeadStatus      string
}

// MergeParams describes an administrative merge of two duplicate contacts.
type MergeParams struct {
	WorkspaceID     uuid.UUID
	KeptContactID   uuid.UUID
	MergedContactID uuid.UUID
	// ActivePhone is the phone number the operator confirmed as current.
	// Must belong to one of the two contacts.
	ActivePhone string
}

// ListParams filter the contact list.
type ListParams struct {
	WorkspaceID uuid.UUID
	Temperature *string
	Search      string
	Offset      int
	Limit       int
}

// ContactReader provides read operations for contacts.
type ContactReader interface {
	GetByID(ctx context.Context, workspaceID, id uuid.UUID) (Contact, error)
	GetByNormalizedPhone(ctx context.Context, workspaceID uuid.UUID, normalizedPhone string) (Contact, error)
	List(ctx context.Context, params ListParams) ([]Contact, int, error)
}

// ContactWriter provides write operations for contacts.
type ContactWriter interface {
	// FindOrCreate resolves a contact by normalized phone, creating it on
	// first inbound message. Safe to race: concurrent calls for the same
	// phone converge on one row.
	FindOrCreate(ctx context.Context, workspaceID uuid.UUID, phone, normalizedPhone, name string) (Contact, error)
	Update(ctx context.Context, params UpdateParams) (Contact, error)
	UpdateScore(ctx context.Context, params ScoreParams) error
	// Merge reassigns all conversations and appointments from the merged
	// contact to the kept one, folds profile data together, and deletes the
	// merged contact. Runs in a single transaction; any failure aborts the
	// whole merge.
	Merge(ctx context.Context, params MergeParams) (Contact, error)
}

// Repository combines all contact repository operations.
type Repository interface {
	ContactReader
	ContactWriter
}

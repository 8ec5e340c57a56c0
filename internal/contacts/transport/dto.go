package transport

import (
	"github.com/google/uuid"

	"wacrm_backend/internal/ari/domain"
)

// UpdateContactRequest contains partial profile updates from the dashboard.
type UpdateContactRequest struct {
	Name           *string                `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	FormData       map[string]string      `json:"formData,omitempty"`
	DocumentStatus *domain.DocumentStatus `json:"documentStatus,omitempty"`
	AssignedTo     *uuid.UUID             `json:"assignedTo,omitempty"`
	AddTags        []string               `json:"addTags,omitempty" validate:"omitempty,dive,min=1,max=50"`
}

// MergeContactsRequest merges a duplicate contact into a kept one.
type MergeContactsRequest struct {
	KeptContactID   uuid.UUID `json:"keptContactId" validate:"required"`
	MergedContactID uuid.UUID `json:"mergedContactId" validate:"required"`
	ActivePhone     string    `json:"activePhone" validate:"required,waphone"`
}

// ListContactsRequest filters the contact list.
type ListContactsRequest struct {
	Temperature *string `form:"temperature" validate:"omitempty,oneof=hot warm cold"`
	Search      string  `form:"search" validate:"omitempty,max=200"`
	Page        int     `form:"page" validate:"omitempty,min=1"`
	PageSize    int     `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ContactResponse represents a contact in API responses.
type ContactResponse struct {
	ID              uuid.UUID             `json:"id"`
	WorkspaceID     uuid.UUID             `json:"workspaceId"`
	Phone           string                `json:"phone"`
	Name            string                `json:"name,omitempty"`
	FormData        map[string]string     `json:"formData"`
	DocumentStatus  domain.DocumentStatus `json:"documentStatus"`
	LeadScore       int                   `json:"leadScore"`
	LeadTemperature string                `json:"leadTemperature,omitempty"`
	LeadStatus      string                `json:"leadStatus,omitempty"`
	Tags            []string              `json:"tags"`
	AssignedTo      *uuid.UUID            `json:"assignedTo,omitempty"`
	CreatedAt       string                `json:"createdAt"`
	UpdatedAt       string                `json:"updatedAt"`
}

// ContactListResponse wraps a paginated contact list.
type ContactListResponse struct {
	Items    []ContactResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

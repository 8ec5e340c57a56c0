// Package service implements contact management business logic.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/ari/domain"
	"wacrm_backend/internal/contacts/repository"
	"wacrm_backend/internal/contacts/transport"
	"wacrm_backend/internal/events"
	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/phone"
	"wacrm_backend/platform/sanitize"
)

// Service provides business logic for contacts.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new contacts service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// FindOrCreate resolves a contact by phone, creating it on first inbound
// message. Phones are normalized to bare digits, matching WhatsApp wa_id.
func (s *Service) FindOrCreate(ctx context.Context, workspaceID uuid.UUID, rawPhone, name string) (repository.Contact, error) {
	normalized := phone.Digits(rawPhone)
	return s.repo.FindOrCreate(ctx, workspaceID, rawPhone, normalized, name)
}

// Get retrieves a contact.
func (s *Service) Get(ctx context.Context, workspaceID, id uuid.UUID) (repository.Contact, error) {
	return s.repo.GetByID(ctx, workspaceID, id)
}

// List retrieves contacts for the dashboard.
func (s *Service) List(ctx context.Context, workspaceID uuid.UUID, req transport.ListContactsRequest) (transport.ContactListResponse, error) {
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
		Temperature: req.Temperature,
		Search:      req.Search,
		Offset:      (page - 1) * pageSize,
		Limit:       pageSize,
	})
	if err != nil {
		return transport.ContactListResponse{}, err
	}

	out := transport.ContactListResponse{
		Items:    make([]transport.ContactResponse, 0, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, c := range items {
		out.Items = append(out.Items, ToResponse(c))
	}
	return out, nil
}

// Update applies partial profile updates.
func (s *Service) Update(ctx context.Context, workspaceID, id uuid.UUID, req transport.UpdateContactRequest) (repository.Contact, error) {
	return s.repo.Update(ctx, repository.UpdateParams{
		ID:             id,
		WorkspaceID:    workspaceID,
		Name:           req.Name,
		FormData:       domain.FormData(req.FormData),
		DocumentStatus: req.DocumentStatus,
		AssignedTo:     req.AssignedTo,
		AddTags:        req.AddTags,
	})
}

// SaveFormData merges newly extracted qualification answers into the
// contact. Answers come straight from chat messages, so each value is
// sanitized before storage.
func (s *Service) SaveFormData(ctx context.Context, workspaceID, id uuid.UUID, formData domain.FormData, docs *domain.DocumentStatus) (repository.Contact, error) {
	clean := make(domain.FormData, len(formData))
	for key, value := range formData {
		clean[key] = sanitize.Text(value)
	}
	return s.repo.Update(ctx, repository.UpdateParams{
		ID:             id,
		WorkspaceID:    workspaceID,
		FormData:       clean,
		DocumentStatus: docs,
	})
}

// SaveScore persists a recomputed lead score and publishes the change.
func (s *Service) SaveScore(ctx context.Context, contact repository.Contact, result domain.ScoreResult, temperature domain.Temperature) error {
	if err := s.repo.UpdateScore(ctx, repository.ScoreParams{
		ID:              contact.ID,
		LeadScore:       result.Score,
		LeadTemperature: string(temperature),
		LeadStatus:      temperature.LeadStatus(),
	}); err != nil {
		return err
	}

	if result.Score != contact.LeadScore {
		s.bus.Publish(ctx, events.ContactScoreUpdated{
			BaseEvent:   events.NewBaseEvent(),
			WorkspaceID: contact.WorkspaceID,
			ContactID:   contact.ID,
			OldScore:    contact.LeadScore,
			NewScore:    result.Score,
			Temperature: string(temperature),
			LeadStatus:  temperature.LeadStatus(),
		})
	}
	return nil
}

// AddTags appends tags to a contact, deduplicated.
func (s *Service) AddTags(ctx context.Context, workspaceID, id uuid.UUID, tags []string) error {
	_, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:          id,
		WorkspaceID: workspaceID,
		AddTags:     tags,
	})
	return err
}

// Merge folds a duplicate contact into a kept one and publishes the result.
// The repository performs the merge transactionally; a failed delete of the
// duplicate aborts the operation.
func (s *Service) Merge(ctx context.Context, workspaceID uuid.UUID, req transport.MergeContactsRequest) (repository.Contact, error) {
	kept, err := s.repo.Merge(ctx, repository.MergeParams{
		WorkspaceID:     workspaceID,
		KeptContactID:   req.KeptContactID,
		MergedContactID: req.MergedContactID,
		ActivePhone:     req.ActivePhone,
	})
	if err != nil {
		return repository.Contact{}, err
	}

	s.log.Info("contacts merged",
		"workspace_id", workspaceID,
		"kept_contact_id", req.KeptContactID,
		"merged_contact_id", req.MergedContactID,
	)
	s.bus.Publish(ctx, events.ContactsMerged{
		BaseEvent:       events.NewBaseEvent(),
		WorkspaceID:     workspaceID,
		KeptContactID:   req.KeptContactID,
		MergedContactID: req.MergedContactID,
	})
	return kept, nil
}

// ToResponse converts a repository contact to its API shape.
func ToResponse(c repository.Contact) transport.ContactResponse {
	formData := c.FormData
	if formData == nil {
		formData = domain.FormData{}
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return transport.ContactResponse{
		ID:              c.ID,
		WorkspaceID:     c.WorkspaceID,
		Phone:           c.Phone,
		Name:            c.Name,
		FormData:        formData,
		DocumentStatus:  c.DocumentStatus,
		LeadScore:       c.LeadScore,
		LeadTemperature: c.LeadTemperature,
		LeadStatus:      c.LeadStatus,
		Tags:            tags,
		AssignedTo:      c.AssignedTo,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       c.UpdatedAt.Format(time.RFC3339),
	}
}

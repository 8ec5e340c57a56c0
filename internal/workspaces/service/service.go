// Package service implements workspace management business logic.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"wacrm_backend/internal/whatsapp"
	"wacrm_backend/internal/workspaces/repository"
	"wacrm_backend/internal/workspaces/transport"
	"wacrm_backend/platform/apperr"
	"wacrm_backend/platform/logger"
)

// Default scoring weights. Workspaces without an override use these values.
const (
	DefaultHotThreshold             = 70
	DefaultWarmThreshold            = 40
	DefaultNameWeight               = 15
	DefaultEmailWeight              = 5
	DefaultValidEmailBonus          = 5
	DefaultQualificationFieldWeight = 10
	DefaultTimelinePenalty          = 10
	DefaultIELTSBonus               = 3
	DefaultDocumentWeight           = 7.5
	DefaultEngagement               = 5
	DefaultAutoHandoffMessageLimit  = 10
	DefaultWarmHandoffMessageLimit  = 5
)

// Service provides business logic for workspaces and their agent settings.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new workspaces service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// DefaultScoringConfig returns the stock scoring weights for a workspace.
func DefaultScoringConfig(workspaceID uuid.UUID) repository.ScoringConfig {
	return repository.ScoringConfig{
		WorkspaceID:              workspaceID,
		HotThreshold:             DefaultHotThreshold,
		WarmThreshold:            DefaultWarmThreshold,
		NameWeight:               DefaultNameWeight,
		EmailWeight:              DefaultEmailWeight,
		ValidEmailBonus:          DefaultValidEmailBonus,
		QualificationFieldWeight: DefaultQualificationFieldWeight,
		TimelinePenalty:          DefaultTimelinePenalty,
		IELTSBonus:               DefaultIELTSBonus,
		DocumentWeight:           DefaultDocumentWeight,
		DefaultEngagement:        DefaultEngagement,
		AutoHandoffMessageLimit:  DefaultAutoHandoffMessageLimit,
		WarmHandoffMessageLimit:  DefaultWarmHandoffMessageLimit,
	}
}

// GetByID retrieves a workspace by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.WorkspaceResponse, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.WorkspaceResponse{}, err
	}
	return toWorkspaceResponse(w), nil
}

// ResolveByPhoneNumberID looks up the tenant owning a provider phone number id.
// Used by the ingestion pipeline, so it returns the raw repository model
// including send credentials.
func (s *Service) ResolveByPhoneNumberID(ctx context.Context, phoneNumberID string) (repository.Workspace, error) {
	return s.repo.GetByPhoneNumberID(ctx, phoneNumberID)
}

// SendCredentials returns the messaging provider credentials for a workspace.
func (s *Service) SendCredentials(ctx context.Context, workspaceID uuid.UUID) (whatsapp.Credentials, error) {
	w, err := s.repo.GetByID(ctx, workspaceID)
	if err != nil {
		return whatsapp.Credentials{}, err
	}
	return whatsapp.Credentials{BaseURL: w.WAAPIBaseURL, APIKey: w.WAAPIKey}, nil
}

// List retrieves all workspaces.
func (s *Service) List(ctx context.Context) (transport.WorkspaceListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.WorkspaceListResponse{}, err
	}
	out := transport.WorkspaceListResponse{Items: make([]transport.WorkspaceResponse, 0, len(items)), Total: len(items)}
	for _, w := range items {
		out.Items = append(out.Items, toWorkspaceResponse(w))
	}
	return out, nil
}

// Create registers a new workspace.
func (s *Service) Create(ctx context.Context, req transport.CreateWorkspaceRequest) (transport.WorkspaceResponse, error) {
	w, err := s.repo.Create(ctx, repository.CreateWorkspaceParams{
		Name:          strings.TrimSpace(req.Name),
		PhoneNumberID: strings.TrimSpace(req.PhoneNumberID),
		WhatsAppPhone: strings.TrimSpace(req.WhatsAppPhone),
		WAAPIBaseURL:  strings.TrimRight(req.WAAPIBaseURL, "/"),
		WAAPIKey:      req.WAAPIKey,
	})
	if err != nil {
		return transport.WorkspaceResponse{}, err
	}

	s.log.Info("workspace created", "workspace_id", w.ID, "phone_number_id", w.PhoneNumberID)
	return toWorkspaceResponse(w), nil
}

// Update applies partial updates to a workspace.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateWorkspaceRequest) (transport.WorkspaceResponse, error) {
	w, err := s.repo.Update(ctx, repository.UpdateWorkspaceParams{
		ID:            id,
		Name:          req.Name,
		PhoneNumberID: req.PhoneNumberID,
		WhatsAppPhone: req.WhatsAppPhone,
		WAAPIBaseURL:  req.WAAPIBaseURL,
		WAAPIKey:      req.WAAPIKey,
		IsActive:      req.IsActive,
	})
	if err != nil {
		return transport.WorkspaceResponse{}, err
	}
	return toWorkspaceResponse(w), nil
}

// Delete removes a workspace and all dependent rows via cascading deletes.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("workspace deleted", "workspace_id", id)
	return nil
}

// GetARIConfig retrieves the agent settings for a workspace.
func (s *Service) GetARIConfig(ctx context.Context, workspaceID uuid.UUID) (transport.ARIConfigResponse, error) {
	cfg, err := s.repo.GetARIConfig(ctx, workspaceID)
	if err != nil {
		return transport.ARIConfigResponse{}, err
	}
	return toARIConfigResponse(cfg), nil
}

// UpsertARIConfig creates or replaces the agent settings for a workspace.
func (s *Service) UpsertARIConfig(ctx context.Context, workspaceID uuid.UUID, req transport.UpsertARIConfigRequest) (transport.ARIConfigResponse, error) {
	if _, err := s.repo.GetByID(ctx, workspaceID); err != nil {
		return transport.ARIConfigResponse{}, err
	}

	cfg := repository.ARIConfig{
		WorkspaceID:        workspaceID,
		Enabled:            req.Enabled,
		AgentName:          strings.TrimSpace(req.AgentName),
		GrokWeight:         50,
		BusinessContext:    req.BusinessContext,
		CommunityGroupLink: req.CommunityGroupLink,
		ConsultantEmail:    req.ConsultantEmail,
		NewLeadWindowHours: 24,
	}
	if cfg.AgentName == "" {
		cfg.AgentName = "ARI"
	}
	if req.GrokWeight != nil {
		cfg.GrokWeight = *req.GrokWeight
	}
	if req.NewLeadWindowHours != nil {
		cfg.NewLeadWindowHours = *req.NewLeadWindowHours
	}

	out, err := s.repo.UpsertARIConfig(ctx, cfg)
	if err != nil {
		return transport.ARIConfigResponse{}, err
	}
	return toARIConfigResponse(out), nil
}

// EffectiveARIConfig returns the repository model for the engine. A
// workspace that never configured the agent gets a disabled default.
func (s *Service) EffectiveARIConfig(ctx context.Context, workspaceID uuid.UUID) (repository.ARIConfig, error) {
	cfg, err := s.repo.GetARIConfig(ctx, workspaceID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return repository.ARIConfig{
				WorkspaceID:        workspaceID,
				Enabled:            false,
				AgentName:          "ARI",
				GrokWeight:         50,
				NewLeadWindowHours: 24,
			}, nil
		}
		return repository.ARIConfig{}, err
	}
	return cfg, nil
}

// GetScoringConfig retrieves scoring weights, falling back to defaults when
// the workspace has no override.
func (s *Service) GetScoringConfig(ctx context.Context, workspaceID uuid.UUID) (transport.ScoringConfigResponse, error) {
	cfg, err := s.repo.GetScoringConfig(ctx, workspaceID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return toScoringConfigResponse(DefaultScoringConfig(workspaceID)), nil
		}
		return transport.ScoringConfigResponse{}, err
	}
	return toScoringConfigResponse(cfg), nil
}

// EffectiveScoringConfig returns the repository model for the engine,
// with defaults applied when no override exists.
func (s *Service) EffectiveScoringConfig(ctx context.Context, workspaceID uuid.UUID) (repository.ScoringConfig, error) {
	cfg, err := s.repo.GetScoringConfig(ctx, workspaceID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return DefaultScoringConfig(workspaceID), nil
		}
		return repository.ScoringConfig{}, err
	}
	return cfg, nil
}

// UpsertScoringConfig creates or replaces the workspace scoring override.
// Omitted fields keep their default values.
func (s *Service) UpsertScoringConfig(ctx context.Context, workspaceID uuid.UUID, req transport.UpsertScoringConfigRequest) (transport.ScoringConfigResponse, error) {
	if _, err := s.repo.GetByID(ctx, workspaceID); err != nil {
		return transport.ScoringConfigResponse{}, err
	}

	cfg := DefaultScoringConfig(workspaceID)
	applyScoringOverrides(&cfg, req)

	if cfg.WarmThreshold >= cfg.HotThreshold {
		return transport.ScoringConfigResponse{}, apperr.Validation("warm threshold must be below hot threshold")
	}

	out, err := s.repo.UpsertScoringConfig(ctx, cfg)
	if err != nil {
		return transport.ScoringConfigResponse{}, err
	}
	return toScoringConfigResponse(out), nil
}

// CreateAPIKey issues a new integration API key. The raw secret is returned
// exactly once; only its bcrypt hash is stored.
func (s *Service) CreateAPIKey(ctx context.Context, workspaceID uuid.UUID, req transport.CreateAPIKeyRequest) (transport.APIKeyCreatedResponse, error) {
	if _, err := s.repo.GetByID(ctx, workspaceID); err != nil {
		return transport.APIKeyCreatedResponse{}, err
	}

	secret, err := generateSecret()
	if err != nil {
		return transport.APIKeyCreatedResponse{}, fmt.Errorf("generate api key secret: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return transport.APIKeyCreatedResponse{}, fmt.Errorf("hash api key secret: %w", err)
	}

	key, err := s.repo.CreateAPIKey(ctx, repository.APIKey{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(req.Name),
		SecretHash:  string(hash),
	})
	if err != nil {
		return transport.APIKeyCreatedResponse{}, err
	}

	s.log.Info("api key issued", "workspace_id", workspaceID, "key_id", key.ID)
	return transport.APIKeyCreatedResponse{
		ID:        key.ID,
		Name:      key.Name,
		Secret:    key.ID.String() + "." + secret,
		CreatedAt: key.CreatedAt.Format(time.RFC3339),
	}, nil
}

// VerifyAPIKey validates a raw "keyId.secret" token and returns the owning
// workspace ID on success.
func (s *Service) VerifyAPIKey(ctx context.Context, token string) (uuid.UUID, error) {
	keyIDRaw, secret, found := strings.Cut(token, ".")
	if !found {
		return uuid.Nil, apperr.Unauthorized("invalid api key")
	}
	keyID, err := uuid.Parse(keyIDRaw)
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("invalid api key")
	}

	key, err := s.repo.GetAPIKey(ctx, keyID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return uuid.Nil, apperr.Unauthorized("invalid api key")
		}
		return uuid.Nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(secret)) != nil {
		return uuid.Nil, apperr.Unauthorized("invalid api key")
	}

	if err := s.repo.TouchAPIKey(ctx, key.ID); err != nil {
		s.log.Warn("touch api key failed", "key_id", key.ID, "error", err)
	}
	return key.WorkspaceID, nil
}

// ListAPIKeys retrieves issued keys for a workspace without their secrets.
func (s *Service) ListAPIKeys(ctx context.Context, workspaceID uuid.UUID) (transport.APIKeyListResponse, error) {
	keys, err := s.repo.ListAPIKeys(ctx, workspaceID)
	if err != nil {
		return transport.APIKeyListResponse{}, err
	}
	out := transport.APIKeyListResponse{Items: make([]transport.APIKeyResponse, 0, len(keys)), Total: len(keys)}
	for _, k := range keys {
		item := transport.APIKeyResponse{
			ID:        k.ID,
			Name:      k.Name,
			CreatedAt: k.CreatedAt.Format(time.RFC3339),
		}
		if k.LastUsedAt != nil {
			lastUsed := k.LastUsedAt.Format(time.RFC3339)
			item.LastUsedAt = &lastUsed
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// RevokeAPIKey deletes an issued key.
func (s *Service) RevokeAPIKey(ctx context.Context, workspaceID, keyID uuid.UUID) error {
	key, err := s.repo.GetAPIKey(ctx, keyID)
	if err != nil {
		return err
	}
	if key.WorkspaceID != workspaceID {
		return apperr.NotFound("api key not found")
	}
	return s.repo.DeleteAPIKey(ctx, keyID)
}

func applyScoringOverrides(cfg *repository.ScoringConfig, req transport.UpsertScoringConfigRequest) {
	if req.HotThreshold != nil {
		cfg.HotThreshold = *req.HotThreshold
	}
	if req.WarmThreshold != nil {
		cfg.WarmThreshold = *req.WarmThreshold
	}
	if req.NameWeight != nil {
		cfg.NameWeight = *req.NameWeight
	}
	if req.EmailWeight != nil {
		cfg.EmailWeight = *req.EmailWeight
	}
	if req.ValidEmailBonus != nil {
		cfg.ValidEmailBonus = *req.ValidEmailBonus
	}
	if req.QualificationFieldWeight != nil {
		cfg.QualificationFieldWeight = *req.QualificationFieldWeight
	}
	if req.TimelinePenalty != nil {
		cfg.TimelinePenalty = *req.TimelinePenalty
	}
	if req.IELTSBonus != nil {
		cfg.IELTSBonus = *req.IELTSBonus
	}
	if req.DocumentWeight != nil {
		cfg.DocumentWeight = *req.DocumentWeight
	}
	if req.DefaultEngagement != nil {
		cfg.DefaultEngagement = *req.DefaultEngagement
	}
	if req.AutoHandoffMessageLimit != nil {
		cfg.AutoHandoffMessageLimit = *req.AutoHandoffMessageLimit
	}
	if req.WarmHandoffMessageLimit != nil {
		cfg.WarmHandoffMessageLimit = *req.WarmHandoffMessageLimit
	}
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func toWorkspaceResponse(w repository.Workspace) transport.WorkspaceResponse {
	return transport.WorkspaceResponse{
		ID:            w.ID,
		Name:          w.Name,
		PhoneNumberID: w.PhoneNumberID,
		WhatsAppPhone: w.WhatsAppPhone,
		WAAPIBaseURL:  w.WAAPIBaseURL,
		IsActive:      w.IsActive,
		CreatedAt:     w.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     w.UpdatedAt.Format(time.RFC3339),
	}
}

func toARIConfigResponse(cfg repository.ARIConfig) transport.ARIConfigResponse {
	return transport.ARIConfigResponse{
		WorkspaceID:        cfg.WorkspaceID,
		Enabled:            cfg.Enabled,
		AgentName:          cfg.AgentName,
		GrokWeight:         cfg.GrokWeight,
		BusinessContext:    cfg.BusinessContext,
		CommunityGroupLink: cfg.CommunityGroupLink,
		ConsultantEmail:    cfg.ConsultantEmail,
		NewLeadWindowHours: cfg.NewLeadWindowHours,
		UpdatedAt:          cfg.UpdatedAt.Format(time.RFC3339),
	}
}

func toScoringConfigResponse(cfg repository.ScoringConfig) transport.ScoringConfigResponse {
	return transport.ScoringConfigResponse{
		WorkspaceID:              cfg.WorkspaceID,
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

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wacrm_backend/platform/apperr"
)

const (
	workspaceNotFoundMessage = "workspace not found"
	apiKeyNotFoundMessage    = "api key not found"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new workspaces repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const workspaceColumns = `id, name, phone_number_id, whatsapp_phone, wa_api_base_url, wa_api_key, is_active, created_at, updated_at`

func scanWorkspace(row pgx.Row) (Workspace, error) {
	var w Workspace
	err := row.Scan(
		&w.ID, &w.Name, &w.PhoneNumberID, &w.WhatsAppPhone, &w.WAAPIBaseURL,
		&w.WAAPIKey, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	return w, err
}

// GetByID retrieves a workspace by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`

	w, err := scanWorkspace(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, apperr.NotFound(workspaceNotFoundMessage)
		}
		return Workspace{}, fmt.Errorf("get workspace by id: %w", err)
	}
	return w, nil
}

// GetByPhoneNumberID resolves the workspace owning a provider phone number id.
// This is the tenant routing key for inbound webhook batches.
func (r *Repo) GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE phone_number_id = $1`

	w, err := scanWorkspace(r.pool.QueryRow(ctx, query, phoneNumberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, apperr.NotFound(workspaceNotFoundMessage)
		}
		return Workspace{}, fmt.Errorf("get workspace by phone number id: %w", err)
	}
	return w, nil
}

// List retrieves all workspaces ordered by name.
func (r *Repo) List(ctx context.Context) ([]Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var out []Workspace
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Create inserts a new workspace.
func (r *Repo) Create(ctx context.Context, params CreateWorkspaceParams) (Workspace, error) {
	query := `
		INSERT INTO workspaces (name, phone_number_id, whatsapp_phone, wa_api_base_url, wa_api_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + workspaceColumns

	w, err := scanWorkspace(r.pool.QueryRow(ctx, query,
		params.Name, params.PhoneNumberID, params.WhatsAppPhone, params.WAAPIBaseURL, params.WAAPIKey,
	))
	if err != nil {
		return Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	return w, nil
}

// Update applies partial updates to a workspace.
func (r *Repo) Update(ctx context.Context, params UpdateWorkspaceParams) (Workspace, error) {
	query := `
		UPDATE workspaces SET
			name = COALESCE($2, name),
			phone_number_id = COALESCE($3, phone_number_id),
			whatsapp_phone = COALESCE($4, whatsapp_phone),
			wa_api_base_url = COALESCE($5, wa_api_base_url),
			wa_api_key = COALESCE($6, wa_api_key),
			is_active = COALESCE($7, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + workspaceColumns

	w, err := scanWorkspace(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.PhoneNumberID, params.WhatsAppPhone,
		params.WAAPIBaseURL, params.WAAPIKey, params.IsActive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, apperr.NotFound(workspaceNotFoundMessage)
		}
		return Workspace{}, fmt.Errorf("update workspace: %w", err)
	}
	return w, nil
}

// Delete removes a workspace.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(workspaceNotFoundMessage)
	}
	return nil
}

// GetARIConfig retrieves the agent configuration for a workspace.
// Returns NotFound when the workspace has never enabled the agent.
func (r *Repo) GetARIConfig(ctx context.Context, workspaceID uuid.UUID) (ARIConfig, error) {
	query := `
		SELECT workspace_id, enabled, agent_name, grok_weight, business_context,
		       community_group_link, consultant_email, new_lead_window_hours, updated_at
		FROM workspace_ari_configs
		WHERE workspace_id = $1`

	var cfg ARIConfig
	err := r.pool.QueryRow(ctx, query, workspaceID).Scan(
		&cfg.WorkspaceID, &cfg.Enabled, &cfg.AgentName, &cfg.GrokWeight, &cfg.BusinessContext,
		&cfg.CommunityGroupLink, &cfg.ConsultantEmail, &cfg.NewLeadWindowHours, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ARIConfig{}, apperr.NotFound("agent config not found")
		}
		return ARIConfig{}, fmt.Errorf("get ari config: %w", err)
	}
	return cfg, nil
}

// UpsertARIConfig creates or replaces the agent configuration for a workspace.
func (r *Repo) UpsertARIConfig(ctx context.Context, cfg ARIConfig) (ARIConfig, error) {
	query := `
		INSERT INTO workspace_ari_configs
			(workspace_id, enabled, agent_name, grok_weight, business_context,
			 community_group_link, consultant_email, new_lead_window_hours, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (workspace_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			agent_name = EXCLUDED.agent_name,
			grok_weight = EXCLUDED.grok_weight,
			business_context = EXCLUDED.business_context,
			community_group_link = EXCLUDED.community_group_link,
			consultant_email = EXCLUDED.consultant_email,
			new_lead_window_hours = EXCLUDED.new_lead_window_hours,
			updated_at = now()
		RETURNING workspace_id, enabled, agent_name, grok_weight, business_context,
		          community_group_link, consultant_email, new_lead_window_hours, updated_at`

	var out ARIConfig
	err := r.pool.QueryRow(ctx, query,
		cfg.WorkspaceID, cfg.Enabled, cfg.AgentName, cfg.GrokWeight, cfg.BusinessContext,
		cfg.CommunityGroupLink, cfg.ConsultantEmail, cfg.NewLeadWindowHours,
	).Scan(
		&out.WorkspaceID, &out.Enabled, &out.AgentName, &out.GrokWeight, &out.BusinessContext,
		&out.CommunityGroupLink, &out.ConsultantEmail, &out.NewLeadWindowHours, &out.UpdatedAt,
	)
	if err != nil {
		return ARIConfig{}, fmt.Errorf("upsert ari config: %w", err)
	}
	return out, nil
}

const scoringConfigColumns = `workspace_id, hot_threshold, warm_threshold, name_weight, email_weight,
	valid_email_bonus, qualification_field_weight, timeline_penalty, ielts_bonus,
	document_weight, default_engagement, auto_handoff_message_limit, warm_handoff_message_limit, updated_at`

func scanScoringConfig(row pgx.Row) (ScoringConfig, error) {
	var cfg ScoringConfig
	err := row.Scan(
		&cfg.WorkspaceID, &cfg.HotThreshold, &cfg.WarmThreshold, &cfg.NameWeight, &cfg.EmailWeight,
		&cfg.ValidEmailBonus, &cfg.QualificationFieldWeight, &cfg.TimelinePenalty, &cfg.IELTSBonus,
		&cfg.DocumentWeight, &cfg.DefaultEngagement, &cfg.AutoHandoffMessageLimit, &cfg.WarmHandoffMessageLimit,
		&cfg.UpdatedAt,
	)
	return cfg, err
}

// GetScoringConfig retrieves the scoring weights for a workspace.
// Returns NotFound when no override exists; callers fall back to defaults.
func (r *Repo) GetScoringConfig(ctx context.Context, workspaceID uuid.UUID) (ScoringConfig, error) {
	query := `SELECT ` + scoringConfigColumns + ` FROM workspace_scoring_configs WHERE workspace_id = $1`

	cfg, err := scanScoringConfig(r.pool.QueryRow(ctx, query, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ScoringConfig{}, apperr.NotFound("scoring config not found")
		}
		return ScoringConfig{}, fmt.Errorf("get scoring config: %w", err)
	}
	return cfg, nil
}

// UpsertScoringConfig creates or replaces the scoring weights for a workspace.
func (r *Repo) UpsertScoringConfig(ctx context.Context, cfg ScoringConfig) (ScoringConfig, error) {
	query := `
		INSERT INTO workspace_scoring_configs
			(workspace_id, hot_threshold, warm_threshold, name_weight, email_weight,
			 valid_email_bonus, qualification_field_weight, timeline_penalty, ielts_bonus,
			 document_weight, default_engagement, auto_handoff_message_limit, warm_handoff_message_limit, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (workspace_id) DO UPDATE SET
			hot_threshold = EXCLUDED.hot_threshold,
			warm_threshold = EXCLUDED.warm_threshold,
			name_weight = EXCLUDED.name_weight,
			email_weight = EXCLUDED.email_weight,
			valid_email_bonus = EXCLUDED.valid_email_bonus,
			qualification_field_weight = EXCLUDED.qualification_field_weight,
			timeline_penalty = EXCLUDED.timeline_penalty,
			ielts_bonus = EXCLUDED.ielts_bonus,
			document_weight = EXCLUDED.document_weight,
			default_engagement = EXCLUDED.default_engagement,
			auto_handoff_message_limit = EXCLUDED.auto_handoff_message_limit,
			warm_handoff_message_limit = EXCLUDED.warm_handoff_message_limit,
			updated_at = now()
		RETURNING ` + scoringConfigColumns

	out, err := scanScoringConfig(r.pool.QueryRow(ctx, query,
		cfg.WorkspaceID, cfg.HotThreshold, cfg.WarmThreshold, cfg.NameWeight, cfg.EmailWeight,
		cfg.ValidEmailBonus, cfg.QualificationFieldWeight, cfg.TimelinePenalty, cfg.IELTSBonus,
		cfg.DocumentWeight, cfg.DefaultEngagement, cfg.AutoHandoffMessageLimit, cfg.WarmHandoffMessageLimit,
	))
	if err != nil {
		return ScoringConfig{}, fmt.Errorf("upsert scoring config: %w", err)
	}
	return out, nil
}

// CreateAPIKey inserts a new integration API key.
func (r *Repo) CreateAPIKey(ctx context.Context, key APIKey) (APIKey, error) {
	query := `
		INSERT INTO workspace_api_keys (id, workspace_id, name, secret_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, workspace_id, name, secret_hash, last_used_at, created_at`

	var out APIKey
	err := r.pool.QueryRow(ctx, query, key.ID, key.WorkspaceID, key.Name, key.SecretHash).Scan(
		&out.ID, &out.WorkspaceID, &out.Name, &out.SecretHash, &out.LastUsedAt, &out.CreatedAt,
	)
	if err != nil {
		return APIKey{}, fmt.Errorf("create api key: %w", err)
	}
	return out, nil
}

// GetAPIKey retrieves an integration API key by id.
func (r *Repo) GetAPIKey(ctx context.Context, id uuid.UUID) (APIKey, error) {
	query := `
		SELECT id, workspace_id, name, secret_hash, last_used_at, created_at
		FROM workspace_api_keys
		WHERE id = $1`

	var out APIKey
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&out.ID, &out.WorkspaceID, &out.Name, &out.SecretHash, &out.LastUsedAt, &out.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return APIKey{}, apperr.NotFound(apiKeyNotFoundMessage)
		}
		return APIKey{}, fmt.Errorf("get api key: %w", err)
	}
	return out, nil
}

// ListAPIKeys retrieves all integration API keys for a workspace.
func (r *Repo) ListAPIKeys(ctx context.Context, workspaceID uuid.UUID) ([]APIKey, error) {
	query := `
		SELECT id, workspace_id, name, secret_hash, last_used_at, created_at
		FROM workspace_api_keys
		WHERE workspace_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var out []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.WorkspaceID, &k.Name, &k.SecretHash, &k.LastUsedAt, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// TouchAPIKey records the last successful use of an API key.
func (r *Repo) TouchAPIKey(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE workspace_api_keys SET last_used_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}

// DeleteAPIKey revokes an integration API key.
func (r *Repo) DeleteAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workspace_api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apiKeyNotFoundMessage)
	}
	return nil
}

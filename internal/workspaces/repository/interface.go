package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Workspace represents a tenant with its own WhatsApp number and settings.
type Workspace struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	PhoneNumberID string    `db:"phone_number_id"`
	WhatsAppPhone string    `db:"whatsapp_phone"`
	WAAPIBaseURL  string    `db:"wa_api_base_url"`
	WAAPIKey      string    `db:"wa_api_key"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// ARIConfig holds the per-workspace qualification agent settings.
type ARIConfig struct {
	WorkspaceID        uuid.UUID `db:"workspace_id"`
	Enabled            bool      `db:"enabled"`
	AgentName          string    `db:"agent_name"`
	GrokWeight         int       `db:"grok_weight"`
	BusinessContext    string    `db:"business_context"`
	CommunityGroupLink string    `db:"community_group_link"`
	ConsultantEmail    string    `db:"consultant_email"`
	NewLeadWindowHours int       `db:"new_lead_window_hours"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// ScoringConfig holds per-workspace scoring weights and thresholds.
// Defaults match the standard qualification model; operators may tune them.
type ScoringConfig struct {
	WorkspaceID              uuid.UUID `db:"workspace_id"`
	HotThreshold             int       `db:"hot_threshold"`
	WarmThreshold            int       `db:"warm_threshold"`
	NameWeight               int       `db:"name_weight"`
	EmailWeight              int       `db:"email_weight"`
	ValidEmailBonus          int       `db:"valid_email_bonus"`
	QualificationFieldWeight int       `db:"qualification_field_weight"`
	TimelinePenalty          int       `db:"timeline_penalty"`
	IELTSBonus               int       `db:"ielts_bonus"`
	DocumentWeight           float64   `db:"document_weight"`
	DefaultEngagement        int       `db:"default_engagement"`
	AutoHandoffMessageLimit  int       `db:"auto_handoff_message_limit"`
	WarmHandoffMessageLimit  int       `db:"warm_handoff_message_limit"`
	UpdatedAt                time.Time `db:"updated_at"`
}

// APIKey is a server-to-server credential for the dashboard integration API.
// Only the bcrypt hash of the secret is stored.
type APIKey struct {
	ID          uuid.UUID  `db:"id"`
	WorkspaceID uuid.UUID  `db:"workspace_id"`
	Name        string     `db:"name"`
	SecretHash  string     `db:"secret_hash"`
	LastUsedAt  *time.Time `db:"last_used_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

// CreateWorkspaceParams contains parameters for creating a workspace.
type CreateWorkspaceParams struct {
	Name          string
	PhoneNumberID string
	WhatsAppPhone string
	WAAPIBaseURL  string
	WAAPIKey      string
}

// UpdateWorkspaceParams contains parameters for updating a workspace.
type UpdateWorkspaceParams struct {
	ID            uuid.UUID
	Name          *string
	PhoneNumberID *string
	WhatsAppPhone *string
	WAAPIBaseURL  *string
	WAAPIKey      *string
	IsActive      *bool
}

// WorkspaceReader provides read operations for workspaces.
type WorkspaceReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Workspace, error)
	GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (Workspace, error)
	List(ctx context.Context) ([]Workspace, error)
}

// WorkspaceWriter provides write operations for workspaces.
type WorkspaceWriter interface {
	Create(ctx context.Context, params CreateWorkspaceParams) (Workspace, error)
	Update(ctx context.Context, params UpdateWorkspaceParams) (Workspace, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConfigStore provides access to per-workspace agent and scoring settings.
type ConfigStore interface {
	GetARIConfig(ctx context.Context, workspaceID uuid.UUID) (ARIConfig, error)
	UpsertARIConfig(ctx context.Context, cfg ARIConfig) (ARIConfig, error)
	GetScoringConfig(ctx context.Context, workspaceID uuid.UUID) (ScoringConfig, error)
	UpsertScoringConfig(ctx context.Context, cfg ScoringConfig) (ScoringConfig, error)
}

// APIKeyStore provides access to workspace integration API keys.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key APIKey) (APIKey, error)
	GetAPIKey(ctx context.Context, id uuid.UUID) (APIKey, error)
	ListAPIKeys(ctx context.Context, workspaceID uuid.UUID) ([]APIKey, error)
	TouchAPIKey(ctx context.Context, id uuid.UUID) error
	DeleteAPIKey(ctx context.Context, id uuid.UUID) error
}

// Repository combines all workspace repository operations.
type Repository interface {
	WorkspaceReader
	WorkspaceWriter
	ConfigStore
	APIKeyStore
}

package transport

import "github.com/google/uuid"

// CreateWorkspaceRequest contains data for registering a new tenant.
type CreateWorkspaceRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=100"`
	PhoneNumberID string `json:"phoneNumberId" validate:"required,min=1,max=64"`
	WhatsAppPhone string `json:"whatsappPhone" validate:"required,min=5,max=32"`
	WAAPIBaseURL  string `json:"waApiBaseUrl" validate:"required,url"`
	WAAPIKey      string `json:"waApiKey" validate:"required,min=8"`
}

// UpdateWorkspaceRequest contains partial updates for a workspace.
type UpdateWorkspaceRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	PhoneNumberID *string `json:"phoneNumberId,omitempty" validate:"omitempty,min=1,max=64"`
	WhatsAppPhone *string `json:"whatsappPhone,omitempty" validate:"omitempty,min=5,max=32"`
	WAAPIBaseURL  *string `json:"waApiBaseUrl,omitempty" validate:"omitempty,url"`
	WAAPIKey      *string `json:"waApiKey,omitempty" validate:"omitempty,min=8"`
	IsActive      *bool   `json:"isActive,omitempty"`
}

// WorkspaceResponse represents a workspace in API responses.
// The WhatsApp API key is never echoed back.
type WorkspaceResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	PhoneNumberID string    `json:"phoneNumberId"`
	WhatsAppPhone string    `json:"whatsappPhone"`
	WAAPIBaseURL  string    `json:"waApiBaseUrl"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     string    `json:"createdAt"`
	UpdatedAt     string    `json:"updatedAt"`
}

// WorkspaceListResponse wraps a list of workspaces.
type WorkspaceListResponse struct {
	Items []WorkspaceResponse `json:"items"`
	Total int                 `json:"total"`
}

// UpsertARIConfigRequest contains the qualification agent settings.
type UpsertARIConfigRequest struct {
	Enabled            bool   `json:"enabled"`
	AgentName          string `json:"agentName" validate:"omitempty,max=50"`
	GrokWeight         *int   `json:"grokWeight,omitempty" validate:"omitempty,min=0,max=100"`
	BusinessContext    string `json:"businessContext" validate:"omitempty,max=4000"`
	CommunityGroupLink string `json:"communityGroupLink" validate:"omitempty,url"`
	ConsultantEmail    string `json:"consultantEmail" validate:"omitempty,email"`
	NewLeadWindowHours *int   `json:"newLeadWindowHours,omitempty" validate:"omitempty,min=1,max=720"`
}

// ARIConfigResponse represents the agent settings in API responses.
type ARIConfigResponse struct {
	WorkspaceID        uuid.UUID `json:"workspaceId"`
	Enabled            bool      `json:"enabled"`
	AgentName          string    `json:"agentName"`
	GrokWeight         int       `json:"grokWeight"`
	BusinessContext    string    `json:"businessContext,omitempty"`
	CommunityGroupLink string    `json:"communityGroupLink,omitempty"`
	ConsultantEmail    string    `json:"consultantEmail,omitempty"`
	NewLeadWindowHours int       `json:"newLeadWindowHours"`
	UpdatedAt          string    `json:"updatedAt"`
}

// UpsertScoringConfigRequest contains per-workspace scoring overrides.
type UpsertScoringConfigRequest struct {
	HotThreshold             *int     `json:"hotThreshold,omitempty" validate:"omitempty,min=1,max=100"`
	WarmThreshold            *int     `json:"warmThreshold,omitempty" validate:"omitempty,min=0,max=100"`
	NameWeight               *int     `json:"nameWeight,omitempty" validate:"omitempty,min=0,max=50"`
	EmailWeight              *int     `json:"emailWeight,omitempty" validate:"omitempty,min=0,max=50"`
	ValidEmailBonus          *int     `json:"validEmailBonus,omitempty" validate:"omitempty,min=0,max=50"`
	QualificationFieldWeight *int     `json:"qualificationFieldWeight,omitempty" validate:"omitempty,min=0,max=50"`
	TimelinePenalty          *int     `json:"timelinePenalty,omitempty" validate:"omitempty,min=0,max=50"`
	IELTSBonus               *int     `json:"ieltsBonus,omitempty" validate:"omitempty,min=0,max=50"`
	DocumentWeight           *float64 `json:"documentWeight,omitempty" validate:"omitempty,min=0,max=25"`
	DefaultEngagement        *int     `json:"defaultEngagement,omitempty" validate:"omitempty,min=0,max=10"`
	AutoHandoffMessageLimit  *int     `json:"autoHandoffMessageLimit,omitempty" validate:"omitempty,min=1,max=100"`
	WarmHandoffMessageLimit  *int     `json:"warmHandoffMessageLimit,omitempty" validate:"omitempty,min=1,max=100"`
}

// ScoringConfigResponse represents scoring weights in API responses.
type ScoringConfigResponse struct {
	WorkspaceID              uuid.UUID `json:"workspaceId"`
	HotThreshold             int       `json:"hotThreshold"`
	WarmThreshold            int       `json:"warmThreshold"`
	NameWeight               int       `json:"nameWeight"`
	EmailWeight              int       `json:"emailWeight"`
	ValidEmailBonus          int       `json:"validEmailBonus"`
	QualificationFieldWeight int       `json:"qualificationFieldWeight"`
	TimelinePenalty          int       `json:"timelinePenalty"`
	IELTSBonus               int       `json:"ieltsBonus"`
	DocumentWeight           float64   `json:"documentWeight"`
	DefaultEngagement        int       `json:"defaultEngagement"`
	AutoHandoffMessageLimit  int       `json:"autoHandoffMessageLimit"`
	WarmHandoffMessageLimit  int       `json:"warmHandoffMessageLimit"`
}

// CreateAPIKeyRequest contains data for issuing an integration API key.
type CreateAPIKeyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// APIKeyCreatedResponse includes the raw secret exactly once at creation.
type APIKeyCreatedResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Secret    string    `json:"secret"`
	CreatedAt string    `json:"createdAt"`
}

// APIKeyResponse represents an issued key without its secret.
type APIKeyResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	LastUsedAt *string   `json:"lastUsedAt,omitempty"`
	CreatedAt  string    `json:"createdAt"`
}

// APIKeyListResponse wraps a list of API keys.
type APIKeyListResponse struct {
	Items []APIKeyResponse `json:"items"`
	Total int              `json:"total"`
}

package rules

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wacrm_backend/platform/httpkit"
	"wacrm_backend/platform/validator"
)

// Handler exposes the workspace rule CRUD surface.
type Handler struct {
	store Store
	val   *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid rule ID"
	msgMissingWorkspace = "workspace scope required"
)

// NewHandler creates a rules handler.
func NewHandler(store Store, val *validator.Validator) *Handler {
	return &Handler{store: store, val: val}
}

// RuleRequest is the create/update payload.
type RuleRequest struct {
	Kind          string   `json:"kind" binding:"required" validate:"oneof=trigger faq"`
	Name          string   `json:"name" validate:"max=100"`
	Keywords      []string `json:"keywords" binding:"required" validate:"min=1,dive,min=1"`
	Action        string   `json:"action" validate:"omitempty,oneof=handoff manager_bot faq_response pass_through"`
	Response      string   `json:"response"`
	MatchMode     string   `json:"match_mode" validate:"omitempty,oneof=exact contains starts_with"`
	CaseSensitive bool     `json:"case_sensitive"`
	Enabled       *bool    `json:"enabled"`
	Priority      int      `json:"priority"`
}

// RuleResponse is the API shape of a stored rule.
type RuleResponse struct {
	ID            uuid.UUID `json:"id"`
	Kind          string    `json:"kind"`
	Name          string    `json:"name"`
	Keywords      []string  `json:"keywords"`
	Action        string    `json:"action,omitempty"`
	Response      string    `json:"response,omitempty"`
	MatchMode     string    `json:"match_mode,omitempty"`
	CaseSensitive bool      `json:"case_sensitive"`
	Enabled       bool      `json:"enabled"`
	Priority      int       `json:"priority"`
}

func toRule(workspaceID uuid.UUID, req RuleRequest) Rule {
	rule := Rule{
		WorkspaceID:   workspaceID,
		Kind:          req.Kind,
		Name:          req.Name,
		Keywords:      req.Keywords,
		Action:        Action(req.Action),
		Response:      req.Response,
		MatchMode:     MatchMode(req.MatchMode),
		CaseSensitive: req.CaseSensitive,
		Enabled:       true,
		Priority:      req.Priority,
	}
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	if rule.Kind == KindFAQ {
		rule.Action = ActionFAQResponse
		rule.MatchMode = MatchContains
	}
	if rule.Kind == KindTrigger && rule.MatchMode == "" {
		rule.MatchMode = MatchContains
	}
	return rule
}

func toResponse(r Rule) RuleResponse {
	return RuleResponse{
		ID:            r.ID,
		Kind:          r.Kind,
		Name:          r.Name,
		Keywords:      r.Keywords,
		Action:        string(r.Action),
		Response:      r.Response,
		MatchMode:     string(r.MatchMode),
		CaseSensitive: r.CaseSensitive,
		Enabled:       r.Enabled,
		Priority:      r.Priority,
	}
}

// List retrieves all rules for the workspace.
// GET /api/v1/rules
func (h *Handler) List(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	items, err := h.store.List(c.Request.Context(), workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]RuleResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toResponse(r))
	}
	httpkit.OK(c, gin.H{"items": out, "total": len(out)})
}

// Create stores a new rule.
// POST /api/v1/rules
func (h *Handler) Create(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rule, err := h.store.Create(c.Request.Context(), toRule(workspaceID, req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toResponse(rule))
}

// Update replaces a rule's definition.
// PUT /api/v1/rules/:id
func (h *Handler) Update(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rule := toRule(workspaceID, req)
	rule.ID = id

	out, err := h.store.Update(c.Request.Context(), rule)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(out))
}

// Delete removes a rule.
// DELETE /api/v1/rules/:id
func (h *Handler) Delete(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.store.Delete(c.Request.Context(), workspaceID, id)) {
		return
	}
	httpkit.NoContent(c)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func mustWorkspaceID(c *gin.Context) (uuid.UUID, bool) {
	workspaceID := httpkit.WorkspaceID(c)
	if workspaceID == uuid.Nil {
		httpkit.Error(c, http.StatusForbidden, msgMissingWorkspace, nil)
		return uuid.Nil, false
	}
	return workspaceID, true
}

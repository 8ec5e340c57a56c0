package ari

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wacrm_backend/internal/ari/knowledge"
	"wacrm_backend/platform/httpkit"
	"wacrm_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid destination ID"
	msgMissingWorkspace = "workspace scope required"
)

// Handler exposes the destination knowledge base admin surface.
type Handler struct {
	store knowledge.Store
	val   *validator.Validator
}

// NewHandler creates a destinations handler.
func NewHandler(store knowledge.Store, val *validator.Validator) *Handler {
	return &Handler{store: store, val: val}
}

// DestinationRequest is the create/update payload.
type DestinationRequest struct {
	Country        string                 `json:"country" binding:"required" validate:"min=2,max=100"`
	City           string                 `json:"city" validate:"max=100"`
	UniversityName string                 `json:"university_name" binding:"required" validate:"min=2,max=200"`
	Requirements   knowledge.Requirements `json:"requirements"`
	Programs       []string               `json:"programs" validate:"dive,min=1"`
	IsPromoted     bool                   `json:"is_promoted"`
	Priority       int                    `json:"priority" validate:"min=0,max=1000"`
	Notes          string                 `json:"notes" validate:"max=2000"`
}

func (r DestinationRequest) toDestination(workspaceID uuid.UUID) knowledge.Destination {
	return knowledge.Destination{
		WorkspaceID:    workspaceID,
		Country:        r.Country,
		City:           r.City,
		UniversityName: r.UniversityName,
		Requirements:   r.Requirements,
		Programs:       r.Programs,
		IsPromoted:     r.IsPromoted,
		Priority:       r.Priority,
		Notes:          r.Notes,
	}
}

// ListDestinations retrieves the workspace knowledge base.
// GET /api/v1/destinations
func (h *Handler) ListDestinations(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	items, err := h.store.List(c.Request.Context(), workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}
	if items == nil {
		items = []knowledge.Destination{}
	}
	httpkit.OK(c, gin.H{"items": items, "total": len(items)})
}

// CreateDestination adds a university entry.
// POST /api/v1/destinations
func (h *Handler) CreateDestination(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	var req DestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	out, err := h.store.Create(c.Request.Context(), req.toDestination(workspaceID))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, out)
}

// UpdateDestination replaces a university entry.
// PUT /api/v1/destinations/:id
func (h *Handler) UpdateDestination(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req DestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	d := req.toDestination(workspaceID)
	d.ID = id

	out, err := h.store.Update(c.Request.Context(), d)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, out)
}

// DeleteDestination removes a university entry.
// DELETE /api/v1/destinations/:id
func (h *Handler) DeleteDestination(c *gin.Context) {
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

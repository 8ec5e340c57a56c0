package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wacrm_backend/internal/contacts/service"
	"wacrm_backend/internal/contacts/transport"
	"wacrm_backend/platform/httpkit"
	"wacrm_backend/platform/validator"
)

// Handler handles HTTP requests for contacts.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid contact ID"
	msgMissingWorkspace = "workspace scope required"
)

// New creates a new contacts handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves contacts for the caller's workspace.
// GET /api/v1/contacts
func (h *Handler) List(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	var req transport.ListContactsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), workspaceID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves a single contact.
// GET /api/v1/contacts/:id
func (h *Handler) GetByID(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	contact, err := h.svc.Get(c.Request.Context(), workspaceID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(contact))
}

// Update applies partial profile updates to a contact.
// PATCH /api/v1/contacts/:id
func (h *Handler) Update(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.svc.Update(c.Request.Context(), workspaceID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(contact))
}

// Merge folds a duplicate contact into a kept one.
// POST /api/v1/contacts/merge
func (h *Handler) Merge(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	var req transport.MergeContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.svc.Merge(c.Request.Context(), workspaceID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToResponse(contact))
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

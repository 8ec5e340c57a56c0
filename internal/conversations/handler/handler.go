package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wacrm_backend/internal/conversations/service"
	"wacrm_backend/internal/conversations/transport"
	"wacrm_backend/platform/httpkit"
	"wacrm_backend/platform/validator"
)

// Handler handles HTTP requests for conversations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid conversation ID"
	msgMissingWorkspace = "workspace scope required"
)

// New creates a new conversations handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves conversations for the caller's workspace.
// GET /api/v1/conversations
func (h *Handler) List(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	var req transport.ListConversationsRequest
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

// GetByID retrieves a single conversation.
// GET /api/v1/conversations/:id
func (h *Handler) GetByID(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), workspaceID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Messages retrieves a message page, newest first.
// GET /api/v1/conversations/:id/messages
func (h *Handler) Messages(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	result, err := h.svc.Messages(c.Request.Context(), workspaceID, id, page, pageSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MarkRead clears the unread counter.
// POST /api/v1/conversations/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.MarkRead(c.Request.Context(), workspaceID, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// SendMessage delivers a manual agent reply.
// POST /api/v1/conversations/:id/messages
func (h *Handler) SendMessage(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SendAgentMessage(c.Request.Context(), workspaceID, id, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// ResetEpisode restarts the qualification journey for a conversation.
// POST /api/v1/conversations/:id/reset
func (h *Handler) ResetEpisode(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.ResetEpisode(c.Request.Context(), workspaceID, id)) {
		return
	}
	c.Status(http.StatusNoContent)
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

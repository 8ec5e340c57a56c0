package notification

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wacrm_backend/platform/httpkit"
)

const (
	msgInvalidID        = "invalid notification ID"
	msgMissingWorkspace = "workspace scope required"

	defaultPageSize = 20
	maxPageSize     = 100
)

// Reader is the read/update surface the handler needs.
type Reader interface {
	List(ctx context.Context, workspaceID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, workspaceID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, workspaceID, notificationID uuid.UUID) (Notification, error)
	MarkAllRead(ctx context.Context, workspaceID uuid.UUID) (int, error)
	Delete(ctx context.Context, workspaceID, notificationID uuid.UUID) error
}

// Handler exposes the workspace notification feed.
type Handler struct {
	repo Reader
}

// NewHandler creates a notification handler.
func NewHandler(repo Reader) *Handler {
	return &Handler{repo: repo}
}

// List returns a page of notifications for the workspace.
// GET /api/v1/notifications
func (h *Handler) List(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	items, total, err := h.repo.List(c.Request.Context(), workspaceID, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": total})
}

// UnreadCount returns how many notifications are unread.
// GET /api/v1/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	count, err := h.repo.CountUnread(c.Request.Context(), workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"count": count})
}

// MarkRead marks a single notification as read.
// PUT /api/v1/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	n, err := h.repo.MarkRead(c.Request.Context(), workspaceID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, n)
}

// MarkAllRead marks every unread notification in the workspace as read.
// PUT /api/v1/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	updated, err := h.repo.MarkAllRead(c.Request.Context(), workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": updated})
}

// Delete removes a notification.
// DELETE /api/v1/notifications/:id
func (h *Handler) Delete(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.repo.Delete(c.Request.Context(), workspaceID, id)) {
		return
	}
	httpkit.NoContent(c)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
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

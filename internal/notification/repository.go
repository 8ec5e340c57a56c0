// Package notification keeps the workspace team informed about events that
// need a human: lead handoffs and booked consultations surface here as
// in-app notification rows.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wacrm_backend/platform/apperr"
)

// Notification categories.
const (
	CategoryHandoff     = "handoff"
	CategoryAppointment = "appointment"
	CategorySystem      = "system"
)

// Notification is one in-app notification row, scoped to a workspace.
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspaceId"`
	ContactID   *uuid.UUID `json:"contactId,omitempty"`
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	IsRead      bool       `json:"isRead"`
	CreatedAt   time.Time  `json:"createdAt"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

// CreateParams describes a notification to insert.
type CreateParams struct {
	WorkspaceID uuid.UUID
	ContactID   *uuid.UUID
	Category    string
	Title       string
	Content     string
}

// Repository persists notifications in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notification repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificationColumns = `id, workspace_id, contact_id, category, title, content, is_read, created_at, read_at`

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.WorkspaceID, &n.ContactID, &n.Category, &n.Title, &n.Content, &n.IsRead, &n.CreatedAt, &n.ReadAt)
	return n, err
}

// Create inserts a notification row.
func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if p.WorkspaceID == uuid.Nil {
		return Notification{}, apperr.Validation("workspaceId is required")
	}
	if p.Title == "" {
		return Notification{}, apperr.Validation("title is required")
	}
	category := p.Category
	if category == "" {
		category = CategorySystem
	}

	query := `
		INSERT INTO notifications (workspace_id, contact_id, category, title, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.pool.QueryRow(ctx, query, p.WorkspaceID, p.ContactID, category, p.Title, p.Content))
	if err != nil {
		return Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

// List returns a page of notifications for the workspace, newest first,
// along with the total count.
func (r *Repository) List(ctx context.Context, workspaceID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE workspace_id = $1`, workspaceID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, workspaceID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", scanErr)
		}
		items = append(items, n)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", rowsErr)
	}

	return items, total, nil
}

// CountUnread returns how many notifications in the workspace are unread.
func (r *Repository) CountUnread(ctx context.Context, workspaceID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE workspace_id = $1 AND is_read = FALSE
	`, workspaceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks a single notification as read.
func (r *Repository) MarkRead(ctx context.Context, workspaceID, notificationID uuid.UUID) (Notification, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = now()
		WHERE id = $1 AND workspace_id = $2
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.pool.QueryRow(ctx, query, notificationID, workspaceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, apperr.NotFound("notification not found")
		}
		return Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification in the workspace as read and
// returns how many rows changed.
func (r *Repository) MarkAllRead(ctx context.Context, workspaceID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = now()
		WHERE workspace_id = $1 AND is_read = FALSE
	`, workspaceID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Delete removes a notification.
func (r *Repository) Delete(ctx context.Context, workspaceID, notificationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE id = $1 AND workspace_id = $2
	`, notificationID, workspaceID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

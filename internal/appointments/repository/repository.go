// Package repository persists consultant availability patterns and booked
// consultations.
package repository

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

// Slot is a weekly recurring availability pattern. StartTime and EndTime
// are wall-clock "HH:MM" strings in WIB.
type Slot struct {
	ID              uuid.UUID
	WorkspaceID     uuid.UUID
	ConsultantID    *uuid.UUID
	ConsultantName  string
	DayOfWeek       int // 0 = Sunday
	StartTime       string
	EndTime         string
	DurationMinutes int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment is a booked consultation. Bookings are immutable; a change
// of plans cancels and rebooks.
type Appointment struct {
	ID              uuid.UUID
	WorkspaceID     uuid.UUID
	ContactID       uuid.UUID
	ConversationID  *uuid.UUID
	SlotID          *uuid.UUID
	ConsultantID    *uuid.UUID
	ConsultantName  string
	ScheduledAt     time.Time
	DurationMinutes int
	Status          string
	Notes           string
	CreatedAt       time.Time
}

// Repository is the Postgres store for slots and appointments.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates the repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const slotColumns = `id, workspace_id, consultant_id, COALESCE(consultant_name, ''),
	day_of_week, start_time, end_time, duration_minutes, is_active, created_at, updated_at`

func scanSlot(row pgx.Row) (Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.WorkspaceID, &s.ConsultantID, &s.ConsultantName,
		&s.DayOfWeek, &s.StartTime, &s.EndTime, &s.DurationMinutes, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// CreateSlot inserts a weekly availability pattern.
func (r *Repository) CreateSlot(ctx context.Context, slot Slot) (Slot, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO consultant_slots
			(workspace_id, consultant_id, consultant_name, day_of_week, start_time, end_time, duration_minutes, is_active)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		RETURNING `+slotColumns,
		slot.WorkspaceID, slot.ConsultantID, slot.ConsultantName, slot.DayOfWeek,
		slot.StartTime, slot.EndTime, slot.DurationMinutes, slot.IsActive)
	saved, err := scanSlot(row)
	if err != nil {
		return Slot{}, fmt.Errorf("failed to create slot: %w", err)
	}
	return saved, nil
}

// ListSlots returns all slot patterns for a workspace.
func (r *Repository) ListSlots(ctx context.Context, workspaceID uuid.UUID) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM consultant_slots
		WHERE workspace_id = $1
		ORDER BY day_of_week, start_time`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	items := make([]Slot, 0)
	for rows.Next() {
		item, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListActiveSlots returns only patterns currently offered to leads.
func (r *Repository) ListActiveSlots(ctx context.Context, workspaceID uuid.UUID) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM consultant_slots
		WHERE workspace_id = $1 AND is_active = true
		ORDER BY day_of_week, start_time`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active slots: %w", err)
	}
	defer rows.Close()

	items := make([]Slot, 0)
	for rows.Next() {
		item, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateSlot replaces the mutable fields of a pattern.
func (r *Repository) UpdateSlot(ctx context.Context, slot Slot) (Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE consultant_slots
		SET consultant_id = $3, consultant_name = NULLIF($4, ''), day_of_week = $5,
		    start_time = $6, end_time = $7, duration_minutes = $8, is_active = $9,
		    updated_at = now()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+slotColumns,
		slot.WorkspaceID, slot.ID, slot.ConsultantID, slot.ConsultantName,
		slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.DurationMinutes, slot.IsActive)
	saved, err := scanSlot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Slot{}, apperr.NotFound("slot not found")
	}
	if err != nil {
		return Slot{}, fmt.Errorf("failed to update slot: %w", err)
	}
	return saved, nil
}

// DeleteSlot removes a pattern. Existing appointments keep their copy of
// the schedule and are unaffected.
func (r *Repository) DeleteSlot(ctx context.Context, workspaceID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM consultant_slots WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("slot not found")
	}
	return nil
}

const appointmentColumns = `id, workspace_id, contact_id, conversation_id, slot_id, consultant_id,
	COALESCE(consultant_name, ''), scheduled_at, duration_minutes, status, COALESCE(notes, ''), created_at`

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.WorkspaceID, &a.ContactID, &a.ConversationID, &a.SlotID,
		&a.ConsultantID, &a.ConsultantName, &a.ScheduledAt, &a.DurationMinutes,
		&a.Status, &a.Notes, &a.CreatedAt)
	return a, err
}

// CreateAppointment books a consultation. The partial unique index on
// (workspace_id, scheduled_at, consultant_id) for scheduled rows turns a
// double booking into a conflict error.
func (r *Repository) CreateAppointment(ctx context.Context, a Appointment) (Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(workspace_id, contact_id, conversation_id, slot_id, consultant_id, consultant_name,
			 scheduled_at, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, NULLIF($10, ''))
		RETURNING `+appointmentColumns,
		a.WorkspaceID, a.ContactID, a.ConversationID, a.SlotID, a.ConsultantID, a.ConsultantName,
		a.ScheduledAt, a.DurationMinutes, StatusScheduled, a.Notes)
	saved, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Appointment{}, apperr.Conflict("slot already booked")
		}
		return Appointment{}, fmt.Errorf("failed to create appointment: %w", err)
	}
	return saved, nil
}

// GetAppointment fetches one booking.
func (r *Repository) GetAppointment(ctx context.Context, workspaceID, id uuid.UUID) (Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, apperr.NotFound("appointment not found")
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// ListBetween returns scheduled appointments in a time window, used to
// exclude booked times from availability.
func (r *Repository) ListBetween(ctx context.Context, workspaceID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE workspace_id = $1 AND status = $2 AND scheduled_at >= $3 AND scheduled_at < $4
		ORDER BY scheduled_at`, workspaceID, StatusScheduled, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	items := make([]Appointment, 0)
	for rows.Next() {
		item, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListForContact returns a contact's bookings, newest first.
func (r *Repository) ListForContact(ctx context.Context, workspaceID, contactID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE workspace_id = $1 AND contact_id = $2
		ORDER BY scheduled_at DESC`, workspaceID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact appointments: %w", err)
	}
	defer rows.Close()

	items := make([]Appointment, 0)
	for rows.Next() {
		item, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetStatus moves a booking to cancelled or completed.
func (r *Repository) SetStatus(ctx context.Context, workspaceID, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = $3 WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id, status)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

// Package transport defines request and response DTOs for the
// scheduling HTTP surface.
package transport

import (
	"time"

	"github.com/google/uuid"

	"wacrm_backend/internal/appointments/repository"
	"wacrm_backend/internal/appointments/service"
)

type CreateSlotRequest struct {
	ConsultantID    *uuid.UUID `json:"consultant_id"`
	ConsultantName  string     `json:"consultant_name" binding:"omitempty,max=120"`
	DayOfWeek       *int       `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime       string     `json:"start_time" binding:"required,len=5"`
	EndTime         string     `json:"end_time" binding:"required,len=5"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=15,max=240"`
	IsActive        *bool      `json:"is_active"`
}

type UpdateSlotRequest struct {
	ConsultantID    *uuid.UUID `json:"consultant_id"`
	ConsultantName  string     `json:"consultant_name" binding:"omitempty,max=120"`
	DayOfWeek       *int       `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime       string     `json:"start_time" binding:"required,len=5"`
	EndTime         string     `json:"end_time" binding:"required,len=5"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=15,max=240"`
	IsActive        *bool      `json:"is_active"`
}

type SlotResponse struct {
	ID              uuid.UUID  `json:"id"`
	ConsultantID    *uuid.UUID `json:"consultant_id,omitempty"`
	ConsultantName  string     `json:"consultant_name,omitempty"`
	DayOfWeek       int        `json:"day_of_week"`
	DayName         string     `json:"day_name"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	IsActive        bool       `json:"is_active"`
}

func ToSlotResponse(s repository.Slot) SlotResponse {
	return SlotResponse{
		ID:              s.ID,
		ConsultantID:    s.ConsultantID,
		ConsultantName:  s.ConsultantName,
		DayOfWeek:       s.DayOfWeek,
		DayName:         service.DayName(s.DayOfWeek),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationMinutes: s.DurationMinutes,
		IsActive:        s.IsActive,
	}
}

type SlotListResponse struct {
	Slots []SlotResponse `json:"slots"`
}

type AvailabilityResponse struct {
	Slots []service.AvailableSlot `json:"slots"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	ContactID       uuid.UUID  `json:"contact_id"`
	ConversationID  *uuid.UUID `json:"conversation_id,omitempty"`
	ConsultantID    *uuid.UUID `json:"consultant_id,omitempty"`
	ConsultantName  string     `json:"consultant_name,omitempty"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func ToAppointmentResponse(a repository.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		ContactID:       a.ContactID,
		ConversationID:  a.ConversationID,
		ConsultantID:    a.ConsultantID,
		ConsultantName:  a.ConsultantName,
		ScheduledAt:     a.ScheduledAt,
		DurationMinutes: a.DurationMinutes,
		Status:          a.Status,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
	}
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

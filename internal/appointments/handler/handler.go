package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wacrm_backend/internal/appointments/repository"
	"wacrm_backend/internal/appointments/service"
	"wacrm_backend/internal/appointments/transport"
	"wacrm_backend/platform/httpkit"
	"wacrm_backend/platform/validator"
)

// Handler handles HTTP requests for slots and appointments.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid ID"
	msgMissingWorkspace = "workspace scope required"
)

// New creates the scheduling handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListSlots returns the workspace's weekly availability patterns.
// GET /api/v1/slots
func (h *Handler) ListSlots(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	slots, err := h.svc.ListSlots(c.Request.Context(), workspaceID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.SlotListResponse{Slots: make([]transport.SlotResponse, 0, len(slots))}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, transport.ToSlotResponse(s))
	}
	httpkit.OK(c, resp)
}

// CreateSlot adds a weekly availability pattern.
// POST /api/v1/slots
func (h *Handler) CreateSlot(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	var req transport.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if !validTime(req.StartTime) || !validTime(req.EndTime) {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "start_time and end_time must be HH:MM")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	slot, err := h.svc.CreateSlot(c.Request.Context(), repository.Slot{
		WorkspaceID:     workspaceID,
		ConsultantID:    req.ConsultantID,
		ConsultantName:  req.ConsultantName,
		DayOfWeek:       *req.DayOfWeek,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		IsActive:        active,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.ToSlotResponse(slot))
}

// UpdateSlot replaces a pattern's fields.
// PUT /api/v1/slots/:id
func (h *Handler) UpdateSlot(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if !validTime(req.StartTime) || !validTime(req.EndTime) {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "start_time and end_time must be HH:MM")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	slot, err := h.svc.UpdateSlot(c.Request.Context(), repository.Slot{
		ID:              id,
		WorkspaceID:     workspaceID,
		ConsultantID:    req.ConsultantID,
		ConsultantName:  req.ConsultantName,
		DayOfWeek:       *req.DayOfWeek,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		IsActive:        active,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSlotResponse(slot))
}

// DeleteSlot removes a pattern.
// DELETE /api/v1/slots/:id
func (h *Handler) DeleteSlot(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteSlot(c.Request.Context(), workspaceID, id)) {
		return
	}
	httpkit.NoContent(c)
}

// Availability returns concrete bookable slots in the booking window.
// GET /api/v1/slots/availability?days=14
func (h *Handler) Availability(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "14"))
	slots, err := h.svc.AvailableSlots(c.Request.Context(), workspaceID, days)
	if httpkit.HandleError(c, err) {
		return
	}
	if slots == nil {
		slots = []service.AvailableSlot{}
	}
	httpkit.OK(c, transport.AvailabilityResponse{Slots: slots})
}

// List returns appointments in a time window.
// GET /api/v1/appointments?from=...&to=...
func (h *Handler) List(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}

	now := time.Now()
	from, to := now, now.AddDate(0, 1, 0)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "from must be RFC3339")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "to must be RFC3339")
			return
		}
		to = parsed
	}

	appointments, err := h.svc.ListBetween(c.Request.Context(), workspaceID, from, to)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.AppointmentListResponse{Appointments: make([]transport.AppointmentResponse, 0, len(appointments))}
	for _, a := range appointments {
		resp.Appointments = append(resp.Appointments, transport.ToAppointmentResponse(a))
	}
	httpkit.OK(c, resp)
}

// GetByID returns one appointment.
// GET /api/v1/appointments/:id
func (h *Handler) GetByID(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	appointment, err := h.svc.GetAppointment(c.Request.Context(), workspaceID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAppointmentResponse(appointment))
}

// Cancel marks an appointment cancelled, freeing its time.
// POST /api/v1/appointments/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Cancel(c.Request.Context(), workspaceID, id)) {
		return
	}
	httpkit.NoContent(c)
}

// Complete marks an appointment as done.
// POST /api/v1/appointments/:id/complete
func (h *Handler) Complete(c *gin.Context) {
	workspaceID, ok := mustWorkspaceID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Complete(c.Request.Context(), workspaceID, id)) {
		return
	}
	httpkit.NoContent(c)
}

func validTime(hhmm string) bool {
	_, err := time.Parse("15:04", hhmm)
	return err == nil
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

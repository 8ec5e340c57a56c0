// Package appointments provides the consultation scheduling bounded
// context: weekly consultant availability, bookable slot expansion, and
// appointment booking with reminders.
package appointments

import (
	"wacrm_backend/internal/appointments/handler"
	"wacrm_backend/internal/appointments/repository"
	"wacrm_backend/internal/appointments/service"
	"wacrm_backend/internal/email"
	"wacrm_backend/internal/events"
	apphttp "wacrm_backend/internal/http"
	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the scheduling bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the scheduling module.
func NewModule(pool *pgxpool.Pool, reminders service.ReminderScheduler, mailer email.Sender, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, reminders, mailer, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "appointments"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts scheduling routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	slots := ctx.Protected.Group("/slots")
	slots.GET("", m.handler.ListSlots)
	slots.POST("", m.handler.CreateSlot)
	slots.GET("/availability", m.handler.Availability)
	slots.PUT("/:id", m.handler.UpdateSlot)
	slots.DELETE("/:id", m.handler.DeleteSlot)

	appointments := ctx.Protected.Group("/appointments")
	appointments.GET("", m.handler.List)
	appointments.GET("/:id", m.handler.GetByID)
	appointments.POST("/:id/cancel", m.handler.Cancel)
	appointments.POST("/:id/complete", m.handler.Complete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

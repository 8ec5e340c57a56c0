// Package contacts provides the contact bounded context module.
// A contact is a lead reachable over WhatsApp, owned by one workspace.
package contacts

import (
	"wacrm_backend/internal/contacts/handler"
	"wacrm_backend/internal/contacts/repository"
	"wacrm_backend/internal/contacts/service"
	"wacrm_backend/internal/events"
	apphttp "wacrm_backend/internal/http"
	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the contacts module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts contact routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/contacts")
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)
	group.PATCH("/:id", m.handler.Update)
	group.POST("/merge", m.handler.Merge)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

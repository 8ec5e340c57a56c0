package notification

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"wacrm_backend/internal/events"
	apphttp "wacrm_backend/internal/http"
	"wacrm_backend/platform/logger"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	repo    *Repository
	service *Service
	handler *Handler
}

// NewModule creates the notification module and subscribes it to the bus.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, log)
	service.Subscribe(bus)

	return &Module{
		repo:    repo,
		service: service,
		handler: NewHandler(repo),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Service returns the notifier used by the handoff flow.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the notification feed routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/notifications")
	group.GET("", m.handler.List)
	group.GET("/unread-count", m.handler.UnreadCount)
	group.PUT("/read-all", m.handler.MarkAllRead)
	group.PUT("/:id/read", m.handler.MarkRead)
	group.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

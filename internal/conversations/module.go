// Package conversations provides the conversation bounded context module.
// It owns conversation threads, the append-only message log, and manual
// agent replies.
package conversations

import (
	"wacrm_backend/internal/conversations/handler"
	"wacrm_backend/internal/conversations/repository"
	"wacrm_backend/internal/conversations/service"
	"wacrm_backend/internal/events"
	apphttp "wacrm_backend/internal/http"
	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the conversations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the conversations module.
func NewModule(
	pool *pgxpool.Pool,
	contacts service.ContactGetter,
	creds service.CredentialSource,
	sender service.Sender,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, contacts, creds, sender, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversations"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the store for the ingestion pipeline.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts conversation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/conversations")
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)
	group.GET("/:id/messages", m.handler.Messages)
	group.POST("/:id/messages", m.handler.SendMessage)
	group.POST("/:id/read", m.handler.MarkRead)
	group.POST("/:id/reset", m.handler.ResetEpisode)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

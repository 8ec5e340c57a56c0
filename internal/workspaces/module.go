// Package workspaces provides the tenant bounded context module.
// A workspace owns one WhatsApp number and all contacts, conversations,
// and agent settings behind it.
package workspaces

import (
	apphttp "wacrm_backend/internal/http"
	"wacrm_backend/internal/workspaces/handler"
	"wacrm_backend/internal/workspaces/repository"
	"wacrm_backend/internal/workspaces/service"
	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the workspaces bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the workspaces module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "workspaces"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts workspace administration routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	adminGroup := ctx.Admin.Group("/workspaces")
	adminGroup.GET("", m.handler.List)
	adminGroup.POST("", m.handler.Create)
	adminGroup.GET("/:id", m.handler.GetByID)
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.DELETE("/:id", m.handler.Delete)
	adminGroup.GET("/:id/ari-config", m.handler.GetARIConfig)
	adminGroup.PUT("/:id/ari-config", m.handler.UpsertARIConfig)
	adminGroup.GET("/:id/scoring-config", m.handler.GetScoringConfig)
	adminGroup.PUT("/:id/scoring-config", m.handler.UpsertScoringConfig)
	adminGroup.GET("/:id/api-keys", m.handler.ListAPIKeys)
	adminGroup.POST("/:id/api-keys", m.handler.CreateAPIKey)
	adminGroup.DELETE("/:id/api-keys/:keyId", m.handler.RevokeAPIKey)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

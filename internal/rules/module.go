package rules

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "wacrm_backend/internal/http"
	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/validator"
)

// Module is the rules bounded context module implementing http.Module.
type Module struct {
	engine  *Engine
	handler *Handler
	store   Store
}

// NewModule creates the rules module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	store := NewStore(pool)
	return &Module{
		engine:  NewEngine(store, log),
		handler: NewHandler(store, val),
		store:   store,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "rules"
}

// Engine returns the evaluation engine for the ingestion pipeline.
func (m *Module) Engine() *Engine {
	return m.engine
}

// RegisterRoutes mounts rule management routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/rules")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.PUT("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

package webhook

import (
	apphttp "wacrm_backend/internal/http"
	"wacrm_backend/platform/config"
	"wacrm_backend/platform/logger"
)

// Module is the inbound webhook bounded context module.
type Module struct {
	service *Service
	handler *Handler
	secret  string
}

// NewModule creates the webhook module around an assembled batch service.
func NewModule(service *Service, cfg config.WebhookConfig, log *logger.Logger) *Module {
	return &Module{
		service: service,
		handler: NewHandler(service, cfg.GetWebhookVerifyToken(), log),
		secret:  cfg.GetWebhookSecret(),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// Service exposes the batch processor, mainly so shutdown can flush
// in-flight background batches.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the provider-facing endpoints outside the
// authenticated groups; the signature middleware guards the POST.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhook")
	group.GET("/whatsapp", m.handler.Verify)
	group.POST("/whatsapp", SignatureMiddleware(m.secret), m.handler.Receive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

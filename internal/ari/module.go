package ari

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apptsvc "wacrm_backend/internal/appointments/service"
	"wacrm_backend/internal/ari/airouter"
	"wacrm_backend/internal/ari/handoff"
	"wacrm_backend/internal/ari/knowledge"
	contactsvc "wacrm_backend/internal/contacts/service"
	convrepo "wacrm_backend/internal/conversations/repository"
	"wacrm_backend/internal/email"
	"wacrm_backend/internal/events"
	apphttp "wacrm_backend/internal/http"
	"wacrm_backend/internal/whatsapp"
	wssvc "wacrm_backend/internal/workspaces/service"
	"wacrm_backend/platform/ai"
	"wacrm_backend/platform/ai/grok"
	"wacrm_backend/platform/ai/sealion"
	"wacrm_backend/platform/config"
	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/validator"
)

// Deps collects everything the qualification engine depends on from
// other bounded contexts.
type Deps struct {
	Pool          *pgxpool.Pool
	Conversations convrepo.Repository
	Contacts      *contactsvc.Service
	Workspaces    *wssvc.Service
	Appointments  *apptsvc.Service
	WhatsApp      *whatsapp.Client
	Mailer        email.Sender
	Notifier      handoff.Notifier
	Bus           events.Bus
	AIConfig      config.AIConfig
	Validator     *validator.Validator
	Logger        *logger.Logger
}

// Module is the qualification engine bounded context.
type Module struct {
	processor *Processor
	handoffs  *handoff.Service
	knowledge knowledge.Store
	handler   *Handler
}

// NewModule wires the AI backends, handoff orchestrator, knowledge base,
// and message processor.
func NewModule(d Deps) *Module {
	primary := grok.NewModel(grok.Config{
		APIKey:  d.AIConfig.GetGrokAPIKey(),
		BaseURL: d.AIConfig.GetGrokBaseURL(),
		Model:   d.AIConfig.GetGrokModel(),
	})
	secondary := sealion.NewModel(sealion.Config{
		APIKey:  d.AIConfig.GetSealionAPIKey(),
		BaseURL: d.AIConfig.GetSealionBaseURL(),
		Model:   d.AIConfig.GetSealionModel(),
	})
	return NewModuleWithModels(d, primary, secondary)
}

// NewModuleWithModels is NewModule with injectable chat backends.
func NewModuleWithModels(d Deps, primary, secondary ai.ChatModel) *Module {
	knowledgeStore := knowledge.NewStore(d.Pool)
	handoffs := handoff.NewService(d.Conversations, d.Contacts, d.Notifier, d.Mailer, d.Bus, d.Logger)
	router := airouter.New(primary, secondary, d.Logger)

	processor := NewProcessor(
		d.Conversations,
		d.Contacts,
		d.Workspaces,
		knowledgeStore,
		handoffs,
		d.Appointments,
		router,
		d.WhatsApp,
		d.Bus,
		d.Logger,
	)

	return &Module{
		processor: processor,
		handoffs:  handoffs,
		knowledge: knowledgeStore,
		handler:   NewHandler(knowledgeStore, d.Validator),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "ari"
}

// Processor returns the per-message pipeline for the ingestion layer.
func (m *Module) Processor() *Processor {
	return m.processor
}

// Handoffs returns the handoff orchestrator, used by the rules fast path
// when a keyword trigger requests a human.
func (m *Module) Handoffs() *handoff.Service {
	return m.handoffs
}

// RegisterRoutes mounts the destination knowledge base admin routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/destinations")
	group.GET("", m.handler.ListDestinations)
	group.POST("", m.handler.CreateDestination)
	group.PUT("/:id", m.handler.UpdateDestination)
	group.DELETE("/:id", m.handler.DeleteDestination)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

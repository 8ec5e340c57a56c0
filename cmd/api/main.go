package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wacrm_backend/internal/adapters/storage"
	"wacrm_backend/internal/appointments"
	apptsvc "wacrm_backend/internal/appointments/service"
	"wacrm_backend/internal/ari"
	"wacrm_backend/internal/contacts"
	"wacrm_backend/internal/conversations"
	"wacrm_backend/internal/email"
	"wacrm_backend/internal/events"
	apphttp "wacrm_backend/internal/http"
	"wacrm_backend/internal/http/router"
	"wacrm_backend/internal/notification"
	"wacrm_backend/internal/rules"
	"wacrm_backend/internal/scheduler"
	"wacrm_backend/internal/webhook"
	"wacrm_backend/internal/whatsapp"
	"wacrm_backend/internal/workspaces"
	"wacrm_backend/platform/config"
	"wacrm_backend/platform/db"
	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	mailer := email.NewSender(cfg)
	whatsappClient := whatsapp.NewClient(cfg.SendRatePerSecond, cfg.SendBurst, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	archiver := initMediaArchiver(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	workspacesModule := workspaces.NewModule(pool, val, log)
	contactsModule := contacts.NewModule(pool, eventBus, val, log)
	conversationsModule := conversations.NewModule(
		pool, contactsModule.Service(), workspacesModule.Service(), whatsappClient, eventBus, val, log)
	appointmentsModule := appointments.NewModule(pool, reminderScheduler, mailer, eventBus, val, log)
	rulesModule := rules.NewModule(pool, val, log)
	notificationModule := notification.NewModule(pool, eventBus, log)

	ariModule := ari.NewModule(ari.Deps{
		Pool:          pool,
		Conversations: conversationsModule.Repository(),
		Contacts:      contactsModule.Service(),
		Workspaces:    workspacesModule.Service(),
		Appointments:  appointmentsModule.Service(),
		WhatsApp:      whatsappClient,
		Mailer:        mailer,
		Notifier:      notificationModule.Service(),
		Bus:           eventBus,
		AIConfig:      cfg,
		Validator:     val,
		Logger:        log,
	})

	webhookService := webhook.NewService(
		workspacesModule.Service(),
		contactsModule.Service(),
		conversationsModule.Repository(),
		rulesModule.Engine(),
		ariModule.Processor(),
		whatsappClient,
		ariModule.Handoffs(),
		archiver,
		log,
	)
	webhookModule := webhook.NewModule(webhookService, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		APIKeys:  workspacesModule.Service(),
		Modules: []apphttp.Module{
			workspacesModule,
			contactsModule,
			conversationsModule,
			appointmentsModule,
			rulesModule,
			ariModule,
			notificationModule,
			webhookModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		// Webhook batches already acknowledged with 200 must finish processing.
		webhookService.Wait()
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (apptsvc.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; appointment reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func initMediaArchiver(ctx context.Context, cfg *config.Config, log *logger.Logger) webhook.MediaArchiver {
	if !cfg.IsMediaArchivalEnabled() {
		log.Info("media archival disabled; inbound media kept as provider URLs")
		return nil
	}

	store, err := storage.NewMediaStore(cfg)
	if err != nil {
		log.Error("failed to initialize media store", "error", err)
		panic("failed to initialize media store: " + err.Error())
	}

	if err := withRetry(ctx, log, "ensure media bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucket(ctx)
	}); err != nil {
		log.Error("failed to ensure media bucket exists", "error", err)
		panic("failed to ensure media bucket exists: " + err.Error())
	}

	log.Info("media archival enabled", "bucket", cfg.GetMinioBucketMedia())
	return storage.NewArchiver(store)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

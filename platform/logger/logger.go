// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// WorkspaceIDKey is the context key for the tenant workspace ID
	WorkspaceIDKey contextKey = "workspace_id"
	// ContactIDKey is the context key for the contact being processed
	ContactIDKey contextKey = "contact_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id, workspace_id, and contact_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if workspaceID, ok := ctx.Value(WorkspaceIDKey).(string); ok && workspaceID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("workspace_id", workspaceID))}
	}

	if contactID, ok := ctx.Value(ContactIDKey).(string); ok && contactID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("contact_id", contactID))}
	}

	return newLogger
}

// WithWorkspace returns a logger scoped to a workspace.
func (l *Logger) WithWorkspace(workspaceID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("workspace_id", workspaceID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// WebhookEvent logs a processed webhook delivery.
func (l *Logger) WebhookEvent(workspaceID string, total, deduped, failed int) {
	l.Info("webhook_batch",
		slog.String("workspace_id", workspaceID),
		slog.Int("messages", total),
		slog.Int("deduped", deduped),
		slog.Int("failed", failed),
	)
}

// AIGeneration logs a text-generation call with model and timing.
func (l *Logger) AIGeneration(model string, latencyMs int64, tokens *int, fallback bool) {
	attrs := []any{
		slog.String("model", model),
		slog.Int64("latency_ms", latencyMs),
		slog.Bool("fallback", fallback),
	}
	if tokens != nil {
		attrs = append(attrs, slog.Int("tokens", *tokens))
	}
	l.Info("ai_generation", attrs...)
}

// StateTransition logs a conversation state change.
func (l *Logger) StateTransition(conversationID, from, to, reason string) {
	l.Info("state_transition",
		slog.String("conversation_id", conversationID),
		slog.String("from", from),
		slog.String("to", to),
		slog.String("reason", reason),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

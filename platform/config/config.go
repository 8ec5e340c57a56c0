// Package config provides environment-based configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Interface segregation: modules depend only on the config views they need.

// HTTPConfig exposes HTTP server settings.
type HTTPConfig interface {
	GetEnv() string
	GetHTTPAddr() string
	GetCORSOrigins() []string
	GetCORSAllowAll() bool
}

// DatabaseConfig exposes database settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig exposes token verification settings for the admin API.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// WebhookConfig exposes inbound webhook settings.
type WebhookConfig interface {
	GetWebhookSecret() string
	GetWebhookVerifyToken() string
}

// AIConfig exposes text-generation backend settings.
type AIConfig interface {
	GetGrokAPIKey() string
	GetGrokBaseURL() string
	GetGrokModel() string
	GetSealionAPIKey() string
	GetSealionBaseURL() string
	GetSealionModel() string
	GetGrokWeight() int
}

// SchedulerConfig exposes background job settings.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
}

// EmailConfig exposes SMTP settings for consultant notifications.
type EmailConfig interface {
	IsEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// StorageConfig exposes object storage settings for media archival.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketMedia() string
}

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll bool
	CORSOrigins  []string

	// Inbound webhook verification.
	WebhookSecret      string
	WebhookVerifyToken string

	// Text-generation backends.
	GrokAPIKey     string
	GrokBaseURL    string
	GrokModel      string
	SealionAPIKey  string
	SealionBaseURL string
	SealionModel   string
	GrokWeight     int

	// Background jobs (asynq over redis).
	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string

	// Consultant notification email.
	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	// Media archival object storage.
	MinIOEndpoint    string
	MinIOAccessKey   string
	MinIOSecretKey   string
	MinIOUseSSL      bool
	MinioBucketMedia string

	// Outbound messaging rate limit.
	SendRatePerSecond float64
	SendBurst         int

	// Appointment reminder lead time.
	ReminderLeadTime time.Duration
}

func (c *Config) GetEnv() string             { return c.Env }
func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetWebhookSecret() string      { return c.WebhookSecret }
func (c *Config) GetWebhookVerifyToken() string { return c.WebhookVerifyToken }

func (c *Config) GetGrokAPIKey() string     { return c.GrokAPIKey }
func (c *Config) GetGrokBaseURL() string    { return c.GrokBaseURL }
func (c *Config) GetGrokModel() string      { return c.GrokModel }
func (c *Config) GetSealionAPIKey() string  { return c.SealionAPIKey }
func (c *Config) GetSealionBaseURL() string { return c.SealionBaseURL }
func (c *Config) GetSealionModel() string   { return c.SealionModel }
func (c *Config) GetGrokWeight() int        { return c.GrokWeight }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }

func (c *Config) IsEmailEnabled() bool        { return c.EmailEnabled && c.SMTPHost != "" }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

func (c *Config) GetMinIOEndpoint() string    { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string   { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string   { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool        { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketMedia() string { return c.MinioBucketMedia }

// IsMediaArchivalEnabled reports whether inbound media should be archived.
func (c *Config) IsMediaArchivalEnabled() bool { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	grokWeight, err := strconv.Atoi(getEnv("AI_GROK_WEIGHT", "50"))
	if err != nil || grokWeight < 0 || grokWeight > 100 {
		return nil, fmt.Errorf("AI_GROK_WEIGHT must be an integer in [0,100]")
	}

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:    corsAllowAll,
		CORSOrigins:     corsOrigins,

		WebhookSecret:      getEnv("WEBHOOK_SECRET", ""),
		WebhookVerifyToken: getEnv("WEBHOOK_VERIFY_TOKEN", ""),

		GrokAPIKey:     getEnv("GROK_API_KEY", ""),
		GrokBaseURL:    getEnv("GROK_BASE_URL", "https://api.x.ai/v1"),
		GrokModel:      getEnv("GROK_MODEL", "grok-3"),
		SealionAPIKey:  getEnv("SEALION_API_KEY", ""),
		SealionBaseURL: getEnv("SEALION_BASE_URL", "https://api.sea-lion.ai/v1"),
		SealionModel:   getEnv("SEALION_MODEL", "aisingapore/Gemma-SEA-LION-v3-9B-IT"),
		GrokWeight:     grokWeight,

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "ARI"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		MinIOEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:      strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketMedia: getEnv("MINIO_BUCKET_MEDIA", "wa-media"),

		SendRatePerSecond: mustFloat(getEnv("SEND_RATE_PER_SECOND", "10")),
		SendBurst:         mustInt(getEnv("SEND_BURST", "20")),

		ReminderLeadTime: mustDuration(getEnv("REMINDER_LEAD_TIME", "1h")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

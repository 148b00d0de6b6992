package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode     string `ignored:"true"` // Set via flag, not env
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Storage
	StoreBackend string `envconfig:"STORE_BACKEND" default:"mongo"`
	MongoURI     string `envconfig:"MONGO_URI"`
	MongoDbName  string `envconfig:"MONGO_DB_NAME" default:"careops"`

	// Redis
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// JWT
	JwtSecret     string `envconfig:"JWT_SECRET" required:"true"`
	JwtTTLMinutes int    `envconfig:"JWT_TTL_MINUTES" default:"1440"`

	// Server
	ApiPort        string   `envconfig:"API_PORT" default:"8080"`
	ServiceApiPort string   `envconfig:"SERVICE_API_PORT" default:"12345"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Email
	SmtpHost        string `envconfig:"SMTP_HOST"`
	SmtpPort        int    `envconfig:"SMTP_PORT" default:"587"`
	SmtpUsername    string `envconfig:"SMTP_USERNAME"`
	SmtpPassword    string `envconfig:"SMTP_PASSWORD"`
	SmtpFromAddress string `envconfig:"SMTP_FROM_ADDRESS" default:"noreply@careops.example.com"`

	// Notifications
	MockServices         bool   `envconfig:"MOCK_SERVICES" default:"false"`
	LogNotifications     string `envconfig:"LOG_NOTIFICATIONS"`
	NotifyTimeoutSeconds int    `envconfig:"NOTIFY_TIMEOUT_SECONDS" default:"10"`

	// Webhooks
	RabbitURL       string `envconfig:"RABBIT_URL"`
	WebhookExchange string `envconfig:"WEBHOOK_EXCHANGE" default:"careops.events"`

	// Background worker
	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"10"`

	// Rate Limiting Defaults
	RateLimitBucketSize int `envconfig:"RATE_LIMIT_BUCKET_SIZE" default:"10"`
	RateLimitRefillRate int `envconfig:"RATE_LIMIT_REFILL_RATE" default:"1"` // tokens per second
}

// JwtTTL is the lifetime of an issued access token.
func (c *Config) JwtTTL() time.Duration {
	return time.Duration(c.JwtTTLMinutes) * time.Minute
}

// NotifyTimeout bounds a single notification provider call.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutSeconds) * time.Second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.RunMode = runMode

	switch strings.ToLower(cfg.StoreBackend) {
	case "mongo":
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("missing required environment variable: MONGO_URI")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", cfg.StoreBackend)
	}
	if cfg.WorkerConcurrency <= 0 {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %d", cfg.WorkerConcurrency)
	}
	if cfg.NotifyTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEOUT_SECONDS: %d", cfg.NotifyTimeoutSeconds)
	}
	return cfg, nil
}

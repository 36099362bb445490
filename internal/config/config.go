// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // REMINDER_TIMEZONE must resolve in minimal containers

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/ulule/limiter/v3"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Database
	DatabasePath string // Path to SQLite file

	// Authentication
	JWTSecret string // HS256 secret shared with the auth provider

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Chat proxy
	OpenAIAPIKey  string
	OpenAIBaseURL string // empty means the provider default
	OpenAIModel   string
	ChatRateLimit string // limiter format, e.g. "20-M"; empty disables

	// Reminders
	RedisURL         string // optional; enables the asynq queue
	ReminderSchedule string // cron spec, minute resolution
	ReminderTimezone string // IANA zone name
	NotifyWebhookURL string // optional delivery target
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// DefaultOpenAIModel is the chat model used when OPENAI_MODEL is unset.
const DefaultOpenAIModel = "gpt-4o-mini"

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// No-op in production where env vars are set directly
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	cfg.DatabasePath = getEnv("DATABASE_PATH", "./data/wellness.db")

	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", "")
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", DefaultOpenAIModel)
	cfg.ChatRateLimit = getEnv("CHAT_RATE_LIMIT", "20-M")

	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.ReminderSchedule = getEnv("REMINDER_SCHEDULE", "0 8 * * *")
	cfg.ReminderTimezone = getEnv("REMINDER_TIMEZONE", "UTC")
	cfg.NotifyWebhookURL = getEnv("NOTIFY_WEBHOOK_URL", "")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	// Development may run without tokens; every request is then the "default" user.
	if c.Env == EnvProduction && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if c.ChatRateLimit != "" {
		if _, err := limiter.NewRateFromFormatted(c.ChatRateLimit); err != nil {
			errs = append(errs, fmt.Errorf("CHAT_RATE_LIMIT %q: %w", c.ChatRateLimit, err))
		}
	}

	if c.ReminderSchedule != "" {
		if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
			errs = append(errs, fmt.Errorf("REMINDER_SCHEDULE %q: %w", c.ReminderSchedule, err))
		}
	}

	if _, err := time.LoadLocation(c.ReminderTimezone); err != nil {
		errs = append(errs, fmt.Errorf("REMINDER_TIMEZONE %q: %w", c.ReminderTimezone, err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// ChatEnabled reports whether the chat proxy has credentials.
func (c *Config) ChatEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// RemindersEnabled reports whether the daily reminder job should run.
func (c *Config) RemindersEnabled() bool {
	return c.ReminderSchedule != ""
}

// Location returns the reminder time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// WebhookConfig provides the shared secret for database webhook callers.
type WebhookConfig interface {
	GetWebhookSecret() string
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// CacheConfig provides settings for the Redis-backed read cache.
type CacheConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetProfileCacheTTL() time.Duration
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// MarketSignalConfig provides settings for the market signal detector.
type MarketSignalConfig interface {
	GetMarketSignalCron() string
	GetMarketSignalTTL() time.Duration
	GetMarketSignalRulesFile() string
	GetMarketSignalCleanupInterval() time.Duration
}

// PhoneConfig provides the default region for phone number parsing.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	RunMigrations               bool
	JWTAccessSecret             string
	WebhookSecret               string
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	ProfileCacheTTL             time.Duration
	SMTPHost                    string
	SMTPPort                    int
	SMTPUsername                string
	SMTPPassword                string
	EmailFromName               string
	EmailFromAddress            string
	MarketSignalCron            string
	MarketSignalTTL             time.Duration
	MarketSignalRulesFile       string
	MarketSignalCleanupInterval time.Duration
	PhoneDefaultRegion          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// WebhookConfig implementation
func (c *Config) GetWebhookSecret() string { return c.WebhookSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// CacheConfig implementation
func (c *Config) GetProfileCacheTTL() time.Duration { return c.ProfileCacheTTL }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.SMTPHost != "" }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// MarketSignalConfig implementation
func (c *Config) GetMarketSignalCron() string       { return c.MarketSignalCron }
func (c *Config) GetMarketSignalTTL() time.Duration { return c.MarketSignalTTL }
func (c *Config) GetMarketSignalRulesFile() string  { return c.MarketSignalRulesFile }
func (c *Config) GetMarketSignalCleanupInterval() time.Duration {
	return c.MarketSignalCleanupInterval
}

// PhoneConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return loadFrom(os.LookupEnv)
}

// loadFrom builds and validates a Config from the given lookup function.
// Every malformed value is rejected instead of silently falling back.
func loadFrom(lookup func(string) (string, bool)) (*Config, error) {
	env := envReader{lookup: lookup}

	corsOrigins := splitCSV(env.get("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := env.bool("CORS_ALLOW_ALL", false)
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                         env.get("APP_ENV", "development"),
		HTTPAddr:                    env.get("HTTP_ADDR", ":8080"),
		DatabaseURL:                 env.get("DATABASE_URL", ""),
		RunMigrations:               env.bool("RUN_MIGRATIONS", true),
		JWTAccessSecret:             env.get("JWT_ACCESS_SECRET", ""),
		WebhookSecret:               env.get("WEBHOOK_SECRET", ""),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              env.bool("CORS_ALLOW_CREDENTIALS", true),
		RedisURL:                    env.get("REDIS_URL", ""),
		RedisTLSInsecure:            env.bool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:              env.get("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:            env.int("ASYNQ_CONCURRENCY", 10),
		ProfileCacheTTL:             env.duration("PROFILE_CACHE_TTL", 5*time.Minute),
		SMTPHost:                    env.get("SMTP_HOST", ""),
		SMTPPort:                    env.int("SMTP_PORT", 587),
		SMTPUsername:                env.get("SMTP_USERNAME", ""),
		SMTPPassword:                env.get("SMTP_PASSWORD", ""),
		EmailFromName:               env.get("EMAIL_FROM_NAME", "CarMarket"),
		EmailFromAddress:            env.get("EMAIL_FROM_ADDRESS", ""),
		MarketSignalCron:            env.get("MARKET_SIGNAL_CRON", "@every 6h"),
		MarketSignalTTL:             env.duration("MARKET_SIGNAL_TTL", 7*24*time.Hour),
		MarketSignalRulesFile:       env.get("MARKET_SIGNAL_RULES_FILE", ""),
		MarketSignalCleanupInterval: env.duration("MARKET_SIGNAL_CLEANUP_INTERVAL", time.Hour),
		PhoneDefaultRegion:          strings.ToUpper(env.get("PHONE_DEFAULT_REGION", "IN")),
	}

	if len(env.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(env.errs, "; "))
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.SMTPHost != "" && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.AsynqConcurrency < 1 {
		return nil, fmt.Errorf("ASYNQ_CONCURRENCY must be positive")
	}
	if cfg.MarketSignalTTL <= 0 {
		return nil, fmt.Errorf("MARKET_SIGNAL_TTL must be positive")
	}
	if _, err := cron.ParseStandard(cfg.MarketSignalCron); err != nil {
		return nil, fmt.Errorf("MARKET_SIGNAL_CRON is invalid: %w", err)
	}
	if len(cfg.PhoneDefaultRegion) != 2 {
		return nil, fmt.Errorf("PHONE_DEFAULT_REGION must be a two-letter region code")
	}

	return cfg, nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []string
}

func (r *envReader) get(key, fallback string) string {
	if val, ok := r.lookup(key); ok {
		return strings.TrimSpace(val)
	}
	return fallback
}

func (r *envReader) bool(key string, fallback bool) bool {
	raw := r.get(key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		r.errs = append(r.errs, key+" must be a boolean")
		return fallback
	}
	return parsed
}

func (r *envReader) int(key string, fallback int) int {
	raw := r.get(key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, key+" must be an integer")
		return fallback
	}
	return parsed
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	raw := r.get(key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, key+" must be a duration")
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

package server

import (
	"fmt"
	"time"

	"github.com/ManuelReschke/TenantFox/internal/pkg/archive"
	"github.com/ManuelReschke/TenantFox/internal/pkg/billing"
	"github.com/ManuelReschke/TenantFox/internal/pkg/cache"
	"github.com/ManuelReschke/TenantFox/internal/pkg/env"
	"github.com/ManuelReschke/TenantFox/internal/pkg/ratelimit"
)

// Config is the process configuration read from the environment.
type Config struct {
	Host        string
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string

	DatabaseURL         string
	AutoMigrate         bool
	StripeWebhookSecret string
	IdempotencyTTL      time.Duration

	Cache     cache.Config
	Archive   *archive.Config
	RateLimit ratelimit.Config

	OpenAPIFile string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Host:                env.GetEnv("APP_HOST", "localhost"),
		Port:                env.GetEnv("APP_PORT", "4000"),
		Environment:         env.GetEnv("APP_ENV", "prod"),
		LogLevel:            env.GetEnv("LOG_LEVEL", "info"),
		LogFormat:           env.GetEnv("LOG_FORMAT", "json"),
		DatabaseURL:         env.GetEnv("DATABASE_URL", "sqlite://./data/app.db"),
		AutoMigrate:         env.GetBool("DB_AUTO_MIGRATE", true),
		StripeWebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		IdempotencyTTL:      env.GetDuration("IDEMPOTENCY_CACHE_TTL", billing.DefaultSeenTTL),
		RateLimit:           ratelimit.LoadConfig(),
		OpenAPIFile:         env.GetEnv("OPENAPI_FILE", "./internal/api/v1/openapi.yml"),
	}

	cacheCfg, err := cache.LoadConfig()
	if err != nil {
		return cfg, err
	}
	cfg.Cache = cacheCfg

	archiveCfg, err := archive.LoadConfig()
	if err != nil {
		return cfg, err
	}
	cfg.Archive = archiveCfg

	return cfg, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

package ratelimit

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
	"github.com/ManuelReschke/TenantFox/internal/pkg/cache"
	"github.com/ManuelReschke/TenantFox/internal/pkg/env"
)

// Limiter counters live in their own Redis database; the cache uses DB 0.
const storageDatabase = 1

type Config struct {
	Max    int
	Window time.Duration
}

// LoadConfig reads AUTH_RATE_LIMIT_MAX and AUTH_RATE_LIMIT_WINDOW.
func LoadConfig() Config {
	cfg := Config{
		Max:    20,
		Window: env.GetDuration("AUTH_RATE_LIMIT_WINDOW", time.Minute),
	}
	if n := env.GetInt("AUTH_RATE_LIMIT_MAX", cfg.Max); n > 0 {
		cfg.Max = n
	}
	return cfg
}

// NewRedisStorage returns limiter storage shared across instances, or nil when
// no cache host is configured (fiber then keeps counters in memory).
func NewRedisStorage(cfg cache.Config) fiber.Storage {
	if !cfg.Enabled() {
		return nil
	}
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: storageDatabase,
		Reset:    false,
	})
}

// New limits requests per client IP. Exhausted clients get a rate_limited error.
func New(cfg Config, storage fiber.Storage) fiber.Handler {
	lc := limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "auth:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperror.New(apperror.RateLimited, "Too many requests. Please try again later.")
		},
	}
	if storage != nil {
		lc.Storage = storage
	}
	return limiter.New(lc)
}

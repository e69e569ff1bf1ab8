package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ManuelReschke/TenantFox/internal/pkg/account"
	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
	"github.com/ManuelReschke/TenantFox/internal/pkg/archive"
	"github.com/ManuelReschke/TenantFox/internal/pkg/billing"
	"github.com/ManuelReschke/TenantFox/internal/pkg/cache"
	"github.com/ManuelReschke/TenantFox/internal/pkg/database"
	"github.com/ManuelReschke/TenantFox/internal/pkg/metrics"
	"github.com/ManuelReschke/TenantFox/internal/pkg/ratelimit"
	"github.com/ManuelReschke/TenantFox/internal/pkg/router"
	"github.com/ManuelReschke/TenantFox/internal/pkg/tenantcontext"
)

const bodyLimit = 1 << 20

// Server owns the HTTP application and the resources behind it.
type Server struct {
	App   *fiber.App
	DB    *gorm.DB
	cache *cache.Store
	log   *zap.Logger
}

// New connects the database and optional backends and assembles the application.
// Redis and S3 are optional; when unconfigured the service runs without them.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	return NewWithDB(ctx, cfg, db, log)
}

// NewWithDB assembles the application on an already migrated database.
func NewWithDB(ctx context.Context, cfg Config, db *gorm.DB, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{DB: db, log: log}

	registry := metrics.NewRegistry()
	m := metrics.NewMetrics(registry)

	billingOpts := []billing.Option{
		billing.WithMetrics(m),
		billing.WithLogger(log),
	}

	var limiterStorage fiber.Storage
	if cfg.Cache.Enabled() {
		store, err := cache.New(ctx, cfg.Cache, log)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		s.cache = store
		billingOpts = append(billingOpts, billing.WithSeenCache(store, cfg.IdempotencyTTL))
		limiterStorage = ratelimit.NewRedisStorage(cfg.Cache)
	}

	if cfg.Archive.IsEnabled() {
		archiver, err := archive.NewClient(ctx, cfg.Archive, log)
		if err != nil {
			return nil, fmt.Errorf("create archive client: %w", err)
		}
		billingOpts = append(billingOpts, billing.WithArchiver(archiver))
	}

	deps := router.Dependencies{
		Accounts:       account.NewService(db, m, log),
		Billing:        billing.NewServiceFromDB(db, cfg.StripeWebhookSecret, billingOpts...),
		Metrics:        m,
		Registry:       registry,
		RateLimit:      cfg.RateLimit,
		LimiterStorage: limiterStorage,
		OpenAPIFile:    cfg.OpenAPIFile,
	}

	s.App = NewApplication(deps, log)
	return s, nil
}

// NewApplication builds the fiber app with the shared middleware and error
// handler, then installs the routes.
func NewApplication(deps router.Dependencies, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "TenantFox",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(
		recover.New(),
		requestid.New(),
		fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} org=${locals:organization_id} ${status} - ${latency} ${method} ${path}\n",
		}),
	)
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
	}

	router.InstallRouter(app, deps)
	return app
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := apperror.Response(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals("requestid")),
				zap.Uint("organization_id", tenantcontext.GetOrganizationID(c)),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(body)
	}
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info("starting http server", zap.String("addr", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting requests, waits for in-flight ones and closes the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.App != nil {
		if err := s.App.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ManuelReschke/TenantFox/internal/pkg/account"
	"github.com/ManuelReschke/TenantFox/internal/pkg/billing"
	"github.com/ManuelReschke/TenantFox/internal/pkg/metrics"
	"github.com/ManuelReschke/TenantFox/internal/pkg/ratelimit"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the services the routes are bound to.
type Dependencies struct {
	Accounts *account.Service
	Billing  *billing.Service
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	RateLimit      ratelimit.Config
	LimiterStorage fiber.Storage

	// OpenAPIFile is served under /docs/api when the file exists.
	OpenAPIFile string
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// Public routes first so /health and /metrics never hit token auth.
	setup(app, NewPublicRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}

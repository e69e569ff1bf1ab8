package router

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/app/controllers"
	"github.com/ManuelReschke/TenantFox/internal/pkg/constants"
	apiv1 "github.com/ManuelReschke/TenantFox/internal/api/v1"
	"github.com/ManuelReschke/TenantFox/internal/pkg/metrics"
)

// PublicRouter installs the unauthenticated surface.
type PublicRouter struct {
	deps Dependencies
}

func NewPublicRouter(deps Dependencies) *PublicRouter {
	return &PublicRouter{deps: deps}
}

func (h PublicRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.HealthRoute, controllers.HandleHealth)

	if h.deps.Registry != nil {
		app.Get(constants.MetricsRoute, metrics.Handler(h.deps.Registry))
	}

	// SWAGGER / OPENAPI
	app.Get(constants.OpenAPISpecRoute, apiv1.SpecHandler())
	if h.deps.OpenAPIFile != "" {
		if _, err := os.Stat(h.deps.OpenAPIFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: constants.SwaggerBasePath,
				FilePath: h.deps.OpenAPIFile,
				Path:     "v1",
				Title:    "TenantFox API",
			}))
		}
	}

	billingController := controllers.NewBillingController(h.deps.Billing)
	app.Get(constants.PlansRoute, billingController.HandleListPlans)
	app.Post(constants.StripeWebhookPath, billingController.HandleStripeWebhook)
}

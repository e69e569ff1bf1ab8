package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/app/controllers"
	"github.com/ManuelReschke/TenantFox/internal/pkg/constants"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TenantFox/internal/pkg/middleware"
	"github.com/ManuelReschke/TenantFox/internal/pkg/ratelimit"
)

// ApiRouter installs the auth endpoints and every route behind token auth.
type ApiRouter struct {
	deps Dependencies
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	authController := controllers.NewAuthController(h.deps.Accounts)
	orgController := controllers.NewOrganizationController(h.deps.Accounts)
	billingController := controllers.NewBillingController(h.deps.Billing)
	featureController := controllers.NewFeatureController(h.deps.Metrics)
	reportController := controllers.NewReportController(h.deps.Accounts)

	requireToken := middleware.TokenAuthMiddleware(h.deps.Accounts)

	auth := app.Group(constants.AuthGroup, ratelimit.New(h.deps.RateLimit, h.deps.LimiterStorage))
	auth.Post("/register", authController.HandleRegister)
	auth.Post("/login", authController.HandleLogin)
	auth.Post("/tokens/rotate", requireToken, authController.HandleRotateToken)

	orgs := app.Group(constants.OrganizationGroup, requireToken)
	orgs.Get("/", orgController.HandleGetMyOrganization)
	orgs.Get("/users", orgController.HandleListUsers)
	orgs.Post("/users", middleware.RequireOwner, orgController.HandleCreateUser)
	orgs.Delete("/users/:id", middleware.RequireOwner, orgController.HandleDeleteUser)

	billing := app.Group(constants.SubscriptionGroup, requireToken)
	billing.Get("/", billingController.HandleGetSubscription)
	billing.Patch("/", middleware.RequireOwner, billingController.HandlePatchSubscription)

	app.Get(constants.FeatureRoute, requireToken, featureController.HandleFeatureAccess)
	app.Get(constants.AdvancedReport, requireToken,
		middleware.RequireFeature(entitlements.FeatureAdvancedReports, h.deps.Metrics),
		reportController.HandleAdvancedReport)
}

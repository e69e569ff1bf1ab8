package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TenantFox/internal/pkg/metrics"
	"github.com/ManuelReschke/TenantFox/internal/pkg/tenantcontext"
)

// RequireOwner rejects callers that are not an owner of their organization.
func RequireOwner(c *fiber.Ctx) error {
	if _, err := tenantcontext.Require(c); err != nil {
		return err
	}
	if !tenantcontext.IsOwner(c) {
		return apperror.New(apperror.AuthorizationDenied, "Owner role required.")
	}
	return c.Next()
}

// RequireFeature gates a route on the caller's plan and billing status.
func RequireFeature(feature entitlements.Feature, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := tenantcontext.Require(c)
		if err != nil {
			return err
		}
		allowed := entitlements.CanAccess(p.Subscription, feature)
		m.ObserveFeatureCheck(string(feature), allowed)
		if !allowed {
			return apperror.Newf(apperror.AuthorizationDenied, "Feature %s is not available on the current plan.", feature)
		}
		return c.Next()
	}
}

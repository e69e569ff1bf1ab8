package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TenantFox/internal/pkg/metrics"
	"github.com/ManuelReschke/TenantFox/internal/pkg/tenantcontext"
)

// FeatureController answers feature gate questions for the caller's organization.
type FeatureController struct {
	metrics *metrics.Metrics
}

func NewFeatureController(m *metrics.Metrics) *FeatureController {
	return &FeatureController{metrics: m}
}

// GET /features/:feature_key
func (fc *FeatureController) HandleFeatureAccess(c *fiber.Ctx) error {
	p, err := tenantcontext.Require(c)
	if err != nil {
		return err
	}

	feature := entitlements.Feature(strings.ToLower(strings.TrimSpace(c.Params("feature_key"))))
	required, ok := entitlements.RequiredPlan(feature)
	if !ok {
		return apperror.Newf(apperror.NotFound, "Unknown feature: %s", feature)
	}

	allowed := entitlements.CanAccess(p.Subscription, feature)
	fc.metrics.ObserveFeatureCheck(string(feature), allowed)

	return c.JSON(fiber.Map{
		"feature":       feature,
		"plan":          p.Subscription.Plan,
		"status":        p.Subscription.Status,
		"required_plan": required,
		"allowed":       allowed,
	})
}

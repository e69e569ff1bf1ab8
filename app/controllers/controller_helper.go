package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/app/models"
	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TenantFox/internal/pkg/utils"
)

// parseBody decodes a JSON request body into out.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return apperror.New(apperror.ValidationFailed, "Request body is required.")
	}
	if err := c.BodyParser(out); err != nil {
		return apperror.Wrap(apperror.ValidationFailed, "Invalid JSON body.", err)
	}
	return nil
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Newf(apperror.ValidationFailed, "Parameter %s must be a positive integer.", name)
	}
	return uint(id), nil
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func serializeOrganization(org *models.Organization) fiber.Map {
	return fiber.Map{
		"id":         org.ID,
		"uuid":       org.UUID,
		"name":       org.Name,
		"slug":       org.Slug,
		"created_at": org.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func serializeUser(u *models.User) fiber.Map {
	return fiber.Map{
		"id":              u.ID,
		"organization_id": u.OrganizationID,
		"email":           u.Email,
		"full_name":       u.FullName,
		"role":            u.Role,
		"avatar_url":      utils.GetGravatarURL(u.Email, 0),
		"created_at":      u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// serializeSubscription includes the effective limits and the features the
// subscription currently grants, status override applied.
func serializeSubscription(sub *models.Subscription) fiber.Map {
	plan, _ := entitlements.ParsePlan(sub.Plan)
	def := entitlements.Definition(plan)

	features := make([]entitlements.Feature, 0, len(def.Features))
	for _, f := range def.Features {
		if entitlements.CanAccess(sub, f) {
			features = append(features, f)
		}
	}

	return fiber.Map{
		"plan":                   sub.Plan,
		"status":                 sub.Status,
		"stripe_customer_id":     sub.StripeCustomerID,
		"stripe_subscription_id": sub.StripeSubscriptionID,
		"current_period_start":   formatTimePtr(sub.CurrentPeriodStart),
		"current_period_end":     formatTimePtr(sub.CurrentPeriodEnd),
		"limits":                 def.Limits,
		"features":               features,
	}
}

package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TenantFox/internal/pkg/account"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TenantFox/internal/pkg/tenantcontext"
)

// ReportController serves reports gated behind the advanced_reports feature.
type ReportController struct {
	accounts *account.Service
}

func NewReportController(accounts *account.Service) *ReportController {
	return &ReportController{accounts: accounts}
}

// GET /reports/advanced, mounted behind RequireFeature(advanced_reports)
func (rc *ReportController) HandleAdvancedReport(c *fiber.Ctx) error {
	p, err := tenantcontext.Require(c)
	if err != nil {
		return err
	}

	users, err := rc.accounts.ListMembers(c.UserContext(), p.Organization.ID)
	if err != nil {
		return err
	}
	owners := 0
	for i := range users {
		if users[i].IsOwner() {
			owners++
		}
	}
	maxUsers := entitlements.LimitFor(p.Subscription, entitlements.LimitMaxUsers)

	return c.JSON(fiber.Map{
		"report": "advanced",
		"organization": fiber.Map{
			"id":   p.Organization.ID,
			"slug": p.Organization.Slug,
		},
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"seats": fiber.Map{
			"used":      len(users),
			"owners":    owners,
			"members":   len(users) - owners,
			"limit":     maxUsers,
			"remaining": maxUsers - int64(len(users)),
		},
		"plan":   p.Subscription.Plan,
		"status": p.Subscription.Status,
	})
}

package billing

import (
	"strings"

	"github.com/ManuelReschke/TenantFox/app/models"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
)

// normalizePlan maps provider plan names (nicknames, lookup keys) to a tier.
// Returns "" when nothing matches.
func normalizePlan(plan string) entitlements.Plan {
	p := strings.ToLower(strings.TrimSpace(plan))
	switch {
	case p == "":
		return ""
	case strings.Contains(p, "enterprise"):
		return entitlements.PlanEnterprise
	case strings.Contains(p, "growth"), strings.Contains(p, "pro"):
		return entitlements.PlanGrowth
	case strings.Contains(p, "starter"), strings.Contains(p, "basic"):
		return entitlements.PlanStarter
	default:
		return ""
	}
}

// normalizeStatus maps provider subscription statuses to the local status set.
// Returns "" for unknown statuses so the stored value is left untouched.
func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "trialing":
		return models.BillingStatusTrialing
	case "active":
		return models.BillingStatusActive
	case "past_due", "unpaid":
		return models.BillingStatusPastDue
	case "canceled", "cancelled", "incomplete", "incomplete_expired":
		return models.BillingStatusCanceled
	default:
		return ""
	}
}

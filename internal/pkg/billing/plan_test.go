package billing

import (
	"testing"

	"github.com/ManuelReschke/TenantFox/app/models"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
)

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		in   string
		want entitlements.Plan
	}{
		{in: "starter", want: entitlements.PlanStarter},
		{in: "Basic Monthly", want: entitlements.PlanStarter},
		{in: "growth", want: entitlements.PlanGrowth},
		{in: "PRO yearly", want: entitlements.PlanGrowth},
		{in: "Enterprise", want: entitlements.PlanEnterprise},
		{in: "enterprise-pro", want: entitlements.PlanEnterprise},
		{in: "", want: ""},
		{in: "gold", want: ""},
	}

	for _, tt := range tests {
		if got := normalizePlan(tt.in); got != tt.want {
			t.Fatalf("normalizePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "active", want: models.BillingStatusActive},
		{in: "TRIALING", want: models.BillingStatusTrialing},
		{in: "past_due", want: models.BillingStatusPastDue},
		{in: "unpaid", want: models.BillingStatusPastDue},
		{in: "canceled", want: models.BillingStatusCanceled},
		{in: "incomplete_expired", want: models.BillingStatusCanceled},
		{in: "paused", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := normalizeStatus(tt.in); got != tt.want {
			t.Fatalf("normalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

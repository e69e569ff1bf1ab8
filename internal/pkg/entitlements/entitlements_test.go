package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/TenantFox/app/models"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
		ok   bool
	}{
		{in: "starter", want: PlanStarter, ok: true},
		{in: " Growth ", want: PlanGrowth, ok: true},
		{in: "ENTERPRISE", want: PlanEnterprise, ok: true},
		{in: "premium", ok: false},
	}

	for _, tt := range tests {
		got, ok := ParsePlan(tt.in)
		if ok != tt.ok {
			t.Fatalf("ParsePlan(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if ok && got != tt.want {
			t.Fatalf("ParsePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanRank(t *testing.T) {
	if Rank(PlanStarter) >= Rank(PlanGrowth) {
		t.Fatalf("expected growth to outrank starter")
	}
	if Rank(PlanGrowth) >= Rank(PlanEnterprise) {
		t.Fatalf("expected enterprise to outrank growth")
	}
	assert.Equal(t, 0, Rank(Plan("unknown")))
}

func TestCanAccess_TierLookup(t *testing.T) {
	growth := &models.Subscription{Plan: string(PlanGrowth), Status: models.BillingStatusActive}
	starter := &models.Subscription{Plan: string(PlanStarter), Status: models.BillingStatusActive}

	assert.True(t, CanAccess(growth, FeatureAdvancedReports))
	assert.False(t, CanAccess(starter, FeatureAdvancedReports))
	assert.True(t, CanAccess(starter, FeatureTeamManagement))
	assert.False(t, CanAccess(growth, FeatureSSO))
}

func TestCanAccess_StatusOverride(t *testing.T) {
	for _, status := range []string{models.BillingStatusCanceled, models.BillingStatusPastDue} {
		sub := &models.Subscription{Plan: string(PlanEnterprise), Status: status}
		for f := range featureMinPlan {
			if CanAccess(sub, f) {
				t.Fatalf("expected %q to be denied for status %q", f, status)
			}
		}
	}

	trialing := &models.Subscription{Plan: string(PlanStarter), Status: models.BillingStatusTrialing}
	assert.True(t, CanAccess(trialing, FeatureBasicAnalytics))
}

func TestCanAccess_UnknownInputs(t *testing.T) {
	sub := &models.Subscription{Plan: string(PlanEnterprise), Status: models.BillingStatusActive}
	assert.False(t, CanAccess(sub, Feature("time_travel")))
	assert.False(t, CanAccess(&models.Subscription{Plan: "gold", Status: models.BillingStatusActive}, FeatureTeamManagement))
	assert.False(t, CanAccess(nil, FeatureTeamManagement))
}

func TestLimitFor(t *testing.T) {
	assert.Equal(t, int64(5), LimitFor(&models.Subscription{Plan: "starter"}, LimitMaxUsers))
	assert.Equal(t, int64(50), LimitFor(&models.Subscription{Plan: "growth"}, LimitMaxUsers))
	assert.Equal(t, int64(1000), LimitFor(&models.Subscription{Plan: "enterprise"}, LimitMaxProjects))
	assert.Equal(t, int64(5), LimitFor(&models.Subscription{Plan: "gold"}, LimitMaxUsers))
	assert.Equal(t, int64(0), LimitFor(&models.Subscription{Plan: "growth"}, Limit("max_widgets")))
	assert.Equal(t, int64(5), LimitFor(nil, LimitMaxUsers))
}

func TestCatalog(t *testing.T) {
	plans := Catalog()
	if assert.Len(t, plans, 3) {
		assert.Equal(t, PlanStarter, plans[0].Name)
		assert.Equal(t, PlanGrowth, plans[1].Name)
		assert.Equal(t, PlanEnterprise, plans[2].Name)
	}

	assert.Contains(t, plans[1].Features, FeatureAdvancedReports)
	assert.NotContains(t, plans[0].Features, FeatureAdvancedReports)
	assert.Len(t, plans[2].Features, len(featureMinPlan))

	// callers must not be able to mutate the catalog through returned maps
	plans[0].Limits[LimitMaxUsers] = 999
	assert.Equal(t, int64(5), Definition(PlanStarter).Limits[LimitMaxUsers])
}

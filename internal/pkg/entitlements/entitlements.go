package entitlements

import (
	"sort"
	"strings"

	"github.com/ManuelReschke/TenantFox/app/models"
)

type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanGrowth     Plan = "growth"
	PlanEnterprise Plan = "enterprise"
)

type Feature string

const (
	FeatureTeamManagement    Feature = "team_management"
	FeatureBasicAnalytics    Feature = "basic_analytics"
	FeaturePrioritySupport   Feature = "priority_support"
	FeatureAdvancedAnalytics Feature = "advanced_analytics"
	FeatureAdvancedReports   Feature = "advanced_reports"
	FeatureAPIAccess         Feature = "api_access"
	FeatureSSO               Feature = "sso"
)

type Limit string

const (
	LimitMaxUsers    Limit = "max_users"
	LimitMaxProjects Limit = "max_projects"
)

// PlanDefinition is the static entitlement set of a tier.
type PlanDefinition struct {
	Name     Plan            `json:"name"`
	Rank     int             `json:"rank"`
	Features []Feature       `json:"features"`
	Limits   map[Limit]int64 `json:"limits"`
}

var planOrder = map[Plan]int{
	PlanStarter:    1,
	PlanGrowth:     2,
	PlanEnterprise: 3,
}

var featureMinPlan = map[Feature]Plan{
	FeatureTeamManagement:    PlanStarter,
	FeatureBasicAnalytics:    PlanStarter,
	FeaturePrioritySupport:   PlanGrowth,
	FeatureAdvancedAnalytics: PlanGrowth,
	FeatureAdvancedReports:   PlanGrowth,
	FeatureAPIAccess:         PlanEnterprise,
	FeatureSSO:               PlanEnterprise,
}

var planLimits = map[Plan]map[Limit]int64{
	PlanStarter: {
		LimitMaxUsers:    5,
		LimitMaxProjects: 10,
	},
	PlanGrowth: {
		LimitMaxUsers:    50,
		LimitMaxProjects: 100,
	},
	PlanEnterprise: {
		LimitMaxUsers:    500,
		LimitMaxProjects: 1000,
	},
}

// ParsePlan maps a stored or requested plan name to a known tier.
func ParsePlan(s string) (Plan, bool) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	_, ok := planOrder[p]
	return p, ok
}

// IsKnownFeature reports whether the feature key is part of the catalog.
func IsKnownFeature(f Feature) bool {
	_, ok := featureMinPlan[f]
	return ok
}

// RequiredPlan returns the lowest tier granting the feature.
func RequiredPlan(f Feature) (Plan, bool) {
	p, ok := featureMinPlan[f]
	return p, ok
}

// Rank orders tiers; unknown tiers rank 0.
func Rank(p Plan) int {
	return planOrder[p]
}

// PlanAllows is the tier-only lookup without the billing-status override.
func PlanAllows(p Plan, f Feature) bool {
	required, ok := featureMinPlan[f]
	if !ok {
		return false
	}
	rank, ok := planOrder[p]
	if !ok {
		return false
	}
	return rank >= planOrder[required]
}

// Definition returns the catalog entry for a tier. Unknown tiers resolve to starter.
func Definition(p Plan) PlanDefinition {
	if _, ok := planOrder[p]; !ok {
		p = PlanStarter
	}

	features := make([]Feature, 0, len(featureMinPlan))
	for f := range featureMinPlan {
		if PlanAllows(p, f) {
			features = append(features, f)
		}
	}
	sort.Slice(features, func(i, j int) bool { return features[i] < features[j] })

	limits := make(map[Limit]int64, len(planLimits[p]))
	for k, v := range planLimits[p] {
		limits[k] = v
	}

	return PlanDefinition{
		Name:     p,
		Rank:     planOrder[p],
		Features: features,
		Limits:   limits,
	}
}

// Catalog returns every tier ordered by rank.
func Catalog() []PlanDefinition {
	plans := make([]Plan, 0, len(planOrder))
	for p := range planOrder {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return planOrder[plans[i]] < planOrder[plans[j]] })

	out := make([]PlanDefinition, 0, len(plans))
	for _, p := range plans {
		out = append(out, Definition(p))
	}
	return out
}

// CanAccess answers the feature gate for a subscription. A non-entitling billing
// status denies every feature regardless of tier.
func CanAccess(sub *models.Subscription, f Feature) bool {
	if !sub.IsEntitling() {
		return false
	}
	p, ok := ParsePlan(sub.Plan)
	if !ok {
		return false
	}
	return PlanAllows(p, f)
}

// LimitFor returns the numeric limit of the subscription's tier. Unknown tiers
// get starter limits; unknown limit keys return 0.
func LimitFor(sub *models.Subscription, l Limit) int64 {
	p := PlanStarter
	if sub != nil {
		if parsed, ok := ParsePlan(sub.Plan); ok {
			p = parsed
		}
	}
	return planLimits[p][l]
}

package constants

// Public routes
const (
	HealthRoute       = "/health"
	MetricsRoute      = "/metrics"
	OpenAPISpecRoute  = "/docs/openapi.json"
	SwaggerBasePath   = "/docs/api/"
	PlansRoute        = "/billing/plans"
	StripeWebhookPath = "/billing/webhooks/stripe"
)

// Authenticated route groups
const (
	AuthGroup         = "/auth"
	OrganizationGroup = "/organizations/me"
	SubscriptionGroup = "/billing/subscription"
	FeatureRoute      = "/features/:feature_key"
	AdvancedReport    = "/reports/advanced"
)

// Headers read by the billing webhook and token auth.
const (
	HeaderStripeSignature = "X-Stripe-Signature"
	HeaderStripeEventID   = "X-Stripe-Event-Id"
	HeaderAPIKey          = "X-API-Key"
)

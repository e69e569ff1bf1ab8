package billing

// WebhookDelivery is one inbound provider request exactly as received.
type WebhookDelivery struct {
	Body          []byte
	Signature     string
	EventIDHeader string
}

// Outcome is the terminal state of a webhook delivery.
type Outcome string

const (
	OutcomeRejectedSignature Outcome = "rejected_signature"
	OutcomeMalformed         Outcome = "malformed"
	OutcomeDuplicate         Outcome = "duplicate_skipped"
	OutcomeApplied           Outcome = "applied"
	OutcomeIgnored           Outcome = "ignored"
	OutcomeApplyFailed       Outcome = "apply_failed"
)

// WebhookResult describes what the dispatcher did with a delivery.
type WebhookResult struct {
	Outcome             Outcome
	IdempotencyKey      string
	EventType           string
	OrganizationID      *uint
	SubscriptionUpdated bool
}

// PlanChange is an owner-initiated subscription change. Empty fields keep the stored value.
type PlanChange struct {
	Plan   string `json:"plan" validate:"omitempty,oneof=starter growth enterprise"`
	Status string `json:"status" validate:"omitempty,oneof=trialing active past_due canceled"`
}

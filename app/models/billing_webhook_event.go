package models

import "time"

// Billing provider constants used across billing-related models.
const (
	BillingProviderStripe = "stripe"
)

const (
	WebhookOutcomeApplied = "applied"
	WebhookOutcomeIgnored = "ignored"
)

// BillingWebhookEvent is the idempotency ledger entry for a provider event. A row
// exists only for events whose processing committed; it is never updated.
type BillingWebhookEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Provider        string    `gorm:"type:varchar(20);not null;index:ux_billing_webhook_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string    `gorm:"type:varchar(191);not null;index:ux_billing_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	OrganizationID  *uint     `gorm:"index" json:"organization_id,omitempty"`
	Outcome         string    `gorm:"type:varchar(20);not null" json:"outcome"`
	PayloadJSON     string    `gorm:"size:4294967295;not null" json:"payload_json"` // longtext on MySQL, text elsewhere
	ProcessedAt     time.Time `gorm:"autoCreateTime;index" json:"processed_at"`
}

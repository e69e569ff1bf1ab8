package models

import "time"

const (
	BillingStatusTrialing = "trialing"
	BillingStatusActive   = "active"
	BillingStatusPastDue  = "past_due"
	BillingStatusCanceled = "canceled"
)

// BillingStatuses lists the subscription statuses accepted by the API.
var BillingStatuses = []string{
	BillingStatusTrialing,
	BillingStatusActive,
	BillingStatusPastDue,
	BillingStatusCanceled,
}

// Subscription is the single billing state of an organization. It is mutated by
// verified webhook events and by owner-initiated plan changes.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	OrganizationID       uint       `gorm:"not null;uniqueIndex" json:"organization_id"`
	Plan                 string     `gorm:"type:varchar(32);not null;default:'starter'" json:"plan"`
	Status               string     `gorm:"type:varchar(32);not null;default:'trialing'" json:"status"`
	StripeCustomerID     string     `gorm:"type:varchar(191);default:'';index" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"type:varchar(191);default:''" json:"stripe_subscription_id"`
	CurrentPeriodStart   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start"`
	CurrentPeriodEnd     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitling reports whether the status allows gated features.
func (s *Subscription) IsEntitling() bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case BillingStatusActive, BillingStatusTrialing:
		return true
	default:
		return false
	}
}

func IsValidBillingStatus(status string) bool {
	for _, s := range BillingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

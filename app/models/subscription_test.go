package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsEntitling(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: BillingStatusActive, want: true},
		{status: BillingStatusTrialing, want: true},
		{status: BillingStatusPastDue, want: false},
		{status: BillingStatusCanceled, want: false},
		{status: "", want: false},
	}

	for _, tt := range tests {
		sub := &Subscription{Status: tt.status}
		assert.Equal(t, tt.want, sub.IsEntitling(), "status %q", tt.status)
	}

	var nilSub *Subscription
	assert.False(t, nilSub.IsEntitling())
}

func TestIsValidBillingStatus(t *testing.T) {
	assert.True(t, IsValidBillingStatus("past_due"))
	assert.False(t, IsValidBillingStatus("unpaid"))
}

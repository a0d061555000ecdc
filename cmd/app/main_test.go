package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSubscriptionCause(t *testing.T) {
	tests := []struct {
		cause string
		want  bool
	}{
		{"no_active_subscription", true},
		{"subscription_frozen", true},
		{"subscription_expired", true},
		{"capacity_full", false},
		{"schedule_closed", false},
		// unknown causes default to the slot path
		{"subscription_weirdness", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.cause, func(t *testing.T) {
			assert.Equal(t, tt.want, isSubscriptionCause(tt.cause))
		})
	}
}

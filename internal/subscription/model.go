package subscription

import "github.com/SultokTheF/uiren-mobile/internal/user"

type Type string

const (
	TypeMonth     Type = "MONTH"
	TypeSixMonths Type = "6_MONTHS"
	TypeYear      Type = "YEAR"
)

type Subscription struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	User               user.User `json:"user"`
	Type               Type      `json:"type"`
	StartDate          string    `json:"start_date"`
	EndDate            string    `json:"end_date"`
	IsActive           bool      `json:"is_active"`
	IsActivatedByAdmin bool      `json:"is_activated_by_admin"`
	IsFrozen           bool      `json:"is_frozen"`
	FrozenStartDate    string    `json:"frozen_start_date,omitempty"`
	FrozenEndDate      string    `json:"frozen_end_date,omitempty"`
}

// Usable reports whether the subscription may back a reservation: admin
// activation, an active period, and not currently frozen.
func (s Subscription) Usable() bool {
	return s.IsActivatedByAdmin && s.IsActive && !s.IsFrozen
}

// ValidType reports whether t is one of the purchasable plan types.
func ValidType(t Type) bool {
	switch t {
	case TypeMonth, TypeSixMonths, TypeYear:
		return true
	}
	return false
}

package record

import (
	"fmt"

	"github.com/SultokTheF/uiren-mobile/internal/schedule"
	"github.com/SultokTheF/uiren-mobile/internal/subscription"
	"github.com/SultokTheF/uiren-mobile/internal/user"
)

// Record links a user, a schedule slot and a subscription. attended and
// is_canceled transition false to true only, on the backend's authority.
type Record struct {
	ID           int                       `json:"id"`
	User         user.User                 `json:"user"`
	Schedule     schedule.Slot             `json:"schedule"`
	Subscription subscription.Subscription `json:"subscription"`
	Attended     bool                      `json:"attended"`
	IsCanceled   bool                      `json:"is_canceled"`
}

// RejectedError is a structured booking rejection from the backend: capacity
// full, unusable subscription, closed slot, duplicate booking. The cause
// vocabulary is the backend's; it is carried verbatim, not interpreted.
type RejectedError struct {
	Cause  string
	Status int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("booking rejected: %s", e.Cause)
}

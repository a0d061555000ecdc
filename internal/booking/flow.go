package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SultokTheF/uiren-mobile/internal/logger"
	"github.com/SultokTheF/uiren-mobile/internal/record"
	"github.com/SultokTheF/uiren-mobile/internal/schedule"
	"github.com/SultokTheF/uiren-mobile/internal/subscription"
)

type State int

const (
	StateIdle State = iota
	StateDateSelected
	StateSlotsLoaded
	StateSlotSelected
	StateSubscriptionsLoaded
	StateSubscriptionSelected
	StateSubmitting
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDateSelected:
		return "date_selected"
	case StateSlotsLoaded:
		return "slots_loaded"
	case StateSlotSelected:
		return "slot_selected"
	case StateSubscriptionsLoaded:
		return "subscriptions_loaded"
	case StateSubscriptionSelected:
		return "subscription_selected"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	}
	return "unknown"
}

var (
	// ErrMissingSelection means submit was called without a slot or a
	// subscription picked. Resolved locally; no request goes out.
	ErrMissingSelection = errors.New("slot and subscription must be selected")

	// ErrAlreadySubmitting means a submission is in flight. One per flow.
	ErrAlreadySubmitting = errors.New("a submission is already in flight")

	// ErrSlotNotOpen means the picked slot is full, past, or closed.
	ErrSlotNotOpen = errors.New("slot is not open for reservation")

	ErrSlotNotFound         = errors.New("slot not in the loaded schedule")
	ErrSubscriptionNotFound = errors.New("subscription not in the loaded list")
	ErrWrongState           = errors.New("operation not allowed in current state")
)

// Services the flow drives. Satisfied by schedule.Service,
// subscription.Service and record.Service.
type SlotLister interface {
	SlotsForDate(ctx context.Context, sectionID int, date string) ([]schedule.Slot, error)
}

type SubscriptionLister interface {
	ActivatedForUser(ctx context.Context, userID int) ([]subscription.Subscription, error)
}

type Reserver interface {
	Create(ctx context.Context, scheduleID, subscriptionID int) (*record.Record, error)
	Cancel(ctx context.Context, recordID int) error
}

// Flow walks one user through reserving a slot of one section: pick a date,
// pick an open slot, pick a usable subscription, submit. The backend stays
// the authority on capacity and subscription validity; the flow only guards
// against requests that cannot possibly succeed.
//
// Transitions are sequential. A rejected submission parks the flow back in
// the subscription-selected state with the selections kept, so the user can
// swap just the slot or the subscription and try again.
type Flow struct {
	schedules     SlotLister
	subscriptions SubscriptionLister
	records       Reserver

	mu            sync.Mutex
	state         State
	sectionID     int
	userID        int
	date          string
	slots         []schedule.Slot
	subs          []subscription.Subscription
	selectedSlot  *schedule.Slot
	selectedSub   *subscription.Subscription
	lastRejection *record.RejectedError
}

func NewFlow(sectionID, userID int, schedules SlotLister, subscriptions SubscriptionLister, records Reserver) *Flow {
	return &Flow{
		schedules:     schedules,
		subscriptions: subscriptions,
		records:       records,
		state:         StateIdle,
		sectionID:     sectionID,
		userID:        userID,
	}
}

// SelectDate loads the section's slots for the date and enters the browsable
// slots-loaded state. Re-selecting a date restarts the flow for that date.
func (f *Flow) SelectDate(ctx context.Context, date string) error {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrAlreadySubmitting
	}
	f.state = StateDateSelected
	f.date = date
	f.slots = nil
	f.subs = nil
	f.selectedSlot = nil
	f.selectedSub = nil
	f.mu.Unlock()

	slots, err := f.schedules.SlotsForDate(ctx, f.sectionID, date)
	if err != nil {
		return fmt.Errorf("failed to load slots: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots = slots
	f.state = StateSlotsLoaded
	return nil
}

// SelectSlot picks an open slot from the loaded schedule. Picking a closed
// slot changes nothing. The first successful pick loads the user's activated
// subscriptions; later picks just swap the slot.
func (f *Flow) SelectSlot(ctx context.Context, slotID int) error {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return ErrAlreadySubmitting
	}
	if f.state < StateSlotsLoaded {
		f.mu.Unlock()
		return ErrWrongState
	}

	var picked *schedule.Slot
	for i := range f.slots {
		if f.slots[i].ID == slotID {
			picked = &f.slots[i]
			break
		}
	}
	if picked == nil {
		f.mu.Unlock()
		return ErrSlotNotFound
	}
	if !picked.Selectable() {
		f.mu.Unlock()
		return ErrSlotNotOpen
	}

	f.selectedSlot = picked

	if f.state >= StateSubscriptionsLoaded {
		// Subscriptions already loaded; this is a re-pick after a rejection.
		f.mu.Unlock()
		return nil
	}
	f.state = StateSlotSelected
	f.mu.Unlock()

	subs, err := f.subscriptions.ActivatedForUser(ctx, f.userID)
	if err != nil {
		return fmt.Errorf("failed to load subscriptions: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = subs
	// An empty list is a loaded state: the UI must then explain that no
	// usable subscription exists and block submission.
	f.state = StateSubscriptionsLoaded
	return nil
}

// SelectSubscription picks one subscription from the loaded, filtered list.
func (f *Flow) SelectSubscription(subscriptionID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateSubmitting {
		return ErrAlreadySubmitting
	}
	if f.state < StateSubscriptionsLoaded {
		return ErrWrongState
	}

	for i := range f.subs {
		if f.subs[i].ID == subscriptionID {
			f.selectedSub = &f.subs[i]
			f.state = StateSubscriptionSelected
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Submit sends the reservation. On success the slot list is reloaded (the
// reserved counts are stale the moment anyone books) and the flow returns to
// the browsable slots-loaded state. On a backend rejection the flow returns
// to subscription-selected with the selections intact and the rejection
// available via LastRejection.
func (f *Flow) Submit(ctx context.Context) (*record.Record, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return nil, ErrAlreadySubmitting
	}
	if f.selectedSlot == nil || f.selectedSub == nil {
		f.mu.Unlock()
		return nil, ErrMissingSelection
	}
	slotID := f.selectedSlot.ID
	subID := f.selectedSub.ID
	f.state = StateSubmitting
	f.lastRejection = nil
	f.mu.Unlock()

	rec, err := f.records.Create(ctx, slotID, subID)
	if err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		// Any failure, including timeout, must leave Submitting or the
		// re-entrancy guard would wedge the flow.
		f.state = StateSubscriptionSelected

		var rejected *record.RejectedError
		if errors.As(err, &rejected) {
			f.lastRejection = rejected
			logger.Infof("Reservation rejected: %s", rejected.Cause)
		}
		return nil, err
	}

	f.mu.Lock()
	date := f.date
	f.mu.Unlock()

	// Reserved counts changed under everyone; reload before going browsable.
	// The flow stays in Submitting until the reload lands so the whole
	// logical submission is covered by one guard.
	slots, refreshErr := f.schedules.SlotsForDate(ctx, f.sectionID, date)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectedSlot = nil
	f.selectedSub = nil
	f.lastRejection = nil
	if refreshErr != nil {
		logger.Errorf("Failed to refresh slots after reservation: %v", refreshErr)
		// The booking stands even with stale slots; the next SelectDate
		// recovers the browsable state.
		f.state = StateSuccess
		return rec, nil
	}
	f.slots = slots
	f.state = StateSlotsLoaded
	return rec, nil
}

// Cancel cancels a previously created reservation. Independent of the
// selection flow; idempotent at the application level.
func (f *Flow) Cancel(ctx context.Context, recordID int) error {
	return f.records.Cancel(ctx, recordID)
}

// Reset returns the flow to idle, dropping all loaded data.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return
	}
	f.state = StateIdle
	f.date = ""
	f.slots = nil
	f.subs = nil
	f.selectedSlot = nil
	f.selectedSub = nil
	f.lastRejection = nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Slots() []schedule.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]schedule.Slot, len(f.slots))
	copy(out, f.slots)
	return out
}

func (f *Flow) Subscriptions() []subscription.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]subscription.Subscription, len(f.subs))
	copy(out, f.subs)
	return out
}

func (f *Flow) SelectedSlot() *schedule.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selectedSlot == nil {
		return nil
	}
	slot := *f.selectedSlot
	return &slot
}

func (f *Flow) SelectedSubscription() *subscription.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selectedSub == nil {
		return nil
	}
	sub := *f.selectedSub
	return &sub
}

// LastRejection returns the most recent backend rejection, if any.
func (f *Flow) LastRejection() *record.RejectedError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRejection
}

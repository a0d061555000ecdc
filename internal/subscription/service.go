package subscription

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/SultokTheF/uiren-mobile/internal/api"
	"github.com/SultokTheF/uiren-mobile/internal/metrics"
)

const subscriptionsPath = "api/subscriptions/"

var (
	ErrUnknownType   = errors.New("unknown subscription type")
	ErrInvalidFreeze = errors.New("freeze days must be positive")
)

type Service struct {
	client api.Doer
}

func NewService(client api.Doer) *Service {
	return &Service{client: client}
}

// ActivatedForUser lists the user's subscriptions, filtered to those a manager
// has activated. An empty result is a valid answer, not an error: it means the
// user has nothing to reserve with.
func (s *Service) ActivatedForUser(ctx context.Context, userID int) ([]Subscription, error) {
	query := url.Values{}
	query.Set("page", "all")
	query.Set("user_id", strconv.Itoa(userID))

	var all []Subscription
	if err := s.client.Get(ctx, subscriptionsPath, query, &all); err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}

	activated := make([]Subscription, 0, len(all))
	for _, sub := range all {
		if sub.IsActivatedByAdmin {
			activated = append(activated, sub)
		}
	}
	return activated, nil
}

func (s *Service) ByID(ctx context.Context, id int) (*Subscription, error) {
	var sub Subscription
	path := fmt.Sprintf("%s%d/", subscriptionsPath, id)
	if err := s.client.Get(ctx, path, nil, &sub); err != nil {
		return nil, fmt.Errorf("failed to fetch subscription %d: %w", id, err)
	}
	return &sub, nil
}

// Purchase buys a new subscription of the given type. The backend leaves it
// inactive until a manager confirms payment.
func (s *Service) Purchase(ctx context.Context, subType Type) (*Subscription, error) {
	if !ValidType(subType) {
		return nil, ErrUnknownType
	}

	var sub Subscription
	if err := s.client.Post(ctx, subscriptionsPath, map[string]string{"type": string(subType)}, &sub); err != nil {
		return nil, fmt.Errorf("failed to purchase subscription: %w", err)
	}

	metrics.RecordSubscriptionPurchase(string(subType))
	return &sub, nil
}

func (s *Service) Freeze(ctx context.Context, id, freezeDays int) error {
	if freezeDays <= 0 {
		return ErrInvalidFreeze
	}

	path := fmt.Sprintf("%s%d/freeze/", subscriptionsPath, id)
	if err := s.client.Post(ctx, path, map[string]int{"freeze_days": freezeDays}, nil); err != nil {
		return fmt.Errorf("failed to freeze subscription %d: %w", id, err)
	}
	return nil
}

func (s *Service) Unfreeze(ctx context.Context, id int) error {
	path := fmt.Sprintf("%s%d/unfreeze/", subscriptionsPath, id)
	if err := s.client.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("failed to unfreeze subscription %d: %w", id, err)
	}
	return nil
}

package schedule

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/SultokTheF/uiren-mobile/internal/api"
)

const schedulesPath = "api/schedules/"

type Service struct {
	client api.Doer
}

func NewService(client api.Doer) *Service {
	return &Service{client: client}
}

// SlotsForDate lists a section's slots on one calendar date (YYYY-MM-DD),
// sorted ascending by start time, ties broken by id. Closed slots stay in the
// list so the caller can render them as disabled.
func (s *Service) SlotsForDate(ctx context.Context, sectionID int, date string) ([]Slot, error) {
	query := url.Values{}
	query.Set("section", strconv.Itoa(sectionID))
	query.Set("date", date)

	var slots []Slot
	if err := s.client.Get(ctx, schedulesPath, query, &slots); err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	Sort(slots)
	return slots, nil
}

// Sort orders slots by start time ascending, then id ascending.
func Sort(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].ID < slots[j].ID
	})
}

package schedule

// Slot is one bookable time window of a class section. The backend reports
// the open flag as "status": false when full, past, or closed by an admin.
type Slot struct {
	ID        int    `json:"id"`
	SectionID int    `json:"section"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Capacity  int    `json:"capacity"`
	Reserved  int    `json:"reserved"`
	IsOpen    bool   `json:"status"`
}

// Selectable reports whether the slot may be picked for a reservation.
func (s Slot) Selectable() bool {
	return s.IsOpen
}

// Available returns the number of free places.
func (s Slot) Available() int {
	if s.Reserved > s.Capacity {
		return 0
	}
	return s.Capacity - s.Reserved
}

package event

import "time"

const (
	ShiftsTopic = "pos.shifts"

	EventShiftOpened = "shift.opened"
	EventShiftClosed = "shift.closed"
)

type ShiftEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	ShiftID    string    `json:"shift_id"`
	BranchID   string    `json:"branch_id"`
	StartCash  int64     `json:"start_cash,omitempty"`

	// Populated on shift.closed only.
	ClosingCash    int64 `json:"closing_cash,omitempty"`
	ExpectedCash   int64 `json:"expected_cash,omitempty"`
	CashDifference int64 `json:"cash_difference,omitempty"`
	NetRevenue     int64 `json:"net_revenue,omitempty"`
}

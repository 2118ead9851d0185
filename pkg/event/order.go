package event

import "time"

const (
	OrdersTopic = "pos.orders"

	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderPaid          = "order.paid"
	EventOrderVoided        = "order.voided"
	EventOrderSplit         = "order.split"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published on every order mutation. Terminals subscribed to
// the branch reload their view on receipt; CommandID lets the originating
// terminal retire its optimistic pending write once the event comes back.
type OrderEvent struct {
	EventType    string    `json:"event_type"`
	OccurredAt   time.Time `json:"occurred_at"`
	CommandID    string    `json:"command_id,omitempty"`
	OrderID      string    `json:"order_id"`
	BranchID     string    `json:"branch_id"`
	ShiftID      string    `json:"shift_id,omitempty"`
	SequentialID int64     `json:"sequential_id,omitempty"`
	Status       string    `json:"status"`
	Total        int64     `json:"total"`
	IsPaid       bool      `json:"is_paid"`

	PaymentMethod string `json:"payment_method,omitempty"`
	Source        string `json:"source,omitempty"`

	// Set on split events: the order the moved items came from.
	SourceOrderID string `json:"source_order_id,omitempty"`
}

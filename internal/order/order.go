package order

import (
	"errors"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/catalog"
	"github.com/warungclub/warung/internal/pricing"
)

type Status string

const (
	StatusPending Status = "pending"
	// StatusReady is reserved: it is a legal source for MarkServing but no
	// operation assigns it.
	StatusReady     Status = "ready"
	StatusServing   Status = "serving"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

const (
	SourceAdmin    = "admin"
	SourceCustomer = "customer"
)

// ErrInvalidTransition is returned when a state change is attempted on an
// order whose status does not allow it.
var ErrInvalidTransition = errors.New("invalid order transition")

// CartItem is a menu-item snapshot frozen into the order at commit time.
// Later catalog edits never touch committed orders.
type CartItem struct {
	MenuItemID uuid.UUID            `json:"menu_item_id" bson:"menu_item_id"`
	Name       string               `json:"name" bson:"name"`
	Price      int64                `json:"price" bson:"price"`
	Category   string               `json:"category,omitempty" bson:"category,omitempty"`
	Quantity   int                  `json:"quantity" bson:"quantity"`
	Note       string               `json:"note,omitempty" bson:"note,omitempty"`
	TrackStock bool                 `json:"track_stock" bson:"track_stock"`
	Recipe     []catalog.RecipeLine `json:"recipe,omitempty" bson:"recipe,omitempty"`
}

type Order struct {
	ID uuid.UUID `json:"id" bson:"_id"`
	// SequentialID is the human-facing per-shift number. It is allocated
	// with an atomic increment on the shift document; it is display data,
	// not a key. Zero for self-orders created while no shift is open.
	SequentialID int64     `json:"sequential_id" bson:"sequential_id"`
	BranchID     uuid.UUID `json:"branch_id" bson:"branch_id"`
	ShiftID      uuid.UUID `json:"shift_id,omitempty" bson:"shift_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	TableNumber  string    `json:"table_number,omitempty" bson:"table_number,omitempty"`

	Items []CartItem `json:"items" bson:"items"`

	Subtotal      int64                `json:"subtotal" bson:"subtotal"`
	Discount      int64                `json:"discount" bson:"discount"`
	DiscountType  pricing.DiscountType `json:"discount_type,omitempty" bson:"discount_type,omitempty"`
	DiscountValue float64              `json:"discount_value,omitempty" bson:"discount_value,omitempty"`
	ServiceCharge int64                `json:"service_charge" bson:"service_charge"`
	TaxAmount     int64                `json:"tax_amount" bson:"tax_amount"`
	Total         int64                `json:"total" bson:"total"`

	Status        Status `json:"status" bson:"status"`
	IsPaid        bool   `json:"is_paid" bson:"is_paid"`
	PaymentMethod string `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	OrderType     string `json:"order_type,omitempty" bson:"order_type,omitempty"`
	Source        string `json:"source" bson:"source"`

	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
	ReadyAt     *time.Time `json:"ready_at,omitempty" bson:"ready_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty" bson:"paid_at,omitempty"`

	// LastCommandID identifies the mutation that produced this document
	// state. Terminals reconcile optimistic pending writes against
	// snapshots by this id.
	LastCommandID string `json:"last_command_id,omitempty" bson:"last_command_id,omitempty"`
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func NewOrder() *Order {
	return &Order{
		ID:     apt.GenerateNewID(),
		Status: StatusPending,
		Source: SourceAdmin,
	}
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// Terminal reports whether the order can no longer change state.
func (o *Order) Terminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusCancelled
}

// MarkServing moves a pending (or reserved ready) order to serving: the
// kitchen has finished preparation. Repeated application is a no-op.
func (o *Order) MarkServing() error {
	if o.Status == StatusServing {
		return nil
	}
	if o.Status != StatusPending && o.Status != StatusReady {
		return ErrInvalidTransition
	}
	o.Status = StatusServing
	o.UpdatedAt = time.Now()
	return nil
}

// Complete closes out a serving order. Payment policy is the caller's
// decision; this transition does not require IsPaid.
func (o *Order) Complete() error {
	if o.Status == StatusCompleted {
		return nil
	}
	if o.Status != StatusServing {
		return ErrInvalidTransition
	}
	now := time.Now()
	o.Status = StatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	return nil
}

// Cancel voids a pending or serving order. Stock restoration is the
// service's responsibility; the model only moves the status.
func (o *Order) Cancel() error {
	if o.Status == StatusCancelled {
		return nil
	}
	if o.Status != StatusPending && o.Status != StatusServing {
		return ErrInvalidTransition
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// Pay flags the order paid. Payment is orthogonal to the kitchen lifecycle
// and may land before or after serving/completion, but never on a cancelled
// order. Repeated payment keeps the first PaidAt.
func (o *Order) Pay(method string) error {
	if o.IsPaid {
		return nil
	}
	if o.Status == StatusCancelled {
		return ErrInvalidTransition
	}
	now := time.Now()
	o.IsPaid = true
	o.PaymentMethod = method
	o.PaidAt = &now
	o.UpdatedAt = now
	return nil
}

// Mutable reports whether the item list may still change.
func (o *Order) Mutable() bool {
	return o.Status == StatusPending || o.Status == StatusServing
}

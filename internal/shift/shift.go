package shift

import (
	"errors"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

var (
	ErrNoActiveShift    = errors.New("no active shift")
	ErrShiftAlreadyOpen = errors.New("shift already open")
)

// Payment methods recorded on paid orders and used for cash reconciliation.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentQRIS     = "qris"
	PaymentTransfer = "transfer"
)

// Shift is one cash-drawer session. The revenue/transaction fields are
// advisory running counters kept for display; closing figures are always
// recomputed from the persisted orders and expenses, never from these.
type Shift struct {
	ID        uuid.UUID  `json:"id" bson:"_id"`
	BranchID  uuid.UUID  `json:"branch_id" bson:"branch_id"`
	StartCash int64      `json:"start_cash" bson:"start_cash"`
	OpenedAt  time.Time  `json:"opened_at" bson:"opened_at"`
	OpenedBy  string     `json:"opened_by" bson:"opened_by"`
	ClosedAt  *time.Time `json:"closed_at,omitempty" bson:"closed_at,omitempty"`

	// OrderCount backs the per-shift sequential display number. It is
	// advanced with an atomic increment on the shift document so two
	// terminals cannot allocate the same number.
	OrderCount int64 `json:"order_count" bson:"order_count"`

	// Advisory counters.
	Revenue        int64 `json:"revenue" bson:"revenue"`
	Transactions   int64 `json:"transactions" bson:"transactions"`
	CashRevenue    int64 `json:"cash_revenue" bson:"cash_revenue"`
	NonCashRevenue int64 `json:"non_cash_revenue" bson:"non_cash_revenue"`
}

func (s *Shift) GetID() uuid.UUID {
	return s.ID
}

func (s *Shift) ResourceType() string {
	return "shift"
}

func NewShift(branchID uuid.UUID, startCash int64, openedBy string) *Shift {
	return &Shift{
		ID:        apt.GenerateNewID(),
		BranchID:  branchID,
		StartCash: startCash,
		OpenedAt:  time.Now(),
		OpenedBy:  openedBy,
	}
}

// Summary is the immutable closing report for a shift. Every monetary field
// is derived from the persisted order and expense collections at close time.
type Summary struct {
	ID       uuid.UUID `json:"id" bson:"_id"`
	ShiftID  uuid.UUID `json:"shift_id" bson:"shift_id"`
	BranchID uuid.UUID `json:"branch_id" bson:"branch_id"`

	OpenedAt time.Time `json:"opened_at" bson:"opened_at"`
	ClosedAt time.Time `json:"closed_at" bson:"closed_at"`

	StartCash      int64 `json:"start_cash" bson:"start_cash"`
	ClosingCash    int64 `json:"closing_cash" bson:"closing_cash"`
	ExpectedCash   int64 `json:"expected_cash" bson:"expected_cash"`
	CashDifference int64 `json:"cash_difference" bson:"cash_difference"`

	Revenue        int64 `json:"revenue" bson:"revenue"`
	CashRevenue    int64 `json:"cash_revenue" bson:"cash_revenue"`
	NonCashRevenue int64 `json:"non_cash_revenue" bson:"non_cash_revenue"`
	Transactions   int64 `json:"transactions" bson:"transactions"`
	TotalExpenses  int64 `json:"total_expenses" bson:"total_expenses"`
	NetRevenue     int64 `json:"net_revenue" bson:"net_revenue"`
}

func (s *Summary) GetID() uuid.UUID {
	return s.ID
}

func (s *Summary) ResourceType() string {
	return "shift-summary"
}

// Expense is a cash outflow attributed to exactly one shift.
type Expense struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	ShiftID     uuid.UUID `json:"shift_id" bson:"shift_id"`
	BranchID    uuid.UUID `json:"branch_id" bson:"branch_id"`
	Description string    `json:"description" bson:"description"`
	Amount      int64     `json:"amount" bson:"amount"`
	Date        time.Time `json:"date" bson:"date"`
}

func (e *Expense) GetID() uuid.UUID {
	return e.ID
}

func (e *Expense) ResourceType() string {
	return "expense"
}

package shift

import (
	"context"

	"github.com/google/uuid"
)

type ShiftRepo interface {
	Create(ctx context.Context, s *Shift) error
	Get(ctx context.Context, id uuid.UUID) (*Shift, error)
	// Active returns the open shift for the branch, or nil when none.
	Active(ctx context.Context, branchID uuid.UUID) (*Shift, error)
	Save(ctx context.Context, s *Shift) error
	// NextSequential atomically increments the shift's order counter and
	// returns the new value.
	NextSequential(ctx context.Context, shiftID uuid.UUID) (int64, error)
	// IncrementSale bumps the advisory revenue counters.
	IncrementSale(ctx context.Context, shiftID uuid.UUID, total int64, cash bool) error
}

type SummaryRepo interface {
	// Save stores the summary, replacing any existing summary with the same
	// id. Summaries are keyed by their shift, which makes a retried close
	// idempotent.
	Save(ctx context.Context, s *Summary) error
	// Get returns the summary by id (the shift id), or nil when the shift
	// has not been closed.
	Get(ctx context.Context, id uuid.UUID) (*Summary, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*Summary, error)
}

type ExpenseRepo interface {
	Create(ctx context.Context, e *Expense) error
	ListByShift(ctx context.Context, shiftID uuid.UUID) ([]*Expense, error)
}

// Sale is the slice of an order the closing reconciliation needs. The order
// store exposes paid, non-cancelled orders of a shift in this shape so the
// ledger never depends on the order package.
type Sale struct {
	Total         int64
	PaymentMethod string
}

type SalesSource interface {
	ListPaidSales(ctx context.Context, shiftID uuid.UUID) ([]Sale, error)
}

package shift

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/warungclub/warung/pkg/event"
)

// Ledger owns the cash-drawer lifecycle for a branch: open, advisory
// updates during the shift, and the closing reconciliation.
type Ledger struct {
	shifts    ShiftRepo
	summaries SummaryRepo
	expenses  ExpenseRepo
	sales     SalesSource
	publisher events.Publisher
	logger    apt.Logger
}

func NewLedger(shifts ShiftRepo, summaries SummaryRepo, expenses ExpenseRepo, sales SalesSource, publisher events.Publisher, logger apt.Logger) *Ledger {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Ledger{
		shifts:    shifts,
		summaries: summaries,
		expenses:  expenses,
		sales:     sales,
		publisher: publisher,
		logger:    logger,
	}
}

// Open starts a new shift for the branch. Only one shift may be open per
// branch at a time.
func (l *Ledger) Open(ctx context.Context, branchID uuid.UUID, startCash int64, openedBy string) (*Shift, error) {
	if startCash < 0 {
		return nil, fmt.Errorf("start cash cannot be negative")
	}

	active, err := l.shifts.Active(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("cannot check active shift: %w", err)
	}
	if active != nil {
		return nil, ErrShiftAlreadyOpen
	}

	s := NewShift(branchID, startCash, openedBy)
	if err := l.shifts.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("cannot create shift: %w", err)
	}

	l.publishShiftEvent(ctx, event.EventShiftOpened, s, nil)
	l.logger.Info("shift opened", "shift_id", s.ID.String(), "branch_id", branchID.String(), "start_cash", startCash)
	return s, nil
}

// Active returns the branch's open shift or ErrNoActiveShift.
func (l *Ledger) Active(ctx context.Context, branchID uuid.UUID) (*Shift, error) {
	s, err := l.shifts.Active(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("cannot load active shift: %w", err)
	}
	if s == nil {
		return nil, ErrNoActiveShift
	}
	return s, nil
}

// ActiveShiftID is the narrow lookup the order service uses at creation
// time.
func (l *Ledger) ActiveShiftID(ctx context.Context, branchID uuid.UUID) (uuid.UUID, error) {
	s, err := l.Active(ctx, branchID)
	if err != nil {
		return uuid.Nil, err
	}
	return s.ID, nil
}

// NextSequential allocates the next per-shift display number via the repo's
// atomic increment.
func (l *Ledger) NextSequential(ctx context.Context, shiftID uuid.UUID) (int64, error) {
	return l.shifts.NextSequential(ctx, shiftID)
}

// RecordSale updates the advisory revenue counters after a payment. Failures
// are logged and swallowed: the counters are display-only and closing
// recomputes from the durable orders.
func (l *Ledger) RecordSale(ctx context.Context, shiftID uuid.UUID, total int64, paymentMethod string) {
	if shiftID == uuid.Nil {
		return
	}
	cash := paymentMethod == PaymentCash
	if err := l.shifts.IncrementSale(ctx, shiftID, total, cash); err != nil {
		l.logger.Error("cannot update advisory shift counters", "shift_id", shiftID.String(), "error", err)
	}
}

// AddExpense records a cash outflow against the branch's active shift.
func (l *Ledger) AddExpense(ctx context.Context, branchID uuid.UUID, description string, amount int64) (*Expense, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("expense amount must be positive")
	}

	active, err := l.Active(ctx, branchID)
	if err != nil {
		return nil, err
	}

	e := &Expense{
		ID:          apt.GenerateNewID(),
		ShiftID:     active.ID,
		BranchID:    branchID,
		Description: description,
		Amount:      amount,
		Date:        time.Now(),
	}
	if err := l.expenses.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("cannot create expense: %w", err)
	}
	return e, nil
}

// Expenses lists the expenses of the branch's active shift.
func (l *Ledger) Expenses(ctx context.Context, branchID uuid.UUID) ([]*Expense, error) {
	active, err := l.Active(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return l.expenses.ListByShift(ctx, active.ID)
}

// Close reconciles and ends the branch's active shift. All figures are
// recomputed from the persisted order and expense collections; the shift's
// advisory counters never enter the computation.
func (l *Ledger) Close(ctx context.Context, branchID uuid.UUID, closingCash int64) (*Summary, error) {
	active, err := l.Active(ctx, branchID)
	if err != nil {
		return nil, err
	}

	sales, err := l.sales.ListPaidSales(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot load shift sales: %w", err)
	}

	expenses, err := l.expenses.ListByShift(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot load shift expenses: %w", err)
	}

	var cashRevenue, nonCashRevenue int64
	for _, s := range sales {
		if s.PaymentMethod == PaymentCash {
			cashRevenue += s.Total
		} else {
			nonCashRevenue += s.Total
		}
	}

	var totalExpenses int64
	for _, e := range expenses {
		totalExpenses += e.Amount
	}

	expectedCash := active.StartCash + cashRevenue - totalExpenses

	now := time.Now()
	// The summary takes the shift's id: one closing per shift, so a close
	// retried after a partial failure overwrites its own summary instead of
	// appending a duplicate.
	summary := &Summary{
		ID:             active.ID,
		ShiftID:        active.ID,
		BranchID:       branchID,
		OpenedAt:       active.OpenedAt,
		ClosedAt:       now,
		StartCash:      active.StartCash,
		ClosingCash:    closingCash,
		ExpectedCash:   expectedCash,
		CashDifference: closingCash - expectedCash,
		Revenue:        cashRevenue + nonCashRevenue,
		CashRevenue:    cashRevenue,
		NonCashRevenue: nonCashRevenue,
		Transactions:   int64(len(sales)),
		TotalExpenses:  totalExpenses,
		NetRevenue:     (cashRevenue + nonCashRevenue) - totalExpenses,
	}

	if err := l.summaries.Save(ctx, summary); err != nil {
		return nil, fmt.Errorf("cannot append shift summary: %w", err)
	}

	active.ClosedAt = &now
	if err := l.shifts.Save(ctx, active); err != nil {
		return nil, fmt.Errorf("cannot close shift: %w", err)
	}

	l.publishShiftEvent(ctx, event.EventShiftClosed, active, summary)
	l.logger.Info("shift closed",
		"shift_id", active.ID.String(),
		"expected_cash", expectedCash,
		"cash_difference", summary.CashDifference,
		"net_revenue", summary.NetRevenue,
	)
	return summary, nil
}

// Summaries returns the branch's closing history, newest first.
func (l *Ledger) Summaries(ctx context.Context, branchID uuid.UUID) ([]*Summary, error) {
	return l.summaries.ListByBranch(ctx, branchID)
}

func (l *Ledger) publishShiftEvent(ctx context.Context, eventType string, s *Shift, summary *Summary) {
	if l.publisher == nil {
		return
	}

	evt := event.ShiftEvent{
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		ShiftID:    s.ID.String(),
		BranchID:   s.BranchID.String(),
		StartCash:  s.StartCash,
	}
	if summary != nil {
		evt.ClosingCash = summary.ClosingCash
		evt.ExpectedCash = summary.ExpectedCash
		evt.CashDifference = summary.CashDifference
		evt.NetRevenue = summary.NetRevenue
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		l.logger.Error("cannot marshal shift event", "error", err)
		return
	}
	if err := l.publisher.Publish(ctx, event.ShiftsTopic, payload); err != nil {
		l.logger.Error("cannot publish shift event", "error", err, "shift_id", s.ID.String())
	}
}

package shift

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockShiftRepo is a map-backed ShiftRepo with the same atomic counter
// semantics as the mongo implementation.
type MockShiftRepo struct {
	mu           sync.Mutex
	shifts       map[uuid.UUID]*Shift
	FailNextSave bool
}

func NewMockShiftRepo() *MockShiftRepo {
	return &MockShiftRepo{shifts: make(map[uuid.UUID]*Shift)}
}

func (m *MockShiftRepo) Create(ctx context.Context, s *Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[s.ID] = s
	return nil
}

func (m *MockShiftRepo) Get(ctx context.Context, id uuid.UUID) (*Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, fmt.Errorf("shift not found")
	}
	return s, nil
}

func (m *MockShiftRepo) Active(ctx context.Context, branchID uuid.UUID) (*Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shifts {
		if s.BranchID == branchID && s.ClosedAt == nil {
			return s, nil
		}
	}
	return nil, nil
}

func (m *MockShiftRepo) Save(ctx context.Context, s *Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNextSave {
		m.FailNextSave = false
		return fmt.Errorf("save failed")
	}
	if _, ok := m.shifts[s.ID]; !ok {
		return fmt.Errorf("shift not found")
	}
	m.shifts[s.ID] = s
	return nil
}

func (m *MockShiftRepo) NextSequential(ctx context.Context, shiftID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[shiftID]
	if !ok {
		return 0, fmt.Errorf("shift not found")
	}
	s.OrderCount++
	return s.OrderCount, nil
}

func (m *MockShiftRepo) IncrementSale(ctx context.Context, shiftID uuid.UUID, total int64, cash bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[shiftID]
	if !ok {
		return fmt.Errorf("shift not found")
	}
	s.Revenue += total
	s.Transactions++
	if cash {
		s.CashRevenue += total
	} else {
		s.NonCashRevenue += total
	}
	return nil
}

// MockSummaryRepo upserts by summary id, mirroring the durable store's
// one-summary-per-shift contract.
type MockSummaryRepo struct {
	mu        sync.Mutex
	summaries map[uuid.UUID]*Summary
}

func NewMockSummaryRepo() *MockSummaryRepo {
	return &MockSummaryRepo{summaries: make(map[uuid.UUID]*Summary)}
}

func (m *MockSummaryRepo) Save(ctx context.Context, s *Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[s.ID] = s
	return nil
}

func (m *MockSummaryRepo) Get(ctx context.Context, id uuid.UUID) (*Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (m *MockSummaryRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Summary
	for _, s := range m.summaries {
		if s.BranchID == branchID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *MockSummaryRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.summaries)
}

type MockExpenseRepo struct {
	mu       sync.Mutex
	expenses []*Expense
}

func NewMockExpenseRepo() *MockExpenseRepo {
	return &MockExpenseRepo{}
}

func (m *MockExpenseRepo) Create(ctx context.Context, e *Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, e)
	return nil
}

func (m *MockExpenseRepo) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]*Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Expense
	for _, e := range m.expenses {
		if e.ShiftID == shiftID {
			result = append(result, e)
		}
	}
	return result, nil
}

// MockSalesSource returns a fixed sale set per shift, standing in for the
// persisted order collection.
type MockSalesSource struct {
	mu    sync.Mutex
	sales map[uuid.UUID][]Sale
}

func NewMockSalesSource() *MockSalesSource {
	return &MockSalesSource{sales: make(map[uuid.UUID][]Sale)}
}

func (m *MockSalesSource) AddSale(shiftID uuid.UUID, total int64, method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[shiftID] = append(m.sales[shiftID], Sale{Total: total, PaymentMethod: method})
}

func (m *MockSalesSource) ListPaidSales(ctx context.Context, shiftID uuid.UUID) ([]Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sales[shiftID], nil
}

type MockPublisher struct {
	mu        sync.Mutex
	published [][]byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, msg)
	return nil
}

func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

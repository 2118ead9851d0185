package order

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/auth"
	"github.com/warungclub/warung/internal/catalog"
	"github.com/warungclub/warung/internal/shift"
	"github.com/warungclub/warung/internal/stock"
)

// MockOrderRepo is a map-backed OrderRepo for testing.
type MockOrderRepo struct {
	mu         sync.RWMutex
	orders     map[uuid.UUID]*Order
	CreateFunc func(ctx context.Context, o *Order) error
	SaveFunc   func(ctx context.Context, o *Order) error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{orders: make(map[uuid.UUID]*Order)}
}

func (m *MockOrderRepo) Create(ctx context.Context, o *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *o
	m.orders[o.ID] = &copied
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *o
	return &copied, nil
}

func (m *MockOrderRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if o.BranchID == branchID {
			copied := *o
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if o.ShiftID == shiftID {
			copied := *o
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) ListByStatus(ctx context.Context, branchID uuid.UUID, status Status) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if o.BranchID == branchID && o.Status == status {
			copied := *o
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) Save(ctx context.Context, o *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return fmt.Errorf("order not found")
	}
	copied := *o
	m.orders[o.ID] = &copied
	return nil
}

func (m *MockOrderRepo) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

// MockShiftService implements ShiftService with an in-memory counter.
type MockShiftService struct {
	mu          sync.Mutex
	ShiftID     uuid.UUID
	NoShift     bool
	counter     int64
	Sales       []int64
	SaleMethods []string
}

func (m *MockShiftService) ActiveShiftID(ctx context.Context, branchID uuid.UUID) (uuid.UUID, error) {
	if m.NoShift {
		return uuid.Nil, shift.ErrNoActiveShift
	}
	return m.ShiftID, nil
}

func (m *MockShiftService) NextSequential(ctx context.Context, shiftID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.counter, nil
}

func (m *MockShiftService) RecordSale(ctx context.Context, shiftID uuid.UUID, total int64, paymentMethod string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sales = append(m.Sales, total)
	m.SaleMethods = append(m.SaleMethods, paymentMethod)
}

// MockStockLedger records movements and can be told to refuse deductions.
type MockStockLedger struct {
	mu         sync.Mutex
	Deducted   [][]stock.Movement
	Restored   [][]stock.Movement
	DeductFunc func(ctx context.Context, movements []stock.Movement) error
}

func (m *MockStockLedger) Deduct(ctx context.Context, movements []stock.Movement) error {
	if m.DeductFunc != nil {
		return m.DeductFunc(ctx, movements)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deducted = append(m.Deducted, movements)
	return nil
}

func (m *MockStockLedger) Restore(ctx context.Context, movements []stock.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Restored = append(m.Restored, movements)
	return nil
}

func (m *MockStockLedger) DeductCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Deducted)
}

func (m *MockStockLedger) RestoreCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Restored)
}

// MockGate approves or denies elevated actions.
type MockGate struct {
	Deny    bool
	Reasons []string
}

func (m *MockGate) RequestElevatedAction(ctx context.Context, branchID uuid.UUID, pin, reason string) error {
	m.Reasons = append(m.Reasons, reason)
	if m.Deny {
		return auth.ErrAuthorizationDenied
	}
	return nil
}

// MockProfileRepo returns a fixed branch profile.
type MockProfileRepo struct {
	Profile *catalog.Profile
}

func (m *MockProfileRepo) Get(ctx context.Context, branchID uuid.UUID) (*catalog.Profile, error) {
	return m.Profile, nil
}

func (m *MockProfileRepo) Save(ctx context.Context, p *catalog.Profile) error {
	m.Profile = p
	return nil
}

// MockPendingStager records which command ids were staged for the local
// view.
type MockPendingStager struct {
	mu     sync.Mutex
	Staged []string
}

func (m *MockPendingStager) StagePending(commandID string, o *Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Staged = append(m.Staged, commandID)
}

func (m *MockPendingStager) StageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Staged)
}

// MockPublisher collects published messages.
type MockPublisher struct {
	mu        sync.Mutex
	Topics    []string
	Published [][]byte
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Topics = append(m.Topics, topic)
	m.Published = append(m.Published, msg)
	return nil
}

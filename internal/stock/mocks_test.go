package stock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/catalog"
)

// MockIngredientRepo is a map-backed implementation of catalog.IngredientRepo
// with the same conditional-decrement contract as the mongo repo.
type MockIngredientRepo struct {
	mu          sync.Mutex
	stocks      map[uuid.UUID]float64
	AdjustCalls int
	AdjustFunc  func(ctx context.Context, id uuid.UUID, delta float64) error
}

func NewMockIngredientRepo() *MockIngredientRepo {
	return &MockIngredientRepo{stocks: make(map[uuid.UUID]float64)}
}

func (m *MockIngredientRepo) SetStock(id uuid.UUID, stock float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks[id] = stock
}

func (m *MockIngredientRepo) Stock(id uuid.UUID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stocks[id]
}

func (m *MockIngredientRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta float64) error {
	if m.AdjustFunc != nil {
		return m.AdjustFunc(ctx, id, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AdjustCalls++
	current, ok := m.stocks[id]
	if !ok {
		return fmt.Errorf("ingredient not found")
	}
	if current+delta < 0 {
		return ErrInsufficientStock
	}
	m.stocks[id] = current + delta
	return nil
}

func (m *MockIngredientRepo) Create(ctx context.Context, ing *catalog.Ingredient) error {
	m.SetStock(ing.ID, ing.Stock)
	return nil
}

func (m *MockIngredientRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Ingredient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock, ok := m.stocks[id]
	if !ok {
		return nil, nil
	}
	return &catalog.Ingredient{ID: id, Stock: stock}, nil
}

func (m *MockIngredientRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*catalog.Ingredient, error) {
	return nil, nil
}

func (m *MockIngredientRepo) Save(ctx context.Context, ing *catalog.Ingredient) error {
	m.SetStock(ing.ID, ing.Stock)
	return nil
}

// MockMenuItemRepo tracks per-item unit counters.
type MockMenuItemRepo struct {
	mu     sync.Mutex
	stocks map[uuid.UUID]int64
}

func NewMockMenuItemRepo() *MockMenuItemRepo {
	return &MockMenuItemRepo{stocks: make(map[uuid.UUID]int64)}
}

func (m *MockMenuItemRepo) SetStock(id uuid.UUID, stock int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks[id] = stock
}

func (m *MockMenuItemRepo) Stock(id uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stocks[id]
}

func (m *MockMenuItemRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.stocks[id]
	if !ok {
		return fmt.Errorf("menu item not found")
	}
	if current+delta < 0 {
		return ErrInsufficientStock
	}
	m.stocks[id] = current + delta
	return nil
}

func (m *MockMenuItemRepo) Create(ctx context.Context, item *catalog.MenuItem) error {
	m.SetStock(item.ID, item.Stock)
	return nil
}

func (m *MockMenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock, ok := m.stocks[id]
	if !ok {
		return nil, nil
	}
	return &catalog.MenuItem{ID: id, Stock: stock, TrackStock: true}, nil
}

func (m *MockMenuItemRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*catalog.MenuItem, error) {
	return nil, nil
}

func (m *MockMenuItemRepo) Save(ctx context.Context, item *catalog.MenuItem) error {
	m.SetStock(item.ID, item.Stock)
	return nil
}

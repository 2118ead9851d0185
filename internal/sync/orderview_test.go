package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/localcache"
	"github.com/warungclub/warung/internal/order"
	"github.com/warungclub/warung/internal/stock"
)

var viewBranchID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440080")

type stubOrderRepo struct {
	mu         sync.Mutex
	orders     []*order.Order
	fail       bool
	failCreate bool
}

func (s *stubOrderRepo) set(orders ...*order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = orders
}

func (s *stubOrderRepo) Create(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return fmt.Errorf("store unreachable")
	}
	s.orders = append(s.orders, o)
	return nil
}

func (s *stubOrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, fmt.Errorf("store unreachable")
	}
	result := make([]*order.Order, len(s.orders))
	copy(result, s.orders)
	return result, nil
}

func (s *stubOrderRepo) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]*order.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) ListByStatus(ctx context.Context, branchID uuid.UUID, status order.Status) ([]*order.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) Save(ctx context.Context, o *order.Order) error { return nil }

func viewOrder(seq int64, status order.Status, commandID string) *order.Order {
	o := order.NewOrder()
	o.BranchID = viewBranchID
	o.SequentialID = seq
	o.Status = status
	o.LastCommandID = commandID
	o.BeforeCreate()
	return o
}

func TestOrderViewReplaceSnapshot(t *testing.T) {
	view := NewOrderView(viewBranchID, &stubOrderRepo{}, nil, nil)

	first := viewOrder(1, order.StatusPending, "cmd-1")
	second := viewOrder(2, order.StatusServing, "cmd-2")
	view.ReplaceSnapshot([]*order.Order{first, second})

	if view.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", view.Len())
	}

	// A later snapshot fully replaces the earlier one.
	third := viewOrder(3, order.StatusPending, "cmd-3")
	view.ReplaceSnapshot([]*order.Order{third})

	if view.Len() != 1 {
		t.Fatalf("Len() after replace = %d, want 1", view.Len())
	}
	if _, ok := view.Get(first.ID); ok {
		t.Error("replaced order still visible")
	}
	if got := view.ListByStatus(order.StatusPending); len(got) != 1 || got[0].ID != third.ID {
		t.Errorf("ListByStatus(pending) = %v", got)
	}
	if got := view.ListByStatus(order.StatusServing); len(got) != 0 {
		t.Errorf("ListByStatus(serving) = %d orders, want 0", len(got))
	}
}

func TestOrderViewPendingRetire(t *testing.T) {
	view := NewOrderView(viewBranchID, &stubOrderRepo{}, nil, nil)

	staged := viewOrder(1, order.StatusPending, "cmd-local")
	view.StagePending("cmd-local", staged)

	if view.PendingCount() != 1 {
		t.Fatalf("PendingCount() = %d, want 1", view.PendingCount())
	}
	if _, ok := view.Get(staged.ID); !ok {
		t.Fatal("staged order not visible")
	}

	// Snapshot confirming the command retires the pending entry.
	confirmed := *staged
	view.ReplaceSnapshot([]*order.Order{&confirmed})

	if view.PendingCount() != 0 {
		t.Errorf("PendingCount() after confirmation = %d, want 0", view.PendingCount())
	}
	if view.Len() != 1 {
		t.Errorf("Len() = %d, want 1", view.Len())
	}
}

func TestOrderViewPendingOverlay(t *testing.T) {
	view := NewOrderView(viewBranchID, &stubOrderRepo{}, nil, nil)

	o := viewOrder(1, order.StatusPending, "cmd-old")
	view.ReplaceSnapshot([]*order.Order{o})

	// Local transition not yet echoed by a snapshot.
	local := *o
	local.Status = order.StatusServing
	local.LastCommandID = "cmd-new"
	local.UpdatedAt = o.UpdatedAt.Add(time.Second)
	view.StagePending("cmd-new", &local)

	// A snapshot that does not carry cmd-new yet must not roll the order
	// back to its stale remote state.
	stale := *o
	view.ReplaceSnapshot([]*order.Order{&stale})

	got, ok := view.Get(o.ID)
	if !ok {
		t.Fatal("order missing from view")
	}
	if got.Status != order.StatusServing {
		t.Errorf("Status = %s, want serving (pending overlay)", got.Status)
	}
	if view.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", view.PendingCount())
	}

	// The confirming snapshot retires it.
	view.ReplaceSnapshot([]*order.Order{&local})
	if view.PendingCount() != 0 {
		t.Errorf("PendingCount() after confirmation = %d, want 0", view.PendingCount())
	}
}

func TestOrderViewPendingSupersededByNewerWrite(t *testing.T) {
	view := NewOrderView(viewBranchID, &stubOrderRepo{}, nil, nil)

	o := viewOrder(1, order.StatusPending, "cmd-old")
	view.ReplaceSnapshot([]*order.Order{o})

	local := *o
	local.Status = order.StatusServing
	local.LastCommandID = "cmd-mine"
	local.UpdatedAt = o.UpdatedAt.Add(time.Second)
	view.StagePending("cmd-mine", &local)

	// Another terminal writes the same order after us. The snapshot never
	// carries cmd-mine, but the newer remote state must win and the pending
	// entry must not shadow it forever.
	theirs := *o
	theirs.Status = order.StatusCompleted
	theirs.LastCommandID = "cmd-theirs"
	theirs.UpdatedAt = local.UpdatedAt.Add(time.Second)
	view.ReplaceSnapshot([]*order.Order{&theirs})

	if view.PendingCount() != 0 {
		t.Errorf("PendingCount() after supersede = %d, want 0", view.PendingCount())
	}
	got, ok := view.Get(o.ID)
	if !ok {
		t.Fatal("order missing from view")
	}
	if got.Status != order.StatusCompleted {
		t.Errorf("Status = %s, want completed (remote write wins)", got.Status)
	}
}

type stubShiftService struct{ shiftID uuid.UUID }

func (s *stubShiftService) ActiveShiftID(ctx context.Context, branchID uuid.UUID) (uuid.UUID, error) {
	return s.shiftID, nil
}

func (s *stubShiftService) NextSequential(ctx context.Context, shiftID uuid.UUID) (int64, error) {
	return 1, nil
}

func (s *stubShiftService) RecordSale(ctx context.Context, shiftID uuid.UUID, total int64, paymentMethod string) {
}

type stubStockLedger struct{}

func (stubStockLedger) Deduct(ctx context.Context, movements []stock.Movement) error  { return nil }
func (stubStockLedger) Restore(ctx context.Context, movements []stock.Movement) error { return nil }

// A write the store rejects must never surface in the local view, and a
// write the store accepts must surface immediately.
func TestOrderViewOnlyShowsConfirmedWrites(t *testing.T) {
	repo := &stubOrderRepo{failCreate: true}
	view := NewOrderView(viewBranchID, repo, nil, nil)

	service := order.NewService(order.ServiceDeps{
		Orders:  repo,
		Shifts:  &stubShiftService{shiftID: uuid.MustParse("550e8400-e29b-41d4-a716-446655440081")},
		Stock:   stubStockLedger{},
		Pending: view,
	}, nil)

	input := order.CreateInput{
		BranchID: viewBranchID,
		Items: []order.CartItem{
			{MenuItemID: uuid.New(), Name: "Es Teh", Price: 5000, Quantity: 1},
		},
	}

	if _, err := service.Create(context.Background(), input); err == nil {
		t.Fatal("Create() against failing store should error")
	}
	if view.Len() != 0 || view.PendingCount() != 0 {
		t.Fatalf("failed create leaked into view: len=%d pending=%d", view.Len(), view.PendingCount())
	}

	// The next store reload must not resurrect anything either.
	repo.failCreate = false
	if err := view.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if view.Len() != 0 {
		t.Fatalf("Len() after refresh = %d, want 0", view.Len())
	}

	created, err := service.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, ok := view.Get(created.ID); !ok {
		t.Error("confirmed create not visible in view")
	}
	if view.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", view.PendingCount())
	}
}

func TestOrderViewWarmFallsBackToCache(t *testing.T) {
	cache, err := localcache.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("localcache.New() error = %v", err)
	}

	repo := &stubOrderRepo{}
	repo.set(viewOrder(1, order.StatusPending, "cmd-1"))

	// First terminal session: store reachable, snapshot lands in the cache.
	view := NewOrderView(viewBranchID, repo, cache, nil)
	if err := view.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if view.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", view.Len())
	}

	// Restart while offline: the cached snapshot carries the view.
	repo.fail = true
	restarted := NewOrderView(viewBranchID, repo, cache, nil)
	if err := restarted.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() offline error = %v", err)
	}
	if restarted.Len() != 1 {
		t.Errorf("Len() after offline warm = %d, want 1", restarted.Len())
	}
}

func TestOrderViewListOrdering(t *testing.T) {
	view := NewOrderView(viewBranchID, &stubOrderRepo{}, nil, nil)

	view.ReplaceSnapshot([]*order.Order{
		viewOrder(3, order.StatusPending, "c3"),
		viewOrder(1, order.StatusPending, "c1"),
		viewOrder(2, order.StatusPending, "c2"),
	})

	got := view.List()
	if len(got) != 3 {
		t.Fatalf("List() = %d orders, want 3", len(got))
	}
	for i, o := range got {
		if o.SequentialID != int64(i+1) {
			t.Errorf("List()[%d].SequentialID = %d, want %d", i, o.SequentialID, i+1)
		}
	}
}

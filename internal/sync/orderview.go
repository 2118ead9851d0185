package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/localcache"
	"github.com/warungclub/warung/internal/order"
)

// OrderView is the terminal's in-memory picture of the branch's orders,
// indexed by status for the cashier and kitchen boards. The remote order
// store is authoritative: every received order event triggers a full
// reload, and the fetched snapshot replaces the cache wholesale.
//
// Writes issued by this terminal are staged as pending commands so the
// operator sees them immediately. A pending entry is retired when a
// snapshot arrives carrying its command id; until then it overlays the
// snapshot copy of the same order.
type OrderView struct {
	mu       sync.RWMutex
	branchID uuid.UUID
	orders   map[uuid.UUID]*order.Order
	byStatus map[order.Status][]uuid.UUID
	pending  map[string]*order.Order

	repo   order.OrderRepo
	cache  *localcache.Cache
	logger apt.Logger
}

func NewOrderView(branchID uuid.UUID, repo order.OrderRepo, cache *localcache.Cache, logger apt.Logger) *OrderView {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderView{
		branchID: branchID,
		orders:   make(map[uuid.UUID]*order.Order),
		byStatus: make(map[order.Status][]uuid.UUID),
		pending:  make(map[string]*order.Order),
		repo:     repo,
		cache:    cache,
		logger:   logger,
	}
}

// StagePending records an optimistic local write under its command id and
// shows it in the view immediately.
func (v *OrderView) StagePending(commandID string, o *order.Order) {
	if commandID == "" || o == nil {
		return
	}

	copied := *o

	v.mu.Lock()
	v.pending[commandID] = &copied
	v.orders[copied.ID] = &copied
	v.reindexLocked()
	v.mu.Unlock()
}

// ReplaceSnapshot swaps the cached orders for the fetched ones. Pending
// commands confirmed by the snapshot are retired; unconfirmed ones are
// overlaid so local writes never disappear from the operator's screen.
// A pending entry is also retired when the snapshot carries the same order
// with a different command id and a timestamp no older than ours: another
// terminal has written over our confirmed write, and the store wins.
func (v *OrderView) ReplaceSnapshot(orders []*order.Order) {
	v.mu.Lock()

	v.orders = make(map[uuid.UUID]*order.Order, len(orders))
	for _, o := range orders {
		copied := *o
		v.orders[copied.ID] = &copied
		if copied.LastCommandID != "" {
			delete(v.pending, copied.LastCommandID)
		}
	}

	for commandID, p := range v.pending {
		if remote, ok := v.orders[p.ID]; ok && !remote.UpdatedAt.Before(p.UpdatedAt) {
			delete(v.pending, commandID)
		}
	}

	for _, p := range v.pending {
		copied := *p
		v.orders[copied.ID] = &copied
	}

	v.reindexLocked()
	snapshot := v.listLocked()
	v.mu.Unlock()

	v.persist(snapshot)
}

// Refresh reloads the branch snapshot from the order store.
func (v *OrderView) Refresh(ctx context.Context) error {
	orders, err := v.repo.ListByBranch(ctx, v.branchID)
	if err != nil {
		return fmt.Errorf("cannot reload branch orders: %w", err)
	}
	v.ReplaceSnapshot(orders)
	return nil
}

// Warm fills the view on startup: from the order store when reachable,
// from the durable local cache otherwise.
func (v *OrderView) Warm(ctx context.Context) error {
	if err := v.Refresh(ctx); err == nil {
		v.logger.Info("order view warmed from store", "orders", v.Len())
		return nil
	} else {
		v.logger.Info("store unreachable, warming order view from local cache", "error", err)
	}

	if v.cache == nil {
		v.logger.Info("no local cache configured, order view starts empty")
		return nil
	}

	var cached []*order.Order
	found, err := v.cache.Get(v.cacheKey(), &cached)
	if err != nil {
		return fmt.Errorf("cannot load cached orders: %w", err)
	}
	if !found {
		v.logger.Info("no cached snapshot, order view starts empty")
		return nil
	}

	v.mu.Lock()
	v.orders = make(map[uuid.UUID]*order.Order, len(cached))
	for _, o := range cached {
		v.orders[o.ID] = o
	}
	v.reindexLocked()
	v.mu.Unlock()

	v.logger.Info("order view warmed from local cache", "orders", len(cached))
	return nil
}

func (v *OrderView) Get(id uuid.UUID) (*order.Order, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	o, ok := v.orders[id]
	if !ok {
		return nil, false
	}
	copied := *o
	return &copied, true
}

func (v *OrderView) List() []*order.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.listLocked()
}

func (v *OrderView) ListByStatus(status order.Status) []*order.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ids := v.byStatus[status]
	result := make([]*order.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := v.orders[id]; ok {
			copied := *o
			result = append(result, &copied)
		}
	}
	return result
}

func (v *OrderView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.orders)
}

// PendingCount reports how many local writes still await confirmation.
func (v *OrderView) PendingCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.pending)
}

// listLocked returns copies ordered by sequential id for stable output.
// Must be called with v.mu held.
func (v *OrderView) listLocked() []*order.Order {
	result := make([]*order.Order, 0, len(v.orders))
	for _, o := range v.orders {
		copied := *o
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SequentialID != result[j].SequentialID {
			return result[i].SequentialID < result[j].SequentialID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// reindexLocked rebuilds the status index. Must be called with v.mu held.
func (v *OrderView) reindexLocked() {
	v.byStatus = make(map[order.Status][]uuid.UUID, len(v.byStatus))
	for id, o := range v.orders {
		v.byStatus[o.Status] = append(v.byStatus[o.Status], id)
	}
}

func (v *OrderView) persist(snapshot []*order.Order) {
	if v.cache == nil {
		return
	}
	if err := v.cache.Put(v.cacheKey(), snapshot); err != nil {
		v.logger.Error("cannot persist order snapshot", "error", err)
	}
}

func (v *OrderView) cacheKey() string {
	return localcache.BranchKey(v.branchID, "orders")
}

package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/catalog"
	"github.com/warungclub/warung/internal/pricing"
	"github.com/warungclub/warung/internal/shift"
	"github.com/warungclub/warung/internal/stock"
	"github.com/warungclub/warung/pkg/event"
)

// ShiftService is the slice of the shift ledger the order service needs.
type ShiftService interface {
	ActiveShiftID(ctx context.Context, branchID uuid.UUID) (uuid.UUID, error)
	NextSequential(ctx context.Context, shiftID uuid.UUID) (int64, error)
	RecordSale(ctx context.Context, shiftID uuid.UUID, total int64, paymentMethod string)
}

// StockLedger deducts and restores ingredient/unit stock for order items.
type StockLedger interface {
	Deduct(ctx context.Context, movements []stock.Movement) error
	Restore(ctx context.Context, movements []stock.Movement) error
}

// AuthGate verifies a staff PIN (or super-admin override) for gated actions.
// It returns nil when the action is allowed.
type AuthGate interface {
	RequestElevatedAction(ctx context.Context, branchID uuid.UUID, pin, reason string) error
}

// PendingStager receives local writes that the remote store has accepted
// but no authoritative snapshot has echoed yet, so the local view shows
// them immediately. Writes are staged only after the store confirms them;
// a failed write never reaches the view.
type PendingStager interface {
	StagePending(commandID string, o *Order)
}

type Service struct {
	orders    OrderRepo
	shifts    ShiftService
	stock     StockLedger
	gate      AuthGate
	profiles  catalog.ProfileRepo
	publisher events.Publisher
	pending   PendingStager
	logger    apt.Logger
}

type ServiceDeps struct {
	Orders    OrderRepo
	Shifts    ShiftService
	Stock     StockLedger
	Gate      AuthGate
	Profiles  catalog.ProfileRepo
	Publisher events.Publisher
	Pending   PendingStager
}

func NewService(deps ServiceDeps, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{
		orders:    deps.Orders,
		shifts:    deps.Shifts,
		stock:     deps.Stock,
		gate:      deps.Gate,
		profiles:  deps.Profiles,
		publisher: deps.Publisher,
		pending:   deps.Pending,
		logger:    logger,
	}
}

type CreateInput struct {
	BranchID     uuid.UUID
	Items        []CartItem
	Discount     pricing.Discount
	CustomerName string
	TableNumber  string
	OrderType    string
	Source       string
}

// Create builds, prices, and persists a new order. Stock is deducted before
// the remote write and restored if the write fails, so a partial failure
// never leaves stock drifted. Orders from the self-order channel may be
// created while no till shift is open; everything else requires one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if err := validateDiscount(in.Discount); err != nil {
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = SourceAdmin
	}

	shiftID, err := s.shifts.ActiveShiftID(ctx, in.BranchID)
	if err != nil {
		if !errors.Is(err, shift.ErrNoActiveShift) || source != SourceCustomer {
			return nil, err
		}
		// Self-order channel: accepted without a till shift, settled later.
		shiftID = uuid.Nil
	}

	o := NewOrder()
	o.BranchID = in.BranchID
	o.ShiftID = shiftID
	o.CustomerName = in.CustomerName
	o.TableNumber = in.TableNumber
	o.OrderType = in.OrderType
	o.Source = source
	o.Items = in.Items
	o.DiscountType = in.Discount.Type
	o.DiscountValue = in.Discount.Value
	s.price(ctx, o)
	o.BeforeCreate()

	movements := movementsFrom(in.Items)
	if err := s.stock.Deduct(ctx, movements); err != nil {
		return nil, err
	}

	if shiftID != uuid.Nil {
		seq, err := s.shifts.NextSequential(ctx, shiftID)
		if err != nil {
			s.compensate(ctx, movements, nil)
			return nil, fmt.Errorf("cannot allocate order number: %w", err)
		}
		o.SequentialID = seq
	}

	o.LastCommandID = newCommandID()

	if err := s.orders.Create(ctx, o); err != nil {
		s.compensate(ctx, movements, nil)
		return nil, fmt.Errorf("cannot persist order: %w", err)
	}

	s.stagePending(o)
	s.publishOrderEvent(ctx, event.EventOrderCreated, o, "")
	s.logger.Info("order created",
		"order_id", o.ID.String(),
		"branch_id", o.BranchID.String(),
		"sequential_id", o.SequentialID,
		"total", o.Total,
	)
	return o, nil
}

// Pay marks the order paid. Payment is orthogonal to the kitchen lifecycle.
func (s *Service) Pay(ctx context.Context, id uuid.UUID, method string) (*Order, error) {
	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.IsPaid {
		// Already settled; a repeated request must not re-count the sale.
		return o, nil
	}
	if err := o.Pay(method); err != nil {
		return nil, err
	}

	o.LastCommandID = newCommandID()
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("cannot persist payment: %w", err)
	}

	s.stagePending(o)
	s.shifts.RecordSale(ctx, o.ShiftID, o.Total, method)
	s.publishOrderEvent(ctx, event.EventOrderPaid, o, "")
	return o, nil
}

// MarkServing moves the order from pending to serving (kitchen done).
func (s *Service) MarkServing(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.transition(ctx, id, func(o *Order) error { return o.MarkServing() })
}

// Complete closes out a serving order.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.transition(ctx, id, func(o *Order) error { return o.Complete() })
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, apply func(*Order) error) (*Order, error) {
	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := o.Status
	if err := apply(o); err != nil {
		return nil, err
	}
	if o.Status == prev {
		// Idempotent no-op; nothing to persist or announce.
		return o, nil
	}

	o.LastCommandID = newCommandID()
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("cannot persist order status: %w", err)
	}

	s.stagePending(o)
	s.publishOrderEvent(ctx, event.EventOrderStatusChanged, o, "")
	return o, nil
}

// Void cancels a pending or serving order and restores the stock its
// remaining items hold. The action is gated behind an elevated PIN check.
func (s *Service) Void(ctx context.Context, id uuid.UUID, pin string) (*Order, error) {
	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.gate != nil {
		if err := s.gate.RequestElevatedAction(ctx, o.BranchID, pin, "void_order"); err != nil {
			return nil, err
		}
	}

	if o.Status == StatusCancelled {
		// Already voided; restoring stock again would drift the counters.
		return o, nil
	}
	if err := o.Cancel(); err != nil {
		return nil, err
	}

	movements := movementsFrom(o.Items)
	if err := s.stock.Restore(ctx, movements); err != nil {
		return nil, fmt.Errorf("cannot restore stock for void: %w", err)
	}

	o.LastCommandID = newCommandID()
	if err := s.orders.Save(ctx, o); err != nil {
		s.compensate(ctx, nil, movements)
		return nil, fmt.Errorf("cannot persist void: %w", err)
	}

	s.stagePending(o)
	s.publishOrderEvent(ctx, event.EventOrderVoided, o, "")
	s.logger.Info("order voided", "order_id", o.ID.String(), "sequential_id", o.SequentialID)
	return o, nil
}

// UpdateItems replaces the item list of a pending or serving order,
// reconciling stock by the quantity deltas only: newly added quantity is
// deducted, removed quantity is restored, unchanged quantity is untouched.
func (s *Service) UpdateItems(ctx context.Context, id uuid.UUID, items []CartItem) (*Order, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	o, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Mutable() {
		return nil, ErrInvalidTransition
	}

	additions, removals := itemDeltas(o.Items, items)

	if err := s.stock.Deduct(ctx, additions); err != nil {
		return nil, err
	}
	if err := s.stock.Restore(ctx, removals); err != nil {
		s.compensate(ctx, additions, nil)
		return nil, fmt.Errorf("cannot restore removed quantities: %w", err)
	}

	o.Items = items
	s.price(ctx, o)
	o.BeforeUpdate()

	o.LastCommandID = newCommandID()
	if err := s.orders.Save(ctx, o); err != nil {
		s.compensate(ctx, additions, removals)
		return nil, fmt.Errorf("cannot persist item update: %w", err)
	}

	s.stagePending(o)
	s.publishOrderEvent(ctx, event.EventOrderUpdated, o, "")
	return o, nil
}

type SplitItem struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
}

// Split moves a quantity subset of the source order's items into a new
// order. The two resulting item sets partition the original quantities
// exactly, and no stock moves: the quantities were already deducted at
// creation and merely change owner.
func (s *Service) Split(ctx context.Context, sourceID uuid.UUID, moves []SplitItem, customerName string) (*Order, error) {
	if len(moves) == 0 {
		return nil, ErrBadSplit
	}

	src, err := s.get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !src.Mutable() {
		return nil, ErrInvalidTransition
	}
	if src.IsPaid {
		return nil, ErrOrderPaid
	}

	remainder, moved, err := partitionItems(src.Items, moves)
	if err != nil {
		return nil, err
	}
	if len(remainder) == 0 {
		// Moving everything is not a split; keep at least one item behind.
		return nil, ErrBadSplit
	}

	dst := NewOrder()
	dst.BranchID = src.BranchID
	dst.ShiftID = src.ShiftID
	dst.CustomerName = customerName
	dst.TableNumber = src.TableNumber
	dst.OrderType = src.OrderType
	dst.Source = src.Source
	dst.Status = src.Status
	dst.Items = moved
	s.price(ctx, dst)
	dst.BeforeCreate()

	if dst.ShiftID != uuid.Nil {
		seq, err := s.shifts.NextSequential(ctx, dst.ShiftID)
		if err != nil {
			return nil, fmt.Errorf("cannot allocate order number: %w", err)
		}
		dst.SequentialID = seq
	}

	originalItems := src.Items
	src.Items = remainder
	s.price(ctx, src)
	src.BeforeUpdate()

	src.LastCommandID = newCommandID()
	dst.LastCommandID = newCommandID()

	if err := s.orders.Save(ctx, src); err != nil {
		return nil, fmt.Errorf("cannot persist split source: %w", err)
	}
	if err := s.orders.Create(ctx, dst); err != nil {
		// Put the moved quantities back on the source.
		src.Items = originalItems
		s.price(ctx, src)
		src.BeforeUpdate()
		if saveErr := s.orders.Save(ctx, src); saveErr != nil {
			s.logger.Error("cannot undo split source reduction", "order_id", src.ID.String(), "error", saveErr)
		}
		return nil, fmt.Errorf("cannot persist split order: %w", err)
	}

	s.stagePending(src)
	s.stagePending(dst)
	s.publishOrderEvent(ctx, event.EventOrderUpdated, src, "")
	s.publishOrderEvent(ctx, event.EventOrderSplit, dst, src.ID.String())
	s.logger.Info("order split",
		"source_order_id", src.ID.String(),
		"new_order_id", dst.ID.String(),
	)
	return dst, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cannot load order: %w", err)
	}
	if o == nil {
		return nil, fmt.Errorf("order not found")
	}
	return o, nil
}

// price recomputes the monetary breakdown from the order's items, its
// discount settings, and the branch profile's tax/service configuration.
func (s *Service) price(ctx context.Context, o *Order) {
	var tax pricing.TaxConfig
	var service pricing.ServiceConfig
	if s.profiles != nil {
		if p, err := s.profiles.Get(ctx, o.BranchID); err == nil && p != nil {
			tax = p.Tax
			service = p.Service
		}
	}

	lines := make([]pricing.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, pricing.Line{Price: it.Price, Quantity: it.Quantity})
	}

	b := pricing.Calculate(lines, pricing.Discount{Type: o.DiscountType, Value: o.DiscountValue}, tax, service)
	o.Subtotal = b.Subtotal
	o.Discount = b.Discount
	o.ServiceCharge = b.ServiceCharge
	o.TaxAmount = b.Tax
	o.Total = b.Total
}

// compensate undoes stock work after a failed persist: deductions are
// restored and restorations re-deducted. Failures here are logged; there is
// no caller left to surface them to.
func (s *Service) compensate(ctx context.Context, deducted, restored []stock.Movement) {
	if len(deducted) > 0 {
		if err := s.stock.Restore(ctx, deducted); err != nil {
			s.logger.Error("cannot compensate stock deduction", "error", err)
		}
	}
	if len(restored) > 0 {
		if err := s.stock.Deduct(ctx, restored); err != nil {
			s.logger.Error("cannot compensate stock restoration", "error", err)
		}
	}
}

func (s *Service) stagePending(o *Order) {
	if s.pending != nil {
		s.pending.StagePending(o.LastCommandID, o)
	}
}

func (s *Service) publishOrderEvent(ctx context.Context, eventType string, o *Order, sourceOrderID string) {
	if s.publisher == nil {
		return
	}

	evt := event.OrderEvent{
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		CommandID:     o.LastCommandID,
		OrderID:       o.ID.String(),
		BranchID:      o.BranchID.String(),
		SequentialID:  o.SequentialID,
		Status:        string(o.Status),
		Total:         o.Total,
		IsPaid:        o.IsPaid,
		PaymentMethod: o.PaymentMethod,
		Source:        o.Source,
		SourceOrderID: sourceOrderID,
	}
	if o.ShiftID != uuid.Nil {
		evt.ShiftID = o.ShiftID.String()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot marshal order event", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event.OrdersTopic, payload); err != nil {
		s.logger.Error("cannot publish order event", "error", err, "order_id", o.ID.String())
	}
}

func newCommandID() string {
	return uuid.New().String()
}

func validateItems(items []CartItem) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return ErrBadQuantity
		}
	}
	return nil
}

func validateDiscount(d pricing.Discount) error {
	if d.Value == 0 && d.Type == "" {
		return nil
	}
	if d.Type != pricing.DiscountPercent && d.Type != pricing.DiscountFixed {
		return ErrBadDiscountType
	}
	return nil
}

func movementsFrom(items []CartItem) []stock.Movement {
	movements := make([]stock.Movement, 0, len(items))
	for _, it := range items {
		movements = append(movements, stock.Movement{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			TrackStock: it.TrackStock,
			Recipe:     it.Recipe,
		})
	}
	return movements
}

// itemDeltas compares old and new item lists per menu item and returns the
// added quantity to deduct and the removed quantity to restore. Snapshots
// for removals come from the old list so restoration mirrors the original
// deduction.
func itemDeltas(oldItems, newItems []CartItem) (additions, removals []stock.Movement) {
	oldByID := make(map[uuid.UUID]CartItem, len(oldItems))
	for _, it := range oldItems {
		if prev, ok := oldByID[it.MenuItemID]; ok {
			prev.Quantity += it.Quantity
			oldByID[it.MenuItemID] = prev
		} else {
			oldByID[it.MenuItemID] = it
		}
	}

	newQty := make(map[uuid.UUID]int, len(newItems))
	for _, it := range newItems {
		newQty[it.MenuItemID] += it.Quantity
	}

	for _, it := range newItems {
		old, had := oldByID[it.MenuItemID]
		oldQty := 0
		if had {
			oldQty = old.Quantity
		}
		added := newQty[it.MenuItemID] - oldQty
		if added > 0 {
			m := stock.Movement{
				MenuItemID: it.MenuItemID,
				Quantity:   added,
				TrackStock: it.TrackStock,
				Recipe:     it.Recipe,
			}
			additions = append(additions, m)
			// Consume the aggregate so duplicate lines do not double-count.
			newQty[it.MenuItemID] = oldQty
		}
	}

	for _, it := range oldItems {
		remaining, stays := newQty[it.MenuItemID]
		if !stays {
			remaining = 0
		}
		removed := oldByID[it.MenuItemID].Quantity - remaining
		if removed > 0 {
			removals = append(removals, stock.Movement{
				MenuItemID: it.MenuItemID,
				Quantity:   removed,
				TrackStock: it.TrackStock,
				Recipe:     it.Recipe,
			})
			old := oldByID[it.MenuItemID]
			old.Quantity = remaining
			oldByID[it.MenuItemID] = old
		}
	}

	return additions, removals
}

// partitionItems applies the split moves: it returns the source remainder
// and the moved set, preserving snapshots and refusing moves that exceed
// the available quantities.
func partitionItems(items []CartItem, moves []SplitItem) (remainder, moved []CartItem, err error) {
	wanted := make(map[uuid.UUID]int, len(moves))
	for _, m := range moves {
		if m.Quantity <= 0 {
			return nil, nil, ErrBadSplit
		}
		wanted[m.MenuItemID] += m.Quantity
	}

	for _, it := range items {
		take := wanted[it.MenuItemID]
		if take == 0 {
			remainder = append(remainder, it)
			continue
		}
		if take > it.Quantity {
			take = it.Quantity
		}

		movedItem := it
		movedItem.Quantity = take
		moved = append(moved, movedItem)
		wanted[it.MenuItemID] -= take

		if rest := it.Quantity - take; rest > 0 {
			kept := it
			kept.Quantity = rest
			remainder = append(remainder, kept)
		}
	}

	for _, left := range wanted {
		if left > 0 {
			return nil, nil, ErrBadSplit
		}
	}
	return remainder, moved, nil
}

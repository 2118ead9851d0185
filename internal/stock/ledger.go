package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/catalog"
)

// ErrInsufficientStock is returned when a deduction would drive any affected
// stock below zero. Repos return it from their conditional decrements; the
// ledger surfaces it after rolling back partial work.
var ErrInsufficientStock = errors.New("insufficient stock")

// Movement is one order item's worth of stock impact: the menu item snapshot
// the cart carried at commit time. Quantity is always positive; Deduct and
// Restore decide the sign.
type Movement struct {
	MenuItemID uuid.UUID
	Quantity   int
	TrackStock bool
	Recipe     []catalog.RecipeLine
}

// Ledger translates order-item movements into ingredient and unit-counter
// deltas. Deduct and Restore are exact inverses over the same movements.
type Ledger struct {
	ingredients catalog.IngredientRepo
	menuItems   catalog.MenuItemRepo
	logger      apt.Logger
}

func NewLedger(ingredients catalog.IngredientRepo, menuItems catalog.MenuItemRepo, logger apt.Logger) *Ledger {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Ledger{
		ingredients: ingredients,
		menuItems:   menuItems,
		logger:      logger,
	}
}

// Deduct decrements stock for every movement. If any line would go negative
// the already-applied decrements are rolled back and ErrInsufficientStock is
// returned; no partial deduction survives.
func (l *Ledger) Deduct(ctx context.Context, movements []Movement) error {
	return l.apply(ctx, movements, -1)
}

// Restore is the inverse of Deduct for the same movements.
func (l *Ledger) Restore(ctx context.Context, movements []Movement) error {
	return l.apply(ctx, movements, 1)
}

type ingredientDelta struct {
	id     uuid.UUID
	amount float64
}

type unitDelta struct {
	id  uuid.UUID
	qty int64
}

func (l *Ledger) apply(ctx context.Context, movements []Movement, sign float64) error {
	ingDeltas, unitDeltas := collapse(movements)

	var appliedIng []ingredientDelta
	for _, d := range ingDeltas {
		if err := l.ingredients.AdjustStock(ctx, d.id, sign*d.amount); err != nil {
			l.rollback(ctx, appliedIng, nil, sign)
			if errors.Is(err, ErrInsufficientStock) {
				return fmt.Errorf("ingredient %s: %w", d.id, ErrInsufficientStock)
			}
			return fmt.Errorf("cannot adjust ingredient %s: %w", d.id, err)
		}
		appliedIng = append(appliedIng, d)
	}

	var appliedUnits []unitDelta
	for _, d := range unitDeltas {
		if err := l.menuItems.AdjustStock(ctx, d.id, int64(sign)*d.qty); err != nil {
			l.rollback(ctx, appliedIng, appliedUnits, sign)
			if errors.Is(err, ErrInsufficientStock) {
				return fmt.Errorf("menu item %s: %w", d.id, ErrInsufficientStock)
			}
			return fmt.Errorf("cannot adjust menu item %s: %w", d.id, err)
		}
		appliedUnits = append(appliedUnits, d)
	}

	return nil
}

func (l *Ledger) rollback(ctx context.Context, ing []ingredientDelta, units []unitDelta, sign float64) {
	for _, d := range ing {
		if err := l.ingredients.AdjustStock(ctx, d.id, -sign*d.amount); err != nil {
			l.logger.Error("cannot roll back ingredient adjustment", "ingredient_id", d.id.String(), "error", err)
		}
	}
	for _, d := range units {
		if err := l.menuItems.AdjustStock(ctx, d.id, -int64(sign)*d.qty); err != nil {
			l.logger.Error("cannot roll back menu item adjustment", "menu_item_id", d.id.String(), "error", err)
		}
	}
}

// collapse aggregates the movements into one delta per ingredient and one
// per tracked menu item, so the same ingredient shared by several cart items
// is adjusted once.
func collapse(movements []Movement) ([]ingredientDelta, []unitDelta) {
	ingAmounts := make(map[uuid.UUID]float64)
	var ingOrder []uuid.UUID
	unitQtys := make(map[uuid.UUID]int64)
	var unitOrder []uuid.UUID

	for _, m := range movements {
		if m.Quantity <= 0 {
			continue
		}
		for _, line := range m.Recipe {
			if _, seen := ingAmounts[line.IngredientID]; !seen {
				ingOrder = append(ingOrder, line.IngredientID)
			}
			ingAmounts[line.IngredientID] += line.Amount * float64(m.Quantity)
		}
		if m.TrackStock {
			if _, seen := unitQtys[m.MenuItemID]; !seen {
				unitOrder = append(unitOrder, m.MenuItemID)
			}
			unitQtys[m.MenuItemID] += int64(m.Quantity)
		}
	}

	ing := make([]ingredientDelta, 0, len(ingOrder))
	for _, id := range ingOrder {
		ing = append(ing, ingredientDelta{id: id, amount: ingAmounts[id]})
	}
	units := make([]unitDelta, 0, len(unitOrder))
	for _, id := range unitOrder {
		units = append(units, unitDelta{id: id, qty: unitQtys[id]})
	}
	return ing, units
}

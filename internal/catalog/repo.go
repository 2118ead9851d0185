package catalog

import (
	"context"

	"github.com/google/uuid"
)

type MenuItemRepo interface {
	Create(ctx context.Context, item *MenuItem) error
	Get(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*MenuItem, error)
	Save(ctx context.Context, item *MenuItem) error
	// AdjustStock atomically adds delta to the item's unit counter. A
	// negative delta that would drive the counter below zero fails without
	// applying anything.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int64) error
}

type IngredientRepo interface {
	Create(ctx context.Context, ing *Ingredient) error
	Get(ctx context.Context, id uuid.UUID) (*Ingredient, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*Ingredient, error)
	Save(ctx context.Context, ing *Ingredient) error
	// AdjustStock follows the same conditional-decrement contract as
	// MenuItemRepo.AdjustStock, in fractional units.
	AdjustStock(ctx context.Context, id uuid.UUID, delta float64) error
}

type CategoryRepo interface {
	Create(ctx context.Context, cat *Category) error
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*Category, error)
	Save(ctx context.Context, cat *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileRepo interface {
	Get(ctx context.Context, branchID uuid.UUID) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}

type StaffRepo interface {
	Create(ctx context.Context, s *Staff) error
	Get(ctx context.Context, id uuid.UUID) (*Staff, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*Staff, error)
	Save(ctx context.Context, s *Staff) error
}

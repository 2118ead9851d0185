package order

import (
	"context"

	"github.com/google/uuid"
)

type OrderRepo interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*Order, error)
	ListByShift(ctx context.Context, shiftID uuid.UUID) ([]*Order, error)
	ListByStatus(ctx context.Context, branchID uuid.UUID, status Status) ([]*Order, error)
	Save(ctx context.Context, o *Order) error
}

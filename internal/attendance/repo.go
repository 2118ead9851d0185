package attendance

import (
	"context"

	"github.com/google/uuid"
)

type RecordRepo interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	OpenForStaff(ctx context.Context, branchID, staffID uuid.UUID) (*Record, error)
	ListByBranchAndDate(ctx context.Context, branchID uuid.UUID, date string) ([]*Record, error)
	Save(ctx context.Context, rec *Record) error
}

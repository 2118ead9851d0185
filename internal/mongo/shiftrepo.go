package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/warungclub/warung/internal/shift"
)

type ShiftRepo struct {
	collection *mongo.Collection
}

func NewShiftRepo(db *mongo.Database) *ShiftRepo {
	return &ShiftRepo{
		collection: db.Collection("shifts"),
	}
}

func (r *ShiftRepo) Create(ctx context.Context, s *shift.Shift) error {
	if s == nil {
		return fmt.Errorf("shift is nil")
	}

	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("cannot create shift: %w", err)
	}

	return nil
}

func (r *ShiftRepo) Get(ctx context.Context, id uuid.UUID) (*shift.Shift, error) {
	var s shift.Shift
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get shift: %w", err)
	}
	return &s, nil
}

func (r *ShiftRepo) Active(ctx context.Context, branchID uuid.UUID) (*shift.Shift, error) {
	filter := bson.M{
		"branch_id": branchID,
		"closed_at": bson.M{"$exists": false},
	}

	var s shift.Shift
	err := r.collection.FindOne(ctx, filter).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get active shift: %w", err)
	}
	return &s, nil
}

func (r *ShiftRepo) Save(ctx context.Context, s *shift.Shift) error {
	if s == nil {
		return fmt.Errorf("shift is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return fmt.Errorf("cannot save shift: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("shift %s not found", s.ID)
	}

	return nil
}

// NextSequential advances the shift's order counter with a single atomic
// increment on the shift document, so concurrent terminals never receive
// the same number.
func (r *ShiftRepo) NextSequential(ctx context.Context, shiftID uuid.UUID) (int64, error) {
	update := bson.M{"$inc": bson.M{"order_count": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s shift.Shift
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": shiftID}, update, opts).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, fmt.Errorf("shift %s not found", shiftID)
		}
		return 0, fmt.Errorf("cannot allocate sequential number: %w", err)
	}

	return s.OrderCount, nil
}

// IncrementSale bumps the shift's advisory revenue counters. Lost updates
// here are tolerable; the close recomputes everything from orders.
func (r *ShiftRepo) IncrementSale(ctx context.Context, shiftID uuid.UUID, total int64, cash bool) error {
	inc := bson.M{
		"revenue":      total,
		"transactions": 1,
	}
	if cash {
		inc["cash_revenue"] = total
	} else {
		inc["non_cash_revenue"] = total
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": shiftID}, bson.M{"$inc": inc})
	if err != nil {
		return fmt.Errorf("cannot increment shift counters: %w", err)
	}
	return nil
}

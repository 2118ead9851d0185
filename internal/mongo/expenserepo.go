package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/warungclub/warung/internal/shift"
)

type ExpenseRepo struct {
	collection *mongo.Collection
}

func NewExpenseRepo(db *mongo.Database) *ExpenseRepo {
	return &ExpenseRepo{
		collection: db.Collection("expenses"),
	}
}

func (r *ExpenseRepo) Create(ctx context.Context, e *shift.Expense) error {
	if e == nil {
		return fmt.Errorf("expense is nil")
	}

	if _, err := r.collection.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("cannot create expense: %w", err)
	}

	return nil
}

func (r *ExpenseRepo) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]*shift.Expense, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"shift_id": shiftID})
	if err != nil {
		return nil, fmt.Errorf("cannot list expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*shift.Expense
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode expenses: %w", err)
	}

	return result, nil
}

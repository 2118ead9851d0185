package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/warungclub/warung/internal/order"
	"github.com/warungclub/warung/internal/shift"
)

type OrderRepo struct {
	collection *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection("orders"),
	}
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("cannot create order: %w", err)
	}

	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*order.Order, error) {
	return r.list(ctx, bson.M{"branch_id": branchID})
}

func (r *OrderRepo) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]*order.Order, error) {
	return r.list(ctx, bson.M{"shift_id": shiftID})
}

func (r *OrderRepo) ListByStatus(ctx context.Context, branchID uuid.UUID, status order.Status) ([]*order.Order, error) {
	return r.list(ctx, bson.M{"branch_id": branchID, "status": status})
}

func (r *OrderRepo) Save(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return fmt.Errorf("cannot save order: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %s not found", o.ID)
	}

	return nil
}

// ListPaidSales feeds the shift close reconciliation: every paid,
// non-cancelled order of the shift, reduced to total and payment method.
func (r *OrderRepo) ListPaidSales(ctx context.Context, shiftID uuid.UUID) ([]shift.Sale, error) {
	filter := bson.M{
		"shift_id": shiftID,
		"is_paid":  true,
		"status":   bson.M{"$ne": order.StatusCancelled},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("cannot list paid orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*order.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("cannot decode paid orders: %w", err)
	}

	sales := make([]shift.Sale, 0, len(orders))
	for _, o := range orders {
		sales = append(sales, shift.Sale{
			Total:         o.Total,
			PaymentMethod: o.PaymentMethod,
		})
	}
	return sales, nil
}

func (r *OrderRepo) list(ctx context.Context, filter bson.M) ([]*order.Order, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return result, nil
}

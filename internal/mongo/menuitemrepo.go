package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/warungclub/warung/internal/catalog"
	"github.com/warungclub/warung/internal/stock"
)

type MenuItemRepo struct {
	collection *mongo.Collection
}

func NewMenuItemRepo(db *mongo.Database) *MenuItemRepo {
	return &MenuItemRepo{
		collection: db.Collection("menu_items"),
	}
}

func (r *MenuItemRepo) Create(ctx context.Context, item *catalog.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item is nil")
	}

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("cannot create menu item: %w", err)
	}

	return nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	var item catalog.MenuItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	return &item, nil
}

func (r *MenuItemRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*catalog.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"branch_id": branchID})
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*catalog.MenuItem
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}

	return result, nil
}

func (r *MenuItemRepo) Save(ctx context.Context, item *catalog.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return fmt.Errorf("cannot save menu item: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("menu item %s not found", item.ID)
	}

	return nil
}

// AdjustStock applies delta to the item's unit counter in one conditional
// update. A decrement only matches while the counter still covers it, so a
// losing concurrent terminal gets ErrInsufficientStock instead of driving
// the counter negative.
func (r *MenuItemRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int64) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"stock": delta}})
	if err != nil {
		return fmt.Errorf("cannot adjust menu item stock: %w", err)
	}
	if result.MatchedCount == 0 {
		if delta < 0 {
			return stock.ErrInsufficientStock
		}
		return fmt.Errorf("menu item %s not found", id)
	}

	return nil
}

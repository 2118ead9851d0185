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

type IngredientRepo struct {
	collection *mongo.Collection
}

func NewIngredientRepo(db *mongo.Database) *IngredientRepo {
	return &IngredientRepo{
		collection: db.Collection("ingredients"),
	}
}

func (r *IngredientRepo) Create(ctx context.Context, ing *catalog.Ingredient) error {
	if ing == nil {
		return fmt.Errorf("ingredient is nil")
	}

	if _, err := r.collection.InsertOne(ctx, ing); err != nil {
		return fmt.Errorf("cannot create ingredient: %w", err)
	}

	return nil
}

func (r *IngredientRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Ingredient, error) {
	var ing catalog.Ingredient
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ing)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get ingredient: %w", err)
	}
	return &ing, nil
}

func (r *IngredientRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*catalog.Ingredient, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"branch_id": branchID})
	if err != nil {
		return nil, fmt.Errorf("cannot list ingredients: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*catalog.Ingredient
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode ingredients: %w", err)
	}

	return result, nil
}

func (r *IngredientRepo) Save(ctx context.Context, ing *catalog.Ingredient) error {
	if ing == nil {
		return fmt.Errorf("ingredient is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": ing.ID}, ing)
	if err != nil {
		return fmt.Errorf("cannot save ingredient: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("ingredient %s not found", ing.ID)
	}

	return nil
}

// AdjustStock mirrors MenuItemRepo.AdjustStock for fractional ingredient
// amounts.
func (r *IngredientRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta float64) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"stock": delta}})
	if err != nil {
		return fmt.Errorf("cannot adjust ingredient stock: %w", err)
	}
	if result.MatchedCount == 0 {
		if delta < 0 {
			return stock.ErrInsufficientStock
		}
		return fmt.Errorf("ingredient %s not found", id)
	}

	return nil
}

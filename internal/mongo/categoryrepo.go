package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/warungclub/warung/internal/catalog"
)

type CategoryRepo struct {
	collection *mongo.Collection
}

func NewCategoryRepo(db *mongo.Database) *CategoryRepo {
	return &CategoryRepo{
		collection: db.Collection("categories"),
	}
}

func (r *CategoryRepo) Create(ctx context.Context, cat *catalog.Category) error {
	if cat == nil {
		return fmt.Errorf("category is nil")
	}

	if _, err := r.collection.InsertOne(ctx, cat); err != nil {
		return fmt.Errorf("cannot create category: %w", err)
	}

	return nil
}

func (r *CategoryRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*catalog.Category, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"branch_id": branchID})
	if err != nil {
		return nil, fmt.Errorf("cannot list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*catalog.Category
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode categories: %w", err)
	}

	return result, nil
}

func (r *CategoryRepo) Save(ctx context.Context, cat *catalog.Category) error {
	if cat == nil {
		return fmt.Errorf("category is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": cat.ID}, cat)
	if err != nil {
		return fmt.Errorf("cannot save category: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("category %s not found", cat.ID)
	}

	return nil
}

func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("cannot delete category: %w", err)
	}
	return nil
}

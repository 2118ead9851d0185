package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/warungclub/warung/internal/catalog"
)

type ProfileRepo struct {
	collection *mongo.Collection
}

func NewProfileRepo(db *mongo.Database) *ProfileRepo {
	return &ProfileRepo{
		collection: db.Collection("profiles"),
	}
}

func (r *ProfileRepo) Get(ctx context.Context, branchID uuid.UUID) (*catalog.Profile, error) {
	var p catalog.Profile
	err := r.collection.FindOne(ctx, bson.M{"_id": branchID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get branch profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepo) Save(ctx context.Context, p *catalog.Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.BranchID}, p, opts); err != nil {
		return fmt.Errorf("cannot save branch profile: %w", err)
	}

	return nil
}

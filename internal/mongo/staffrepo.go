package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/warungclub/warung/internal/catalog"
)

type StaffRepo struct {
	collection *mongo.Collection
}

func NewStaffRepo(db *mongo.Database) *StaffRepo {
	return &StaffRepo{
		collection: db.Collection("staff"),
	}
}

func (r *StaffRepo) Create(ctx context.Context, s *catalog.Staff) error {
	if s == nil {
		return fmt.Errorf("staff member is nil")
	}

	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("cannot create staff member: %w", err)
	}

	return nil
}

func (r *StaffRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Staff, error) {
	var s catalog.Staff
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get staff member: %w", err)
	}
	return &s, nil
}

func (r *StaffRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*catalog.Staff, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"branch_id": branchID})
	if err != nil {
		return nil, fmt.Errorf("cannot list staff: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*catalog.Staff
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode staff: %w", err)
	}

	return result, nil
}

func (r *StaffRepo) Save(ctx context.Context, s *catalog.Staff) error {
	if s == nil {
		return fmt.Errorf("staff member is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return fmt.Errorf("cannot save staff member: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("staff member %s not found", s.ID)
	}

	return nil
}

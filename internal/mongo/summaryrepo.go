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

type SummaryRepo struct {
	collection *mongo.Collection
}

func NewSummaryRepo(db *mongo.Database) *SummaryRepo {
	return &SummaryRepo{
		collection: db.Collection("shift_summaries"),
	}
}

// Save upserts on the summary id (the shift id), so a close retried after a
// partial failure replaces its own document instead of inserting a second
// one for the same shift.
func (r *SummaryRepo) Save(ctx context.Context, s *shift.Summary) error {
	if s == nil {
		return fmt.Errorf("summary is nil")
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": s.ID}, s, opts); err != nil {
		return fmt.Errorf("cannot save shift summary: %w", err)
	}

	return nil
}

func (r *SummaryRepo) Get(ctx context.Context, id uuid.UUID) (*shift.Summary, error) {
	var s shift.Summary
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get shift summary: %w", err)
	}
	return &s, nil
}

func (r *SummaryRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]*shift.Summary, error) {
	opts := options.Find().SetSort(bson.M{"closed_at": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"branch_id": branchID}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list shift summaries: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*shift.Summary
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode shift summaries: %w", err)
	}

	return result, nil
}

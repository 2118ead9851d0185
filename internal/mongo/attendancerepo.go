package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/warungclub/warung/internal/attendance"
)

type AttendanceRepo struct {
	collection *mongo.Collection
}

func NewAttendanceRepo(db *mongo.Database) *AttendanceRepo {
	return &AttendanceRepo{
		collection: db.Collection("attendance"),
	}
}

func (r *AttendanceRepo) Create(ctx context.Context, rec *attendance.Record) error {
	if rec == nil {
		return fmt.Errorf("attendance record is nil")
	}

	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("cannot create attendance record: %w", err)
	}

	return nil
}

func (r *AttendanceRepo) Get(ctx context.Context, id uuid.UUID) (*attendance.Record, error) {
	var rec attendance.Record
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get attendance record: %w", err)
	}
	return &rec, nil
}

func (r *AttendanceRepo) OpenForStaff(ctx context.Context, branchID, staffID uuid.UUID) (*attendance.Record, error) {
	filter := bson.M{
		"branch_id": branchID,
		"staff_id":  staffID,
		"clock_out": bson.M{"$exists": false},
	}

	var rec attendance.Record
	err := r.collection.FindOne(ctx, filter).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get open attendance record: %w", err)
	}
	return &rec, nil
}

func (r *AttendanceRepo) ListByBranchAndDate(ctx context.Context, branchID uuid.UUID, date string) ([]*attendance.Record, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"branch_id": branchID, "date": date})
	if err != nil {
		return nil, fmt.Errorf("cannot list attendance records: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*attendance.Record
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode attendance records: %w", err)
	}

	return result, nil
}

func (r *AttendanceRepo) Save(ctx context.Context, rec *attendance.Record) error {
	if rec == nil {
		return fmt.Errorf("attendance record is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return fmt.Errorf("cannot save attendance record: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("attendance record %s not found", rec.ID)
	}

	return nil
}

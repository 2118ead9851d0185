package attendance

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Record is one staff member's presence for one working day. Clock-in
// creates it; clock-out stamps it closed. A staff member has at most one
// open record per branch.
type Record struct {
	ID        uuid.UUID  `json:"id" bson:"_id"`
	BranchID  uuid.UUID  `json:"branch_id" bson:"branch_id"`
	StaffID   uuid.UUID  `json:"staff_id" bson:"staff_id"`
	StaffName string     `json:"staff_name" bson:"staff_name"`
	Date      string     `json:"date" bson:"date"`
	ClockIn   time.Time  `json:"clock_in" bson:"clock_in"`
	ClockOut  *time.Time `json:"clock_out,omitempty" bson:"clock_out,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

func (rec *Record) GetID() uuid.UUID {
	return rec.ID
}

func (rec *Record) ResourceType() string {
	return "attendance-record"
}

func (rec *Record) EnsureID() {
	if rec.ID == uuid.Nil {
		rec.ID = apt.GenerateNewID()
	}
}

func (rec *Record) BeforeCreate() {
	rec.EnsureID()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = time.Now()
}

func (rec *Record) BeforeUpdate() {
	rec.UpdatedAt = time.Now()
}

// Open reports whether the record has not been clocked out yet.
func (rec *Record) Open() bool {
	return rec.ClockOut == nil
}

// MarkClockedOut closes the record. Calling it again keeps the original
// clock-out time.
func (rec *Record) MarkClockedOut() {
	if rec.ClockOut != nil {
		return
	}
	now := time.Now()
	rec.ClockOut = &now
	rec.UpdatedAt = now
}

// DateOf formats t as the working-day key used on records.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

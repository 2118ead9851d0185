package event

import "time"

const (
	AttendanceTopic = "pos.attendance"

	EventAttendanceClockedIn  = "attendance.clocked_in"
	EventAttendanceClockedOut = "attendance.clocked_out"
)

type AttendanceEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	RecordID   string    `json:"record_id"`
	BranchID   string    `json:"branch_id"`
	StaffID    string    `json:"staff_id"`
	Date       string    `json:"date"`
}

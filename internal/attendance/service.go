package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/catalog"
	"github.com/warungclub/warung/pkg/event"
)

var (
	ErrAlreadyClockedIn = errors.New("staff member is already clocked in")
	ErrNotClockedIn     = errors.New("staff member is not clocked in")
)

// Identifier resolves a PIN to a branch staff member.
type Identifier interface {
	Identify(ctx context.Context, branchID uuid.UUID, pin string) (*catalog.Staff, error)
}

type Service struct {
	records   RecordRepo
	identify  Identifier
	publisher events.Publisher
	logger    apt.Logger
}

func NewService(records RecordRepo, identify Identifier, publisher events.Publisher, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{
		records:   records,
		identify:  identify,
		publisher: publisher,
		logger:    logger,
	}
}

// ClockIn identifies the staff member by PIN and opens a presence record.
// A second clock-in while one is open fails with ErrAlreadyClockedIn.
func (s *Service) ClockIn(ctx context.Context, branchID uuid.UUID, pin string) (*Record, error) {
	member, err := s.identify.Identify(ctx, branchID, pin)
	if err != nil {
		return nil, err
	}

	open, err := s.records.OpenForStaff(ctx, branchID, member.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot check open attendance: %w", err)
	}
	if open != nil {
		return nil, ErrAlreadyClockedIn
	}

	now := time.Now()
	rec := &Record{
		BranchID:  branchID,
		StaffID:   member.ID,
		StaffName: member.Name,
		Date:      DateOf(now),
		ClockIn:   now,
	}
	rec.BeforeCreate()

	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("cannot persist clock-in: %w", err)
	}

	s.publishEvent(ctx, event.EventAttendanceClockedIn, rec)
	s.logger.Info("staff clocked in",
		"branch_id", branchID.String(),
		"staff_id", member.ID.String(),
		"record_id", rec.ID.String(),
	)
	return rec, nil
}

// ClockOut closes the staff member's open record.
func (s *Service) ClockOut(ctx context.Context, branchID uuid.UUID, pin string) (*Record, error) {
	member, err := s.identify.Identify(ctx, branchID, pin)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.OpenForStaff(ctx, branchID, member.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot check open attendance: %w", err)
	}
	if rec == nil {
		return nil, ErrNotClockedIn
	}

	rec.MarkClockedOut()
	if err := s.records.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("cannot persist clock-out: %w", err)
	}

	s.publishEvent(ctx, event.EventAttendanceClockedOut, rec)
	s.logger.Info("staff clocked out",
		"branch_id", branchID.String(),
		"staff_id", member.ID.String(),
		"record_id", rec.ID.String(),
	)
	return rec, nil
}

// ListDay returns the branch's records for one working day.
func (s *Service) ListDay(ctx context.Context, branchID uuid.UUID, date string) ([]*Record, error) {
	if date == "" {
		date = DateOf(time.Now())
	}
	return s.records.ListByBranchAndDate(ctx, branchID, date)
}

func (s *Service) publishEvent(ctx context.Context, eventType string, rec *Record) {
	if s.publisher == nil {
		return
	}

	evt := event.AttendanceEvent{
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		RecordID:   rec.ID.String(),
		BranchID:   rec.BranchID.String(),
		StaffID:    rec.StaffID.String(),
		Date:       rec.Date,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot marshal attendance event", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event.AttendanceTopic, payload); err != nil {
		s.logger.Error("cannot publish attendance event", "error", err, "record_id", rec.ID.String())
	}
}

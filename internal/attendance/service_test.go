package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/warungclub/warung/internal/auth"
	"github.com/warungclub/warung/internal/catalog"
)

var (
	attBranchID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440060")
	attStaffID  = uuid.MustParse("550e8400-e29b-41d4-a716-446655440061")
)

type mockRecordRepo struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: make(map[uuid.UUID]*Record)}
}

func (m *mockRecordRepo) Create(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *rec
	m.records[rec.ID] = &copied
	return nil
}

func (m *mockRecordRepo) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (m *mockRecordRepo) OpenForStaff(ctx context.Context, branchID, staffID uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.BranchID == branchID && rec.StaffID == staffID && rec.Open() {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockRecordRepo) ListByBranchAndDate(ctx context.Context, branchID uuid.UUID, date string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Record
	for _, rec := range m.records {
		if rec.BranchID == branchID && rec.Date == date {
			copied := *rec
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockRecordRepo) Save(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *rec
	m.records[rec.ID] = &copied
	return nil
}

type mockIdentifier struct {
	Deny bool
}

func (m *mockIdentifier) Identify(ctx context.Context, branchID uuid.UUID, pin string) (*catalog.Staff, error) {
	if m.Deny {
		return nil, auth.ErrAuthorizationDenied
	}
	return &catalog.Staff{ID: attStaffID, BranchID: branchID, Name: "Budi", Role: "cashier"}, nil
}

func TestServiceClockInOut(t *testing.T) {
	repo := newMockRecordRepo()
	svc := NewService(repo, &mockIdentifier{}, nil, nil)

	rec, err := svc.ClockIn(context.Background(), attBranchID, "1111")
	if err != nil {
		t.Fatalf("ClockIn() error = %v", err)
	}
	if !rec.Open() {
		t.Error("fresh record must be open")
	}
	if rec.StaffID != attStaffID {
		t.Errorf("StaffID = %s, want %s", rec.StaffID, attStaffID)
	}

	// Clocking in again while open is a conflict.
	if _, err := svc.ClockIn(context.Background(), attBranchID, "1111"); !errors.Is(err, ErrAlreadyClockedIn) {
		t.Errorf("second ClockIn() error = %v, want ErrAlreadyClockedIn", err)
	}

	out, err := svc.ClockOut(context.Background(), attBranchID, "1111")
	if err != nil {
		t.Fatalf("ClockOut() error = %v", err)
	}
	if out.Open() {
		t.Error("record must be closed after clock-out")
	}
	if out.ID != rec.ID {
		t.Errorf("ClockOut() closed %s, want %s", out.ID, rec.ID)
	}

	// A new working stretch starts a fresh record.
	again, err := svc.ClockIn(context.Background(), attBranchID, "1111")
	if err != nil {
		t.Fatalf("ClockIn() after clock-out error = %v", err)
	}
	if again.ID == rec.ID {
		t.Error("re-clock-in must create a new record")
	}
}

func TestServiceClockOutWithoutClockIn(t *testing.T) {
	svc := NewService(newMockRecordRepo(), &mockIdentifier{}, nil, nil)

	if _, err := svc.ClockOut(context.Background(), attBranchID, "1111"); !errors.Is(err, ErrNotClockedIn) {
		t.Errorf("ClockOut() error = %v, want ErrNotClockedIn", err)
	}
}

func TestServiceClockInBadPIN(t *testing.T) {
	repo := newMockRecordRepo()
	svc := NewService(repo, &mockIdentifier{Deny: true}, nil, nil)

	if _, err := svc.ClockIn(context.Background(), attBranchID, "0000"); !errors.Is(err, auth.ErrAuthorizationDenied) {
		t.Errorf("ClockIn() error = %v, want ErrAuthorizationDenied", err)
	}
	if len(repo.records) != 0 {
		t.Error("denied clock-in must not persist a record")
	}
}

func TestServiceListDay(t *testing.T) {
	repo := newMockRecordRepo()
	svc := NewService(repo, &mockIdentifier{}, nil, nil)

	rec, err := svc.ClockIn(context.Background(), attBranchID, "1111")
	if err != nil {
		t.Fatalf("ClockIn() error = %v", err)
	}

	records, err := svc.ListDay(context.Background(), attBranchID, rec.Date)
	if err != nil {
		t.Fatalf("ListDay() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListDay() = %d records, want 1", len(records))
	}

	// Empty date defaults to today.
	records, err = svc.ListDay(context.Background(), attBranchID, "")
	if err != nil {
		t.Fatalf("ListDay() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("ListDay() with default date = %d records, want 1", len(records))
	}
}

package assignments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	hour := func(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }

	cases := []struct {
		name   string
		aStart int
		aEnd   int
		bStart int
		bEnd   int
		want   bool
	}{
		{name: "identical", aStart: 0, aEnd: 4, bStart: 0, bEnd: 4, want: true},
		{name: "partial overlap", aStart: 0, aEnd: 4, bStart: 2, bEnd: 6, want: true},
		{name: "contained", aStart: 0, aEnd: 8, bStart: 2, bEnd: 4, want: true},
		{name: "back to back", aStart: 0, aEnd: 4, bStart: 4, bEnd: 8, want: false},
		{name: "back to back reversed", aStart: 4, aEnd: 8, bStart: 0, bEnd: 4, want: false},
		{name: "disjoint", aStart: 0, aEnd: 2, bStart: 6, bEnd: 8, want: false},
		{name: "one minute overlap", aStart: 0, aEnd: 4, bStart: 3, bEnd: 5, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(hour(tc.aStart), hour(tc.aEnd), hour(tc.bStart), hour(tc.bEnd))
			if got != tc.want {
				t.Fatalf("Overlaps(%d-%d, %d-%d) = %v, want %v", tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
		})
	}
}

type stubOverlapStore struct {
	driverRows  []models.Assignment
	vehicleRows []models.Assignment
	drivers     map[uuid.UUID]models.Driver
	vehicles    map[uuid.UUID]models.Vehicle
	err         error
	lastExclude *uuid.UUID
}

func (s *stubOverlapStore) FindActiveOverlapping(ctx context.Context, column string, entityID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Assignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastExclude = excludeID
	if column == "driver_id" {
		return s.driverRows, nil
	}
	return s.vehicleRows, nil
}

func (s *stubOverlapStore) FindDriversByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Driver, error) {
	if s.drivers == nil {
		return map[uuid.UUID]models.Driver{}, nil
	}
	return s.drivers, nil
}

func (s *stubOverlapStore) FindVehiclesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Vehicle, error) {
	if s.vehicles == nil {
		return map[uuid.UUID]models.Vehicle{}, nil
	}
	return s.vehicles, nil
}

func TestValidatorCheckBuildsReport(t *testing.T) {
	driverID := uuid.New()
	vehicleID := uuid.New()
	otherVehicle := uuid.New()
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	busy := models.Assignment{
		ID:        uuid.New(),
		DriverID:  driverID,
		VehicleID: otherVehicle,
		StartTime: start,
		EndTime:   start.Add(4 * time.Hour),
	}
	store := &stubOverlapStore{
		driverRows: []models.Assignment{busy},
		drivers: map[uuid.UUID]models.Driver{
			driverID: {ID: driverID, FullName: "Dana Ibarra"},
		},
		vehicles: map[uuid.UUID]models.Vehicle{
			otherVehicle: {ID: otherVehicle, Plate: "FLT-204"},
		},
	}

	report, err := NewValidator(store).Check(context.Background(), Candidate{
		DriverID:  driverID,
		VehicleID: vehicleID,
		StartTime: start.Add(2 * time.Hour),
		EndTime:   start.Add(6 * time.Hour),
	}, nil)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !report.HasConflicts() {
		t.Fatal("expected conflicts")
	}
	if len(report.DriverConflicts) != 1 || len(report.VehicleConflicts) != 0 {
		t.Fatalf("unexpected report shape: %+v", report)
	}
	got := report.DriverConflicts[0]
	if got.AssignmentID != busy.ID {
		t.Fatalf("expected conflict with %s, got %s", busy.ID, got.AssignmentID)
	}
	if got.DriverName != "Dana Ibarra" || got.VehiclePlate != "FLT-204" {
		t.Fatalf("expected display info populated, got %+v", got)
	}
}

func TestValidatorCheckNoConflicts(t *testing.T) {
	store := &stubOverlapStore{}
	report, err := NewValidator(store).Check(context.Background(), Candidate{
		DriverID:  uuid.New(),
		VehicleID: uuid.New(),
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}, nil)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if report.HasConflicts() {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestValidatorCheckPassesExcludeID(t *testing.T) {
	store := &stubOverlapStore{}
	excluded := uuid.New()
	if _, err := NewValidator(store).Check(context.Background(), Candidate{
		DriverID:  uuid.New(),
		VehicleID: uuid.New(),
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}, &excluded); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if store.lastExclude == nil || *store.lastExclude != excluded {
		t.Fatalf("expected exclude id %s to reach the store", excluded)
	}
}

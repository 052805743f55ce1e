package assignments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
	pkgerrors "github.com/odrivera-dev/fleetrack-backend/pkg/errors"
	pkgpagination "github.com/odrivera-dev/fleetrack-backend/pkg/pagination"
)

type stubAssignmentsRepo struct {
	created      *models.Assignment
	createErr    error
	findResult   *models.Assignment
	findErr      error
	updateErr    error
	lastUpdates  map[string]any
	transitionOK bool
	transitionTo enums.AssignmentStatus
	deleteErr    error
	deleted      bool
	listRows     []models.Assignment
	listErr      error
	counts       map[enums.AssignmentStatus]int64
	inWindow     int64
	upcoming     int64
	drivers      map[uuid.UUID]models.Driver
	vehicles     map[uuid.UUID]models.Vehicle
}

func (s *stubAssignmentsRepo) Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	assignment.ID = uuid.New()
	s.created = assignment
	return assignment, nil
}

func (s *stubAssignmentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.findResult == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.findResult
	return &copied, nil
}

func (s *stubAssignmentsRepo) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.lastUpdates = updates
	return nil
}

func (s *stubAssignmentsRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.AssignmentStatus) (bool, error) {
	s.transitionTo = to
	return s.transitionOK, nil
}

func (s *stubAssignmentsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = true
	return nil
}

func (s *stubAssignmentsRepo) List(ctx context.Context, params ListParams, limit int, cursor *pkgpagination.Cursor) ([]models.Assignment, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if limit < len(s.listRows) {
		return s.listRows[:limit], nil
	}
	return s.listRows, nil
}

func (s *stubAssignmentsRepo) CountByStatus(ctx context.Context) (map[enums.AssignmentStatus]int64, error) {
	return s.counts, nil
}

func (s *stubAssignmentsRepo) CountActiveInWindow(ctx context.Context, now time.Time) (int64, int64, error) {
	return s.inWindow, s.upcoming, nil
}

func (s *stubAssignmentsRepo) FindDriversByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Driver, error) {
	if s.drivers == nil {
		return map[uuid.UUID]models.Driver{}, nil
	}
	return s.drivers, nil
}

func (s *stubAssignmentsRepo) FindVehiclesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Vehicle, error) {
	if s.vehicles == nil {
		return map[uuid.UUID]models.Vehicle{}, nil
	}
	return s.vehicles, nil
}

type stubConflicts struct {
	report ConflictReport
	err    error
	calls  int
}

func (s *stubConflicts) Check(ctx context.Context, candidate Candidate, excludeID *uuid.UUID) (ConflictReport, error) {
	s.calls++
	if s.err != nil {
		return ConflictReport{}, s.err
	}
	return s.report, nil
}

type stubSynchronizer struct {
	activateErrs []error
	activateCall int
	releaseErrs  []error
	releaseCall  int
	maintenance  bool
	maintErr     error
}

func (s *stubSynchronizer) Activate(ctx context.Context, driverID, vehicleID uuid.UUID) error {
	s.activateCall++
	if len(s.activateErrs) > 0 {
		err := s.activateErrs[0]
		s.activateErrs = s.activateErrs[1:]
		return err
	}
	return nil
}

func (s *stubSynchronizer) Release(ctx context.Context, driverID, vehicleID uuid.UUID) error {
	s.releaseCall++
	if len(s.releaseErrs) > 0 {
		err := s.releaseErrs[0]
		s.releaseErrs = s.releaseErrs[1:]
		return err
	}
	return nil
}

func (s *stubSynchronizer) VehicleUnderMaintenance(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	if s.maintErr != nil {
		return false, s.maintErr
	}
	return s.maintenance, nil
}

func newAssignmentServiceForTests(repo *stubAssignmentsRepo, conflicts *stubConflicts, sync *stubSynchronizer) (Service, *stubAssignmentsRepo, *stubConflicts, *stubSynchronizer) {
	if repo == nil {
		repo = &stubAssignmentsRepo{}
	}
	if conflicts == nil {
		conflicts = &stubConflicts{}
	}
	if sync == nil {
		sync = &stubSynchronizer{}
	}
	svc, err := NewService(repo, conflicts, sync, 1)
	if err != nil {
		panic(err)
	}
	return svc, repo, conflicts, sync
}

func resourcePair(repo *stubAssignmentsRepo) (uuid.UUID, uuid.UUID) {
	driverID := uuid.New()
	vehicleID := uuid.New()
	repo.drivers = map[uuid.UUID]models.Driver{driverID: {ID: driverID, FullName: "Priya Shah"}}
	repo.vehicles = map[uuid.UUID]models.Vehicle{vehicleID: {ID: vehicleID, Plate: "FLT-101"}}
	return driverID, vehicleID
}

func TestCreateAssignmentSuccess(t *testing.T) {
	svc, repo, _, sync := newAssignmentServiceForTests(nil, nil, nil)
	driverID, vehicleID := resourcePair(repo)
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	created, err := svc.Create(context.Background(), CreateInput{
		DriverID:  driverID,
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   start.Add(8 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Status != enums.AssignmentStatusActive {
		t.Fatalf("expected active status, got %s", created.Status)
	}
	if repo.created == nil {
		t.Fatal("expected assignment persisted")
	}
	if sync.activateCall != 1 {
		t.Fatalf("expected one activate call, got %d", sync.activateCall)
	}
}

func TestCreateAssignmentRejectsBadInterval(t *testing.T) {
	svc, repo, _, _ := newAssignmentServiceForTests(nil, nil, nil)
	driverID, vehicleID := resourcePair(repo)
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	if _, err := svc.Create(context.Background(), CreateInput{
		DriverID:  driverID,
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   start,
	}); err == nil {
		t.Fatal("expected validation error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestCreateAssignmentUnknownDriver(t *testing.T) {
	repo := &stubAssignmentsRepo{}
	svc, _, _, _ := newAssignmentServiceForTests(repo, nil, nil)
	start := time.Now()

	if _, err := svc.Create(context.Background(), CreateInput{
		DriverID:  uuid.New(),
		VehicleID: uuid.New(),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}); err == nil {
		t.Fatal("expected not found error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestCreateAssignmentVehicleUnderMaintenance(t *testing.T) {
	sync := &stubSynchronizer{maintenance: true}
	svc, repo, _, _ := newAssignmentServiceForTests(nil, nil, sync)
	driverID, vehicleID := resourcePair(repo)
	start := time.Now()

	if _, err := svc.Create(context.Background(), CreateInput{
		DriverID:  driverID,
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}); err == nil {
		t.Fatal("expected resource blocked error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeResourceBlocked {
		t.Fatalf("expected resource blocked code, got %v", err)
	}
}

func TestCreateAssignmentConflictReported(t *testing.T) {
	conflicts := &stubConflicts{report: ConflictReport{
		DriverConflicts: []Conflict{{AssignmentID: uuid.New()}},
	}}
	svc, repo, _, _ := newAssignmentServiceForTests(nil, conflicts, nil)
	driverID, vehicleID := resourcePair(repo)
	start := time.Now()

	_, err := svc.Create(context.Background(), CreateInput{
		DriverID:  driverID,
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
	if typed.Details() == nil {
		t.Fatal("expected conflict report in details")
	}
	if repo.created != nil {
		t.Fatal("expected no row persisted on conflict")
	}
}

func TestCreateAssignmentRaceLostMapsToConflict(t *testing.T) {
	repo := &stubAssignmentsRepo{
		createErr: errors.New(`ERROR: conflicting key value violates exclusion constraint "assignments_driver_no_overlap" (SQLSTATE 23P01)`),
	}
	svc, _, _, _ := newAssignmentServiceForTests(repo, nil, nil)
	driverID, vehicleID := resourcePair(repo)
	start := time.Now()

	if _, err := svc.Create(context.Background(), CreateInput{
		DriverID:  driverID,
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}); err == nil {
		t.Fatal("expected conflict error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
}

func TestCreateAssignmentPartialCommitAfterRetries(t *testing.T) {
	boom := errors.New("redis down")
	sync := &stubSynchronizer{activateErrs: []error{boom, boom}}
	svc, repo, _, _ := newAssignmentServiceForTests(nil, nil, sync)
	driverID, vehicleID := resourcePair(repo)
	start := time.Now()

	_, err := svc.Create(context.Background(), CreateInput{
		DriverID:  driverID,
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if err == nil {
		t.Fatal("expected partial commit error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePartialCommit {
		t.Fatalf("expected partial commit code, got %v", err)
	}
	if sync.activateCall != 2 {
		t.Fatalf("expected initial attempt plus one retry, got %d calls", sync.activateCall)
	}
	if repo.created == nil {
		t.Fatal("expected row persisted despite sync failure")
	}
}

func TestCreateAssignmentActivateRetrySucceeds(t *testing.T) {
	sync := &stubSynchronizer{activateErrs: []error{errors.New("transient")}}
	svc, repo, _, _ := newAssignmentServiceForTests(nil, nil, sync)
	driverID, vehicleID := resourcePair(repo)
	start := time.Now()

	if _, err := svc.Create(context.Background(), CreateInput{
		DriverID:  driverID,
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if sync.activateCall != 2 {
		t.Fatalf("expected retry to run, got %d calls", sync.activateCall)
	}
}

func TestCompleteAssignmentSuccess(t *testing.T) {
	row := &models.Assignment{
		ID:        uuid.New(),
		DriverID:  uuid.New(),
		VehicleID: uuid.New(),
		Status:    enums.AssignmentStatusActive,
	}
	repo := &stubAssignmentsRepo{findResult: row, transitionOK: true}
	svc, _, _, sync := newAssignmentServiceForTests(repo, nil, nil)

	updated, err := svc.Complete(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if updated.Status != enums.AssignmentStatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if repo.transitionTo != enums.AssignmentStatusCompleted {
		t.Fatalf("expected transition to completed, got %s", repo.transitionTo)
	}
	if sync.releaseCall != 1 {
		t.Fatalf("expected one release call, got %d", sync.releaseCall)
	}
}

func TestCompleteAssignmentAlreadyTerminal(t *testing.T) {
	row := &models.Assignment{ID: uuid.New(), Status: enums.AssignmentStatusCancelled}
	repo := &stubAssignmentsRepo{findResult: row}
	svc, _, _, sync := newAssignmentServiceForTests(repo, nil, nil)

	if _, err := svc.Complete(context.Background(), row.ID); err == nil {
		t.Fatal("expected state conflict error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict code, got %v", err)
	}
	if sync.releaseCall != 0 {
		t.Fatal("expected no release on rejected transition")
	}
}

func TestCompleteAssignmentLosesRace(t *testing.T) {
	row := &models.Assignment{ID: uuid.New(), Status: enums.AssignmentStatusActive}
	repo := &stubAssignmentsRepo{findResult: row, transitionOK: false}
	svc, _, _, _ := newAssignmentServiceForTests(repo, nil, nil)

	if _, err := svc.Complete(context.Background(), row.ID); err == nil {
		t.Fatal("expected state conflict error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict code, got %v", err)
	}
}

func TestCancelAssignmentReleasesResources(t *testing.T) {
	row := &models.Assignment{
		ID:        uuid.New(),
		DriverID:  uuid.New(),
		VehicleID: uuid.New(),
		Status:    enums.AssignmentStatusActive,
	}
	repo := &stubAssignmentsRepo{findResult: row, transitionOK: true}
	svc, _, _, sync := newAssignmentServiceForTests(repo, nil, nil)

	updated, err := svc.Cancel(context.Background(), row.ID)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if updated.Status != enums.AssignmentStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if sync.releaseCall != 1 {
		t.Fatalf("expected one release call, got %d", sync.releaseCall)
	}
}

func TestCancelAssignmentPartialCommit(t *testing.T) {
	boom := errors.New("db gone")
	row := &models.Assignment{ID: uuid.New(), Status: enums.AssignmentStatusActive}
	repo := &stubAssignmentsRepo{findResult: row, transitionOK: true}
	sync := &stubSynchronizer{releaseErrs: []error{boom, boom}}
	svc, _, _, _ := newAssignmentServiceForTests(repo, nil, sync)

	if _, err := svc.Cancel(context.Background(), row.ID); err == nil {
		t.Fatal("expected partial commit error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePartialCommit {
		t.Fatalf("expected partial commit code, got %v", err)
	}
}

func TestUpdateAssignmentTerminalRejected(t *testing.T) {
	row := &models.Assignment{ID: uuid.New(), Status: enums.AssignmentStatusCompleted}
	repo := &stubAssignmentsRepo{findResult: row}
	svc, _, _, _ := newAssignmentServiceForTests(repo, nil, nil)

	newStart := time.Now()
	if _, err := svc.Update(context.Background(), row.ID, UpdateInput{StartTime: &newStart}); err == nil {
		t.Fatal("expected state conflict error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict code, got %v", err)
	}
}

func TestUpdateAssignmentReschedules(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	row := &models.Assignment{
		ID:        uuid.New(),
		DriverID:  uuid.New(),
		VehicleID: uuid.New(),
		StartTime: start,
		EndTime:   start.Add(4 * time.Hour),
		Status:    enums.AssignmentStatusActive,
	}
	repo := &stubAssignmentsRepo{findResult: row}
	conflicts := &stubConflicts{}
	svc, _, _, _ := newAssignmentServiceForTests(repo, conflicts, nil)

	newEnd := start.Add(6 * time.Hour)
	updated, err := svc.Update(context.Background(), row.ID, UpdateInput{EndTime: &newEnd})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !updated.EndTime.Equal(newEnd) {
		t.Fatalf("expected end %s, got %s", newEnd, updated.EndTime)
	}
	if conflicts.calls != 1 {
		t.Fatalf("expected one conflict check, got %d", conflicts.calls)
	}
	if _, ok := repo.lastUpdates["end_time"]; !ok {
		t.Fatalf("expected end_time update, got %v", repo.lastUpdates)
	}
}

func TestUpdateAssignmentNotesOnlySkipsConflictCheck(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	row := &models.Assignment{
		ID:        uuid.New(),
		StartTime: start,
		EndTime:   start.Add(4 * time.Hour),
		Status:    enums.AssignmentStatusActive,
	}
	repo := &stubAssignmentsRepo{findResult: row}
	conflicts := &stubConflicts{}
	svc, _, _, _ := newAssignmentServiceForTests(repo, conflicts, nil)

	notes := "swap trailer before departure"
	if _, err := svc.Update(context.Background(), row.ID, UpdateInput{Notes: &notes}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if conflicts.calls != 0 {
		t.Fatalf("expected no conflict check for notes-only update, got %d", conflicts.calls)
	}
}

func TestDeleteAssignmentOnlyBeforeStart(t *testing.T) {
	started := &models.Assignment{
		ID:        uuid.New(),
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Status:    enums.AssignmentStatusActive,
	}
	repo := &stubAssignmentsRepo{findResult: started}
	svc, _, _, _ := newAssignmentServiceForTests(repo, nil, nil)

	if err := svc.Delete(context.Background(), started.ID); err == nil {
		t.Fatal("expected state conflict error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict code, got %v", err)
	}
}

func TestDeleteAssignmentFutureBooking(t *testing.T) {
	future := &models.Assignment{
		ID:        uuid.New(),
		DriverID:  uuid.New(),
		VehicleID: uuid.New(),
		StartTime: time.Now().Add(2 * time.Hour),
		EndTime:   time.Now().Add(6 * time.Hour),
		Status:    enums.AssignmentStatusActive,
	}
	repo := &stubAssignmentsRepo{findResult: future}
	svc, _, _, sync := newAssignmentServiceForTests(repo, nil, nil)

	if err := svc.Delete(context.Background(), future.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !repo.deleted {
		t.Fatal("expected row deleted")
	}
	if sync.releaseCall != 1 {
		t.Fatalf("expected release after delete, got %d calls", sync.releaseCall)
	}
}

func TestGetAssignmentNotFound(t *testing.T) {
	svc, _, _, _ := newAssignmentServiceForTests(&stubAssignmentsRepo{}, nil, nil)

	if _, err := svc.Get(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected not found error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestListAssignmentsInvalidCursor(t *testing.T) {
	svc, _, _, _ := newAssignmentServiceForTests(nil, nil, nil)

	if _, err := svc.List(context.Background(), ListParams{Cursor: "not-base64!!"}); err == nil {
		t.Fatal("expected validation error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestListAssignmentsEmitsNextCursor(t *testing.T) {
	now := time.Now().UTC()
	rows := make([]models.Assignment, 3)
	for i := range rows {
		rows[i] = models.Assignment{
			ID:        uuid.New(),
			Status:    enums.AssignmentStatusActive,
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		}
	}
	repo := &stubAssignmentsRepo{listRows: rows}
	svc, _, _, _ := newAssignmentServiceForTests(repo, nil, nil)

	result, err := svc.List(context.Background(), ListParams{Limit: 2})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if result.Cursor == "" {
		t.Fatal("expected next cursor")
	}
	parsed, err := pkgpagination.ParseCursor(result.Cursor)
	if err != nil {
		t.Fatalf("cursor did not round-trip: %v", err)
	}
	if parsed.ID != rows[2].ID {
		t.Fatalf("expected cursor to point at overflow row, got %s", parsed.ID)
	}
}

func TestStatsAggregates(t *testing.T) {
	repo := &stubAssignmentsRepo{
		counts: map[enums.AssignmentStatus]int64{
			enums.AssignmentStatusActive:    3,
			enums.AssignmentStatusCompleted: 5,
			enums.AssignmentStatusCancelled: 2,
		},
		inWindow: 1,
		upcoming: 2,
	}
	svc, _, _, _ := newAssignmentServiceForTests(repo, nil, nil)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Total != 10 {
		t.Fatalf("expected total 10, got %d", stats.Total)
	}
	if stats.Active != 3 || stats.Completed != 5 || stats.Cancelled != 2 {
		t.Fatalf("unexpected status counts: %+v", stats)
	}
	if stats.InWindow != 1 || stats.Upcoming != 2 {
		t.Fatalf("unexpected window counts: %+v", stats)
	}
}

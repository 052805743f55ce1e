package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db"
	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
	pkgerrors "github.com/odrivera-dev/fleetrack-backend/pkg/errors"
	pkgpagination "github.com/odrivera-dev/fleetrack-backend/pkg/pagination"
)

// Exclusion constraint names from the schema; writes that double-book a
// driver or vehicle fail with one of these.
const (
	DriverNoOverlapConstraint  = "assignments_driver_no_overlap"
	VehicleNoOverlapConstraint = "assignments_vehicle_no_overlap"
)

type assignmentsRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.AssignmentStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams, limit int, cursor *pkgpagination.Cursor) ([]models.Assignment, error)
	CountByStatus(ctx context.Context) (map[enums.AssignmentStatus]int64, error)
	CountActiveInWindow(ctx context.Context, now time.Time) (inWindow, upcoming int64, err error)
	FindDriversByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Driver, error)
	FindVehiclesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Vehicle, error)
}

type conflictChecker interface {
	Check(ctx context.Context, candidate Candidate, excludeID *uuid.UUID) (ConflictReport, error)
}

// resourceSynchronizer mirrors the resource status of a booking: Activate
// marks the pair busy, Release returns them to their idle statuses.
type resourceSynchronizer interface {
	Activate(ctx context.Context, driverID, vehicleID uuid.UUID) error
	Release(ctx context.Context, driverID, vehicleID uuid.UUID) error
	VehicleUnderMaintenance(ctx context.Context, vehicleID uuid.UUID) (bool, error)
}

// Service exposes the assignment lifecycle: booking, rescheduling,
// completion, cancellation, deletion, listing, and conflict checks.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Assignment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Assignment, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Stats(ctx context.Context) (*Stats, error)
	CheckConflicts(ctx context.Context, candidate Candidate) (*ConflictReport, error)
}

type service struct {
	repo        assignmentsRepository
	conflicts   conflictChecker
	sync        resourceSynchronizer
	syncRetries int
	now         func() time.Time
}

// NewService builds an assignment service over the given repository,
// conflict checker, and resource synchronizer. syncRetries controls how
// many extra attempts a resource status write gets before the operation
// surfaces a partial commit.
func NewService(repo assignmentsRepository, conflicts conflictChecker, sync resourceSynchronizer, syncRetries int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if conflicts == nil {
		return nil, fmt.Errorf("conflict checker required")
	}
	if sync == nil {
		return nil, fmt.Errorf("resource synchronizer required")
	}
	if syncRetries < 0 {
		syncRetries = 0
	}
	return &service{
		repo:        repo,
		conflicts:   conflicts,
		sync:        sync,
		syncRetries: syncRetries,
		now:         time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Assignment, error) {
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver_id is required")
	}
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle_id is required")
	}
	if err := validateInterval(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	if err := s.ensureDriverExists(ctx, input.DriverID); err != nil {
		return nil, err
	}
	if err := s.ensureVehicleExists(ctx, input.VehicleID); err != nil {
		return nil, err
	}

	blocked, err := s.sync.VehicleUnderMaintenance(ctx, input.VehicleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check vehicle maintenance")
	}
	if blocked {
		return nil, pkgerrors.New(pkgerrors.CodeResourceBlocked, "vehicle is under maintenance")
	}

	candidate := Candidate{
		DriverID:  input.DriverID,
		VehicleID: input.VehicleID,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}
	report, err := s.conflicts.Check(ctx, candidate, nil)
	if err != nil {
		return nil, err
	}
	if report.HasConflicts() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "interval overlaps an active assignment").WithDetails(report)
	}

	row := &models.Assignment{
		VehicleID: input.VehicleID,
		DriverID:  input.DriverID,
		StartTime: input.StartTime.UTC(),
		EndTime:   input.EndTime.UTC(),
		Status:    enums.AssignmentStatusActive,
		Notes:     input.Notes,
	}
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		if isNoOverlapViolation(err) {
			// Lost the race between the advisory check and the insert.
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "interval overlaps an active assignment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
	}

	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.sync.Activate(ctx, created.DriverID, created.VehicleID)
	}); err != nil {
		// The booking row is committed but the resource statuses are stale.
		// The reconcile job repairs this; the caller sees a retryable error.
		return nil, pkgerrors.Wrap(pkgerrors.CodePartialCommit, err, "assignment stored but resource sync failed").
			WithDetails(map[string]any{"assignment_id": created.ID})
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	return s.findAssignment(ctx, id)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Assignment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}

	row, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot modify %s assignment", row.Status))
	}

	start := row.StartTime
	end := row.EndTime
	if input.StartTime != nil {
		start = input.StartTime.UTC()
	}
	if input.EndTime != nil {
		end = input.EndTime.UTC()
	}
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}

	intervalChanged := !start.Equal(row.StartTime) || !end.Equal(row.EndTime)
	if intervalChanged {
		report, err := s.conflicts.Check(ctx, Candidate{
			DriverID:  row.DriverID,
			VehicleID: row.VehicleID,
			StartTime: start,
			EndTime:   end,
		}, &row.ID)
		if err != nil {
			return nil, err
		}
		if report.HasConflicts() {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "new interval overlaps an active assignment").WithDetails(report)
		}
	}

	updates := map[string]any{}
	if intervalChanged {
		updates["start_time"] = start
		updates["end_time"] = end
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if len(updates) == 0 {
		return row, nil
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		if isNoOverlapViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "new interval overlaps an active assignment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment")
	}

	row.StartTime = start
	row.EndTime = end
	if input.Notes != nil {
		row.Notes = input.Notes
	}
	return row, nil
}

func (s *service) Complete(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	return s.finish(ctx, id, enums.AssignmentStatusCompleted)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	return s.finish(ctx, id, enums.AssignmentStatusCancelled)
}

// finish moves an active assignment to a terminal status and releases its
// resources. The status guard in TransitionStatus makes the transition
// race-safe: whichever caller flips the row first wins, the rest get a
// state conflict.
func (s *service) finish(ctx context.Context, id uuid.UUID, target enums.AssignmentStatus) (*models.Assignment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}

	row, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("assignment already %s", row.Status))
	}

	moved, err := s.repo.TransitionStatus(ctx, id, enums.AssignmentStatusActive, target)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition assignment status")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is no longer active")
	}
	row.Status = target

	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.sync.Release(ctx, row.DriverID, row.VehicleID)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePartialCommit, err, "assignment finished but resource release failed").
			WithDetails(map[string]any{"assignment_id": row.ID})
	}
	return row, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}

	row, err := s.findAssignment(ctx, id)
	if err != nil {
		return err
	}
	if row.Status != enums.AssignmentStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only active assignments can be deleted")
	}
	if !row.StartTime.After(s.now()) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment has already started; cancel it instead")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete assignment")
	}

	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.sync.Release(ctx, row.DriverID, row.VehicleID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePartialCommit, err, "assignment deleted but resource release failed").
			WithDetails(map[string]any{"assignment_id": row.ID})
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if params.StartDate != nil && params.EndDate != nil && !params.EndDate.After(*params.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_date must be after start_date")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	var cursor *pkgpagination.Cursor
	if params.Cursor != "" {
		parsed, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, err := s.repo.List(ctx, params, pkgpagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}
	return &ListResult{Items: items, Cursor: nextCursor}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count assignments by status")
	}
	inWindow, upcoming, err := s.repo.CountActiveInWindow(ctx, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active assignments")
	}

	stats := &Stats{
		Active:    counts[enums.AssignmentStatusActive],
		Completed: counts[enums.AssignmentStatusCompleted],
		Cancelled: counts[enums.AssignmentStatusCancelled],
		InWindow:  inWindow,
		Upcoming:  upcoming,
	}
	stats.Total = stats.Active + stats.Completed + stats.Cancelled
	return stats, nil
}

func (s *service) CheckConflicts(ctx context.Context, candidate Candidate) (*ConflictReport, error) {
	if candidate.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver_id is required")
	}
	if candidate.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle_id is required")
	}
	if err := validateInterval(candidate.StartTime, candidate.EndTime); err != nil {
		return nil, err
	}

	report, err := s.conflicts.Check(ctx, candidate, nil)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *service) findAssignment(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup assignment")
	}
	return row, nil
}

func (s *service) ensureDriverExists(ctx context.Context, id uuid.UUID) error {
	rows, err := s.repo.FindDriversByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup driver")
	}
	if _, ok := rows[id]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
	}
	return nil
}

func (s *service) ensureVehicleExists(ctx context.Context, id uuid.UUID) error {
	rows, err := s.repo.FindVehiclesByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vehicle")
	}
	if _, ok := rows[id]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
	}
	return nil
}

func (s *service) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= s.syncRetries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}

func validateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start_time and end_time are required")
	}
	if !end.After(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end_time must be after start_time")
	}
	return nil
}

func isNoOverlapViolation(err error) bool {
	return db.IsExclusionViolation(err, DriverNoOverlapConstraint) ||
		db.IsExclusionViolation(err, VehicleNoOverlapConstraint)
}

func toListItem(row models.Assignment) ListItem {
	return ListItem{
		ID:        row.ID,
		VehicleID: row.VehicleID,
		DriverID:  row.DriverID,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		Status:    row.Status,
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt,
	}
}

package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
	"github.com/odrivera-dev/fleetrack-backend/pkg/pagination"
)

// Repository exposes assignment persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an assignment repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new assignment row. The active-interval exclusion
// constraints fire here when the row would double-book a driver or vehicle.
func (r *Repository) Create(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error) {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

// FindByID loads one assignment.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var row models.Assignment
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateFields persists only the supplied columns for one assignment.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// TransitionStatus moves an assignment out of active. It guards on the
// current status so a concurrent transition loses cleanly; callers check
// the returned flag.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.AssignmentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes one assignment row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Assignment{}, "id = ?", id).Error
}

// FindActiveOverlapping returns active assignments for the given entity
// column ("driver_id" or "vehicle_id") whose [start_time, end_time)
// interval overlaps the candidate one. Half-open semantics: touching
// endpoints do not overlap.
func (r *Repository) FindActiveOverlapping(ctx context.Context, column string, entityID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where(column+" = ?", entityID).
		Where("status = ?", enums.AssignmentStatusActive).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var rows []models.Assignment
	if err := query.Order("start_time ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindExpiredActive returns active assignments whose end time has passed.
func (r *Repository) FindExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("status = ? AND end_time < ?", enums.AssignmentStatusActive, cutoff).
		Order("end_time ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.Assignment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns assignments matching the filters using cursor pagination.
func (r *Repository) List(ctx context.Context, params ListParams, limit int, cursor *pagination.Cursor) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{})

	if params.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *params.VehicleID)
	}
	if params.DriverID != nil {
		query = query.Where("driver_id = ?", *params.DriverID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.StartDate != nil {
		query = query.Where("start_time >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("end_time <= ?", *params.EndDate)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(limit)

	var rows []models.Assignment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByStatus returns how many assignments carry each status.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.AssignmentStatus]int64, error) {
	type bucket struct {
		Status enums.AssignmentStatus
		Count  int64
	}
	var buckets []bucket
	err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.AssignmentStatus]int64, len(buckets))
	for _, b := range buckets {
		counts[b.Status] = b.Count
	}
	return counts, nil
}

// CountActiveInWindow returns how many active assignments cover the given
// instant, and how many are still ahead of it.
func (r *Repository) CountActiveInWindow(ctx context.Context, now time.Time) (inWindow, upcoming int64, err error) {
	err = r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("status = ? AND start_time <= ? AND end_time > ?", enums.AssignmentStatusActive, now, now).
		Count(&inWindow).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("status = ? AND start_time > ?", enums.AssignmentStatusActive, now).
		Count(&upcoming).Error
	if err != nil {
		return 0, 0, err
	}
	return inWindow, upcoming, nil
}

// FindDriversByIDs loads driver display rows for conflict reporting.
func (r *Repository) FindDriversByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Driver, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Driver{}, nil
	}
	var rows []models.Driver
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Driver, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

// FindVehiclesByIDs loads vehicle display rows for conflict reporting.
func (r *Repository) FindVehiclesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Vehicle, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Vehicle{}, nil
	}
	var rows []models.Vehicle
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Vehicle, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

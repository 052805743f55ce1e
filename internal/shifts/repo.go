package shifts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
)

// UniqueShiftConstraint guards one shift per (driver, template, date).
const UniqueShiftConstraint = "shift_assignments_driver_template_date_key"

// Repository exposes shift template and shift assignment persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shift repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTemplate inserts a new shift template.
func (r *Repository) CreateTemplate(ctx context.Context, template *models.ShiftTemplate) (*models.ShiftTemplate, error) {
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

// ListTemplates returns all templates, oldest first.
func (r *Repository) ListTemplates(ctx context.Context) ([]models.ShiftTemplate, error) {
	var rows []models.ShiftTemplate
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindTemplateByID loads one template.
func (r *Repository) FindTemplateByID(ctx context.Context, id uuid.UUID) (*models.ShiftTemplate, error) {
	var row models.ShiftTemplate
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateShiftAssignment inserts a materialized shift. The unique index on
// (driver_id, template_id, date) fires on duplicates.
func (r *Repository) CreateShiftAssignment(ctx context.Context, shift *models.ShiftAssignment) (*models.ShiftAssignment, error) {
	if err := r.db.WithContext(ctx).Create(shift).Error; err != nil {
		return nil, err
	}
	return shift, nil
}

// FindShiftByID loads one shift assignment.
func (r *Repository) FindShiftByID(ctx context.Context, id uuid.UUID) (*models.ShiftAssignment, error) {
	var row models.ShiftAssignment
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteShiftAssignment removes one shift assignment.
func (r *Repository) DeleteShiftAssignment(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ShiftAssignment{}, "id = ?", id).Error
}

// FindShiftsByDriver returns a driver's shifts with dates inside the
// inclusive [from, to] range, ordered by date.
func (r *Repository) FindShiftsByDriver(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]models.ShiftAssignment, error) {
	var rows []models.ShiftAssignment
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND date >= ? AND date <= ?", driverID, from, to).
		Order("date ASC").
		Order("start_timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SumHours totals stored shift hours for a driver over the inclusive
// [from, to] date range. Overlapping shifts each contribute their full
// duration; the sum does not de-duplicate wall-clock time.
func (r *Repository) SumHours(ctx context.Context, driverID uuid.UUID, from, to time.Time) (total float64, count int64, err error) {
	type agg struct {
		Total float64
		Count int64
	}
	var result agg
	err = r.db.WithContext(ctx).
		Model(&models.ShiftAssignment{}).
		Select("COALESCE(SUM(hours), 0) AS total, COUNT(*) AS count").
		Where("driver_id = ? AND date >= ? AND date <= ?", driverID, from, to).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Total, result.Count, nil
}

// DriverExists reports whether a driver row exists.
func (r *Repository) DriverExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Driver{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

package shifts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db"
	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	pkgerrors "github.com/odrivera-dev/fleetrack-backend/pkg/errors"
)

type shiftsRepository interface {
	CreateTemplate(ctx context.Context, template *models.ShiftTemplate) (*models.ShiftTemplate, error)
	ListTemplates(ctx context.Context) ([]models.ShiftTemplate, error)
	FindTemplateByID(ctx context.Context, id uuid.UUID) (*models.ShiftTemplate, error)
	CreateShiftAssignment(ctx context.Context, shift *models.ShiftAssignment) (*models.ShiftAssignment, error)
	FindShiftByID(ctx context.Context, id uuid.UUID) (*models.ShiftAssignment, error)
	DeleteShiftAssignment(ctx context.Context, id uuid.UUID) error
	FindShiftsByDriver(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]models.ShiftAssignment, error)
	SumHours(ctx context.Context, driverID uuid.UUID, from, to time.Time) (float64, int64, error)
	DriverExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service exposes shift templates, per-driver shift materialization, and
// hour aggregation.
type Service interface {
	CreateTemplate(ctx context.Context, input CreateTemplateInput) (*models.ShiftTemplate, error)
	ListTemplates(ctx context.Context) ([]TemplateItem, error)
	AssignShiftToDriver(ctx context.Context, driverID, templateID uuid.UUID, date time.Time) (*models.ShiftAssignment, error)
	GetDriverShifts(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]ShiftItem, error)
	DeleteShiftAssignment(ctx context.Context, id uuid.UUID) error
	AggregateHours(ctx context.Context, driverID uuid.UUID, from, to time.Time) (*HoursReport, error)
}

type service struct {
	repo shiftsRepository
}

// NewService builds a shift service over the given repository.
func NewService(repo shiftsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shifts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*models.ShiftTemplate, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if _, err := ParseClock(input.StartTime); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start_time")
	}
	if _, err := ParseClock(input.EndTime); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end_time")
	}

	template := &models.ShiftTemplate{
		Name:      name,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Notes:     input.Notes,
	}
	created, err := s.repo.CreateTemplate(ctx, template)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shift template")
	}
	return created, nil
}

func (s *service) ListTemplates(ctx context.Context) ([]TemplateItem, error) {
	rows, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shift templates")
	}

	items := make([]TemplateItem, len(rows))
	for i, row := range rows {
		items[i] = TemplateItem{
			ID:        row.ID,
			Name:      row.Name,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			Notes:     row.Notes,
			CreatedAt: row.CreatedAt,
		}
	}
	return items, nil
}

func (s *service) AssignShiftToDriver(ctx context.Context, driverID, templateID uuid.UUID, date time.Time) (*models.ShiftAssignment, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver_id is required")
	}
	if templateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template_id is required")
	}
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}

	exists, err := s.repo.DriverExists(ctx, driverID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup driver")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
	}

	template, err := s.repo.FindTemplateByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shift template not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shift template")
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start, end, hours, err := ResolveInterval(day, template.StartTime, template.EndTime)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "resolve shift interval")
	}

	shift := &models.ShiftAssignment{
		DriverID:       driverID,
		TemplateID:     templateID,
		Date:           day,
		StartTimestamp: start,
		EndTimestamp:   end,
		Hours:          hours,
	}
	created, err := s.repo.CreateShiftAssignment(ctx, shift)
	if err != nil {
		if db.IsUniqueViolation(err, UniqueShiftConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "driver already has this shift on this date")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shift assignment")
	}
	return created, nil
}

func (s *service) GetDriverShifts(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]ShiftItem, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver_id is required")
	}
	from, to, err := normalizeDateRange(from, to)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.FindShiftsByDriver(ctx, driverID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list driver shifts")
	}

	items := make([]ShiftItem, len(rows))
	for i, row := range rows {
		items[i] = ShiftItem{
			ID:             row.ID,
			DriverID:       row.DriverID,
			TemplateID:     row.TemplateID,
			Date:           row.Date,
			StartTimestamp: row.StartTimestamp,
			EndTimestamp:   row.EndTimestamp,
			Hours:          row.Hours,
		}
	}
	return items, nil
}

func (s *service) DeleteShiftAssignment(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shift assignment id is required")
	}
	if _, err := s.repo.FindShiftByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shift assignment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup shift assignment")
	}
	if err := s.repo.DeleteShiftAssignment(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete shift assignment")
	}
	return nil
}

// AggregateHours flat-sums stored hours over the inclusive date range.
// Shifts that overlap in wall-clock time each count in full.
func (s *service) AggregateHours(ctx context.Context, driverID uuid.UUID, from, to time.Time) (*HoursReport, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver_id is required")
	}
	from, to, err := normalizeDateRange(from, to)
	if err != nil {
		return nil, err
	}

	total, count, err := s.repo.SumHours(ctx, driverID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum driver hours")
	}

	return &HoursReport{
		DriverID:   driverID,
		From:       from,
		To:         to,
		TotalHours: RoundHours(time.Duration(total * float64(time.Hour))),
		ShiftCount: count,
	}, nil
}

func normalizeDateRange(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to dates are required")
	}
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	if to.Before(from) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	return from, to, nil
}

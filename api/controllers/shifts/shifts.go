package shifts

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odrivera-dev/fleetrack-backend/api/responses"
	"github.com/odrivera-dev/fleetrack-backend/api/validators"
	internalshifts "github.com/odrivera-dev/fleetrack-backend/internal/shifts"
	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	pkgerrors "github.com/odrivera-dev/fleetrack-backend/pkg/errors"
	"github.com/odrivera-dev/fleetrack-backend/pkg/logger"
)

type createTemplateRequest struct {
	Name      string  `json:"name" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Notes     *string `json:"notes"`
}

// CreateTemplate registers a reusable shift window.
func CreateTemplate(svc internalshifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		var payload createTemplateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateTemplate(r.Context(), internalshifts.CreateTemplateInput{
			Name:      payload.Name,
			StartTime: payload.StartTime,
			EndTime:   payload.EndTime,
			Notes:     payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, templateResponseFromModel(created))
	}
}

// ListTemplates returns every shift template, oldest first.
func ListTemplates(svc internalshifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		items, err := svc.ListTemplates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

type assignShiftRequest struct {
	DriverID   string     `json:"driver_id" validate:"required"`
	TemplateID string     `json:"template_id" validate:"required"`
	Date       *time.Time `json:"date" validate:"required"`
}

// AssignShift materializes a template for a driver on a calendar date.
func AssignShift(svc internalshifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		var payload assignShiftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		driverID, err := uuid.Parse(strings.TrimSpace(payload.DriverID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver_id"))
			return
		}
		templateID, err := uuid.Parse(strings.TrimSpace(payload.TemplateID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid template_id"))
			return
		}

		created, err := svc.AssignShiftToDriver(r.Context(), driverID, templateID, *payload.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, shiftResponseFromModel(created))
	}
}

// DeleteShift removes one materialized shift.
func DeleteShift(svc internalshifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "shiftId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shift id is required"))
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shift id"))
			return
		}

		if err := svc.DeleteShiftAssignment(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// DriverShifts lists a driver's materialized shifts over an inclusive
// date range.
func DriverShifts(svc internalshifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		driverID, from, to, err := parseDriverRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.GetDriverShifts(r.Context(), driverID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// DriverHours aggregates a driver's shift hours over an inclusive date
// range.
func DriverHours(svc internalshifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shifts service unavailable"))
			return
		}

		driverID, from, to, err := parseDriverRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.AggregateHours(r.Context(), driverID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

func parseDriverRange(r *http.Request) (uuid.UUID, time.Time, time.Time, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "driverId"))
	if raw == "" {
		return uuid.Nil, time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	driverID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id")
	}

	from, err := parseDateParam(r, "from")
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}
	return driverID, from, to, nil
}

func parseDateParam(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").WithDetails(map[string]any{"field": key})
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": key})
	}
	return ts, nil
}

type templateResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func templateResponseFromModel(m *models.ShiftTemplate) templateResponse {
	return templateResponse{
		ID:        m.ID,
		Name:      m.Name,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
	}
}

type shiftResponse struct {
	ID             uuid.UUID `json:"id"`
	DriverID       uuid.UUID `json:"driver_id"`
	TemplateID     uuid.UUID `json:"template_id"`
	Date           time.Time `json:"date"`
	StartTimestamp time.Time `json:"start_timestamp"`
	EndTimestamp   time.Time `json:"end_timestamp"`
	Hours          float64   `json:"hours"`
	CreatedAt      time.Time `json:"created_at"`
}

func shiftResponseFromModel(m *models.ShiftAssignment) shiftResponse {
	return shiftResponse{
		ID:             m.ID,
		DriverID:       m.DriverID,
		TemplateID:     m.TemplateID,
		Date:           m.Date,
		StartTimestamp: m.StartTimestamp,
		EndTimestamp:   m.EndTimestamp,
		Hours:          m.Hours,
		CreatedAt:      m.CreatedAt,
	}
}

package assignments

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odrivera-dev/fleetrack-backend/api/responses"
	"github.com/odrivera-dev/fleetrack-backend/api/validators"
	internalassignments "github.com/odrivera-dev/fleetrack-backend/internal/assignments"
	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
	pkgerrors "github.com/odrivera-dev/fleetrack-backend/pkg/errors"
	"github.com/odrivera-dev/fleetrack-backend/pkg/logger"
	"github.com/odrivera-dev/fleetrack-backend/pkg/pagination"
)

type createAssignmentRequest struct {
	VehicleID string     `json:"vehicle_id" validate:"required"`
	DriverID  string     `json:"driver_id" validate:"required"`
	StartTime *time.Time `json:"start_time" validate:"required"`
	EndTime   *time.Time `json:"end_time" validate:"required"`
	Notes     *string    `json:"notes"`
}

func (r createAssignmentRequest) toInput() (internalassignments.CreateInput, error) {
	vehicleID, err := uuid.Parse(strings.TrimSpace(r.VehicleID))
	if err != nil {
		return internalassignments.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle_id")
	}
	driverID, err := uuid.Parse(strings.TrimSpace(r.DriverID))
	if err != nil {
		return internalassignments.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver_id")
	}
	return internalassignments.CreateInput{
		VehicleID: vehicleID,
		DriverID:  driverID,
		StartTime: *r.StartTime,
		EndTime:   *r.EndTime,
		Notes:     r.Notes,
	}, nil
}

// Create books a driver on a vehicle for a time window.
func Create(svc internalassignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		var payload createAssignmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, assignmentResponseFromModel(created))
	}
}

// Detail fetches one assignment by id.
func Detail(svc internalassignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		id, err := parseAssignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assignmentResponseFromModel(row))
	}
}

type updateAssignmentRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Notes     *string    `json:"notes"`
}

// Update reschedules or annotates an active assignment. Absent fields are
// left unchanged.
func Update(svc internalassignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		id, err := parseAssignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateAssignmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, internalassignments.UpdateInput{
			StartTime: payload.StartTime,
			EndTime:   payload.EndTime,
			Notes:     payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assignmentResponseFromModel(updated))
	}
}

// Complete moves an active assignment to completed and frees its resources.
func Complete(svc internalassignments.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(svc internalassignments.Service, r *http.Request, id uuid.UUID) (*models.Assignment, error) {
		return svc.Complete(r.Context(), id)
	})
}

// Cancel moves an active assignment to cancelled and frees its resources.
func Cancel(svc internalassignments.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(svc internalassignments.Service, r *http.Request, id uuid.UUID) (*models.Assignment, error) {
		return svc.Cancel(r.Context(), id)
	})
}

func transition(svc internalassignments.Service, logg *logger.Logger, apply func(internalassignments.Service, *http.Request, uuid.UUID) (*models.Assignment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		id, err := parseAssignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := apply(svc, r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assignmentResponseFromModel(row))
	}
}

// Remove deletes an assignment that has not started yet.
func Remove(svc internalassignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		id, err := parseAssignmentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// List returns a filtered, cursor-paginated page of assignments.
func List(svc internalassignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		params, err := buildListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// Stats summarizes assignment counts for dashboards.
func Stats(svc internalassignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

type checkConflictsRequest struct {
	DriverID  string     `json:"driver_id" validate:"required"`
	VehicleID string     `json:"vehicle_id" validate:"required"`
	StartTime *time.Time `json:"start_time" validate:"required"`
	EndTime   *time.Time `json:"end_time" validate:"required"`
}

// CheckConflicts reports active assignments overlapping a candidate window
// without booking anything.
func CheckConflicts(svc internalassignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		var payload checkConflictsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		driverID, err := uuid.Parse(strings.TrimSpace(payload.DriverID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver_id"))
			return
		}
		vehicleID, err := uuid.Parse(strings.TrimSpace(payload.VehicleID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle_id"))
			return
		}

		report, err := svc.CheckConflicts(r.Context(), internalassignments.Candidate{
			DriverID:  driverID,
			VehicleID: vehicleID,
			StartTime: *payload.StartTime,
			EndTime:   *payload.EndTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

func parseAssignmentID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "assignmentId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignment id")
	}
	return id, nil
}

func buildListParams(r *http.Request) (internalassignments.ListParams, error) {
	params := internalassignments.ListParams{}

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return params, err
	}
	params.Limit = limit
	params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

	if raw := strings.TrimSpace(r.URL.Query().Get("vehicle_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle_id")
		}
		params.VehicleID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("driver_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver_id")
		}
		params.DriverID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseAssignmentStatus(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		params.Status = &status
	}
	if ts, err := parseTimeParam(r, "start_date"); err != nil {
		return params, err
	} else if ts != nil {
		params.StartDate = ts
	}
	if ts, err := parseTimeParam(r, "end_date"); err != nil {
		return params, err
	} else if ts != nil {
		params.EndDate = ts
	}

	return params, nil
}

// parseTimeParam accepts RFC3339 timestamps or bare dates.
func parseTimeParam(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid timestamp").WithDetails(map[string]any{"field": key})
	}
	return &ts, nil
}

type assignmentResponse struct {
	ID        uuid.UUID              `json:"id"`
	VehicleID uuid.UUID              `json:"vehicle_id"`
	DriverID  uuid.UUID              `json:"driver_id"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
	Status    enums.AssignmentStatus `json:"status"`
	Notes     *string                `json:"notes,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func assignmentResponseFromModel(m *models.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:        m.ID,
		VehicleID: m.VehicleID,
		DriverID:  m.DriverID,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Status:    m.Status,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

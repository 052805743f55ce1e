package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	apperrors "github.com/odrivera-dev/fleetrack-backend/pkg/errors"
)

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back intervals (aEnd == bStart) do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// overlapStore is the slice of the repository the validator needs.
type overlapStore interface {
	FindActiveOverlapping(ctx context.Context, column string, entityID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]models.Assignment, error)
	FindDriversByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Driver, error)
	FindVehiclesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Vehicle, error)
}

// Validator runs the advisory double-booking check for a candidate
// interval. It is advisory only: the database exclusion constraints remain
// the authority under concurrency, so callers must still map constraint
// violations on write.
type Validator struct {
	store overlapStore
}

// NewValidator builds a conflict validator over the given store.
func NewValidator(store overlapStore) *Validator {
	return &Validator{store: store}
}

// Check returns every active assignment that would double-book the
// candidate's driver or vehicle. When the candidate updates an existing
// assignment, excludeID removes that row from consideration.
func (v *Validator) Check(ctx context.Context, candidate Candidate, excludeID *uuid.UUID) (ConflictReport, error) {
	report := ConflictReport{}

	driverRows, err := v.store.FindActiveOverlapping(ctx, "driver_id", candidate.DriverID, candidate.StartTime, candidate.EndTime, excludeID)
	if err != nil {
		return report, apperrors.Wrap(apperrors.CodeDependency, err, "query driver overlaps")
	}
	vehicleRows, err := v.store.FindActiveOverlapping(ctx, "vehicle_id", candidate.VehicleID, candidate.StartTime, candidate.EndTime, excludeID)
	if err != nil {
		return report, apperrors.Wrap(apperrors.CodeDependency, err, "query vehicle overlaps")
	}

	drivers, vehicles, err := v.loadDisplayInfo(ctx, driverRows, vehicleRows)
	if err != nil {
		return report, err
	}

	report.DriverConflicts = toConflicts(driverRows, drivers, vehicles)
	report.VehicleConflicts = toConflicts(vehicleRows, drivers, vehicles)
	return report, nil
}

func (v *Validator) loadDisplayInfo(ctx context.Context, rowSets ...[]models.Assignment) (map[uuid.UUID]models.Driver, map[uuid.UUID]models.Vehicle, error) {
	driverSet := map[uuid.UUID]struct{}{}
	vehicleSet := map[uuid.UUID]struct{}{}
	for _, rows := range rowSets {
		for _, row := range rows {
			driverSet[row.DriverID] = struct{}{}
			vehicleSet[row.VehicleID] = struct{}{}
		}
	}

	drivers, err := v.store.FindDriversByIDs(ctx, keys(driverSet))
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeDependency, err, "load conflicting drivers")
	}
	vehicles, err := v.store.FindVehiclesByIDs(ctx, keys(vehicleSet))
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeDependency, err, "load conflicting vehicles")
	}
	return drivers, vehicles, nil
}

func toConflicts(rows []models.Assignment, drivers map[uuid.UUID]models.Driver, vehicles map[uuid.UUID]models.Vehicle) []Conflict {
	if len(rows) == 0 {
		return nil
	}
	conflicts := make([]Conflict, 0, len(rows))
	for _, row := range rows {
		c := Conflict{
			AssignmentID: row.ID,
			DriverID:     row.DriverID,
			VehicleID:    row.VehicleID,
			StartTime:    row.StartTime,
			EndTime:      row.EndTime,
		}
		if d, ok := drivers[row.DriverID]; ok {
			c.DriverName = d.FullName
		}
		if veh, ok := vehicles[row.VehicleID]; ok {
			c.VehiclePlate = veh.Plate
		}
		conflicts = append(conflicts, c)
	}
	return conflicts
}

func keys(set map[uuid.UUID]struct{}) []uuid.UUID {
	if len(set) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

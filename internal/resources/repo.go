package resources

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
)

// Repository runs the guarded status updates behind the synchronizer. The
// guards live in SQL so the writes stay correct under concurrent bookings:
// a driver or vehicle is only returned to idle when no active assignment
// still claims it, and manual states (resting, maintenance) are never
// clobbered.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a resource repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) Store {
	return &Repository{db: tx}
}

// MarkDriverBusy puts a driver on duty and stamps the change time.
func (r *Repository) MarkDriverBusy(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE drivers SET status = ?, status_updated_at = ?, updated_at = ? WHERE id = ?`,
		enums.DriverStatusOnDuty, at, at, id,
	)
	return res.RowsAffected, res.Error
}

// ReleaseDriverIfIdle returns an on-duty driver to available, unless
// another active assignment still claims them.
func (r *Repository) ReleaseDriverIfIdle(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE drivers SET status = ?, status_updated_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?
		   AND NOT EXISTS (
		     SELECT 1 FROM assignments a WHERE a.driver_id = drivers.id AND a.status = ?
		   )`,
		enums.DriverStatusAvailable, at, at, id, enums.DriverStatusOnDuty, enums.AssignmentStatusActive,
	)
	return res.RowsAffected, res.Error
}

// MarkVehicleBusy puts a vehicle in use.
func (r *Repository) MarkVehicleBusy(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE vehicles SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		enums.VehicleStatusInUse, at, id, enums.VehicleStatusMaintenance,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		return res.RowsAffected, nil
	}
	// Distinguish "already in use" from "missing or in maintenance".
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("id = ? AND status = ?", id, enums.VehicleStatusInUse).
		Count(&count).Error
	return count, err
}

// ReleaseVehicleIfIdle parks an in-use vehicle, unless another active
// assignment still claims it.
func (r *Repository) ReleaseVehicleIfIdle(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE vehicles SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?
		   AND NOT EXISTS (
		     SELECT 1 FROM assignments a WHERE a.vehicle_id = vehicles.id AND a.status = ?
		   )`,
		enums.VehicleStatusParked, at, id, enums.VehicleStatusInUse, enums.AssignmentStatusActive,
	)
	return res.RowsAffected, res.Error
}

// HasMaintenanceInProgress reports whether the vehicle currently has an
// in-progress maintenance record. Scheduled and completed records do not
// block bookings.
func (r *Repository) HasMaintenanceInProgress(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MaintenanceRecord{}).
		Where("vehicle_id = ? AND status = ?", vehicleID, enums.MaintenanceStatusInProgress).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReconcileDriverStatuses repairs driver rows whose status disagrees with
// the active assignment set: on-duty drivers with no active assignment go
// back to available, available drivers with one become on duty. Resting is
// a manual state and is left alone.
func (r *Repository) ReconcileDriverStatuses(ctx context.Context, at time.Time) (int64, error) {
	released := r.db.WithContext(ctx).Exec(
		`UPDATE drivers SET status = ?, status_updated_at = ?, updated_at = ?
		 WHERE status = ?
		   AND NOT EXISTS (
		     SELECT 1 FROM assignments a WHERE a.driver_id = drivers.id AND a.status = ?
		   )`,
		enums.DriverStatusAvailable, at, at, enums.DriverStatusOnDuty, enums.AssignmentStatusActive,
	)
	if released.Error != nil {
		return 0, released.Error
	}

	claimed := r.db.WithContext(ctx).Exec(
		`UPDATE drivers SET status = ?, status_updated_at = ?, updated_at = ?
		 WHERE status = ?
		   AND EXISTS (
		     SELECT 1 FROM assignments a WHERE a.driver_id = drivers.id AND a.status = ?
		   )`,
		enums.DriverStatusOnDuty, at, at, enums.DriverStatusAvailable, enums.AssignmentStatusActive,
	)
	if claimed.Error != nil {
		return released.RowsAffected, claimed.Error
	}
	return released.RowsAffected + claimed.RowsAffected, nil
}

// ReconcileVehicleStatuses is the vehicle-side counterpart. Maintenance is
// a manual state and is left alone.
func (r *Repository) ReconcileVehicleStatuses(ctx context.Context, at time.Time) (int64, error) {
	parked := r.db.WithContext(ctx).Exec(
		`UPDATE vehicles SET status = ?, updated_at = ?
		 WHERE status = ?
		   AND NOT EXISTS (
		     SELECT 1 FROM assignments a WHERE a.vehicle_id = vehicles.id AND a.status = ?
		   )`,
		enums.VehicleStatusParked, at, enums.VehicleStatusInUse, enums.AssignmentStatusActive,
	)
	if parked.Error != nil {
		return 0, parked.Error
	}

	claimed := r.db.WithContext(ctx).Exec(
		`UPDATE vehicles SET status = ?, updated_at = ?
		 WHERE status = ?
		   AND EXISTS (
		     SELECT 1 FROM assignments a WHERE a.vehicle_id = vehicles.id AND a.status = ?
		   )`,
		enums.VehicleStatusInUse, at, enums.VehicleStatusParked, enums.AssignmentStatusActive,
	)
	if claimed.Error != nil {
		return parked.RowsAffected, claimed.Error
	}
	return parked.RowsAffected + claimed.RowsAffected, nil
}

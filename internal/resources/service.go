package resources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/odrivera-dev/fleetrack-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store is the persistence surface the synchronizer drives.
type Store interface {
	WithTx(tx *gorm.DB) Store
	MarkDriverBusy(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	ReleaseDriverIfIdle(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	MarkVehicleBusy(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	ReleaseVehicleIfIdle(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	HasMaintenanceInProgress(ctx context.Context, vehicleID uuid.UUID) (bool, error)
	ReconcileDriverStatuses(ctx context.Context, at time.Time) (int64, error)
	ReconcileVehicleStatuses(ctx context.Context, at time.Time) (int64, error)
}

// Service keeps driver and vehicle statuses in step with the assignment
// lifecycle. Activate and Release apply both sides in one transaction so a
// failure never leaves only the driver or only the vehicle flipped.
type Service interface {
	Activate(ctx context.Context, driverID, vehicleID uuid.UUID) error
	Release(ctx context.Context, driverID, vehicleID uuid.UUID) error
	VehicleUnderMaintenance(ctx context.Context, vehicleID uuid.UUID) (bool, error)
	Reconcile(ctx context.Context) (int64, error)
}

type service struct {
	tx    txRunner
	store Store
	now   func() time.Time
}

// NewService builds a resource synchronizer over the given transaction
// runner and store.
func NewService(tx txRunner, store Store) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if store == nil {
		return nil, fmt.Errorf("resource store required")
	}
	return &service{tx: tx, store: store, now: time.Now}, nil
}

func (s *service) Activate(ctx context.Context, driverID, vehicleID uuid.UUID) error {
	if driverID == uuid.Nil || vehicleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver and vehicle ids are required")
	}

	at := s.now().UTC()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)

		n, err := store.MarkDriverBusy(ctx, driverID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark driver on duty")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}

		n, err = store.MarkVehicleBusy(ctx, vehicleID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark vehicle in use")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeResourceBlocked, "vehicle missing or in maintenance")
		}
		return nil
	})
}

func (s *service) Release(ctx context.Context, driverID, vehicleID uuid.UUID) error {
	if driverID == uuid.Nil || vehicleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver and vehicle ids are required")
	}

	// Zero rows affected is not an error here: the guards skip drivers
	// still claimed by another active assignment and manual states.
	at := s.now().UTC()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)

		if _, err := store.ReleaseDriverIfIdle(ctx, driverID, at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release driver")
		}
		if _, err := store.ReleaseVehicleIfIdle(ctx, vehicleID, at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release vehicle")
		}
		return nil
	})
}

func (s *service) VehicleUnderMaintenance(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	if vehicleID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id is required")
	}
	blocked, err := s.store.HasMaintenanceInProgress(ctx, vehicleID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check maintenance records")
	}
	return blocked, nil
}

// Reconcile re-derives driver and vehicle statuses from the active
// assignment set, repairing drift left behind by partial commits or
// crashes. It returns the number of rows corrected.
func (s *service) Reconcile(ctx context.Context) (int64, error) {
	at := s.now().UTC()
	var fixed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)

		n, err := store.ReconcileDriverStatuses(ctx, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile driver statuses")
		}
		fixed += n

		n, err = store.ReconcileVehicleStatuses(ctx, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile vehicle statuses")
		}
		fixed += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return fixed, nil
}

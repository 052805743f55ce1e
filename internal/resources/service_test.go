package resources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/odrivera-dev/fleetrack-backend/pkg/errors"
)

type fakeStore struct {
	driverBusyN    int64
	driverBusyErr  error
	vehicleBusyN   int64
	vehicleBusyErr error
	driverReleases int
	vehicleRels    int
	maintenance    bool
	reconDrivers   int64
	reconVehicles  int64
}

func (f *fakeStore) WithTx(tx *gorm.DB) Store { return f }

func (f *fakeStore) MarkDriverBusy(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	return f.driverBusyN, f.driverBusyErr
}

func (f *fakeStore) ReleaseDriverIfIdle(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	f.driverReleases++
	return 1, nil
}

func (f *fakeStore) MarkVehicleBusy(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	return f.vehicleBusyN, f.vehicleBusyErr
}

func (f *fakeStore) ReleaseVehicleIfIdle(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	f.vehicleRels++
	return 1, nil
}

func (f *fakeStore) HasMaintenanceInProgress(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	return f.maintenance, nil
}

func (f *fakeStore) ReconcileDriverStatuses(ctx context.Context, at time.Time) (int64, error) {
	return f.reconDrivers, nil
}

func (f *fakeStore) ReconcileVehicleStatuses(ctx context.Context, at time.Time) (int64, error) {
	return f.reconVehicles, nil
}

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

func TestActivateBothSides(t *testing.T) {
	store := &fakeStore{driverBusyN: 1, vehicleBusyN: 1}
	svc, err := NewService(fakeTxRunner{}, store)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if err := svc.Activate(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
}

func TestActivateDriverMissing(t *testing.T) {
	store := &fakeStore{driverBusyN: 0, vehicleBusyN: 1}
	svc, _ := NewService(fakeTxRunner{}, store)

	err := svc.Activate(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestActivateVehicleBlocked(t *testing.T) {
	store := &fakeStore{driverBusyN: 1, vehicleBusyN: 0}
	svc, _ := NewService(fakeTxRunner{}, store)

	err := svc.Activate(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected resource blocked error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeResourceBlocked {
		t.Fatalf("expected resource blocked code, got %v", err)
	}
}

func TestActivateRejectsNilIDs(t *testing.T) {
	svc, _ := NewService(fakeTxRunner{}, &fakeStore{})

	err := svc.Activate(context.Background(), uuid.Nil, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestReleaseToleratesZeroRows(t *testing.T) {
	store := &fakeStore{}
	svc, _ := NewService(fakeTxRunner{}, store)

	if err := svc.Release(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if store.driverReleases != 1 || store.vehicleRels != 1 {
		t.Fatalf("expected both sides released once, got %d/%d", store.driverReleases, store.vehicleRels)
	}
}

func TestReleasePropagatesTxFailure(t *testing.T) {
	boom := errors.New("connection reset")
	svc, _ := NewService(fakeTxRunner{err: boom}, &fakeStore{})

	if err := svc.Release(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, boom) {
		t.Fatalf("expected tx error to propagate, got %v", err)
	}
}

func TestVehicleUnderMaintenance(t *testing.T) {
	svc, _ := NewService(fakeTxRunner{}, &fakeStore{maintenance: true})

	blocked, err := svc.VehicleUnderMaintenance(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("VehicleUnderMaintenance returned error: %v", err)
	}
	if !blocked {
		t.Fatal("expected blocked")
	}
}

func TestReconcileSumsBothSides(t *testing.T) {
	svc, _ := NewService(fakeTxRunner{}, &fakeStore{reconDrivers: 2, reconVehicles: 3})

	fixed, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if fixed != 5 {
		t.Fatalf("expected 5 rows fixed, got %d", fixed)
	}
}

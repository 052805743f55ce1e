package sweeper

import (
	"context"
	"fmt"

	"github.com/odrivera-dev/fleetrack-backend/pkg/logger"
)

type resourceReconciler interface {
	Reconcile(ctx context.Context) (int64, error)
}

// ReconcileJobParams configure the resource status reconciliation sweep.
type ReconcileJobParams struct {
	Logger    *logger.Logger
	Resources resourceReconciler
}

// NewReconcileJob builds the job that repairs driver and vehicle statuses
// left inconsistent by partial commits.
func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Resources == nil {
		return nil, fmt.Errorf("resource reconciler required")
	}
	return &reconcileJob{
		logg:      params.Logger,
		resources: params.Resources,
	}, nil
}

type reconcileJob struct {
	logg      *logger.Logger
	resources resourceReconciler
}

func (j *reconcileJob) Name() string { return "resource-reconcile" }

func (j *reconcileJob) Run(ctx context.Context) error {
	fixed, err := j.resources.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile resource statuses: %w", err)
	}
	if fixed > 0 {
		logCtx := j.logg.WithField(ctx, "fixed", fixed)
		j.logg.Warn(logCtx, "repaired drifted resource statuses")
		return nil
	}
	j.logg.Info(ctx, "resource statuses consistent")
	return nil
}

package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	pkgerrors "github.com/odrivera-dev/fleetrack-backend/pkg/errors"
	"github.com/odrivera-dev/fleetrack-backend/pkg/logger"
)

const defaultExpiryBatchLimit = 500

type expiredAssignmentsFinder interface {
	FindExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Assignment, error)
}

type assignmentCompleter interface {
	Complete(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
}

// ExpiryJobParams configure the assignment expiry sweep.
type ExpiryJobParams struct {
	Logger      *logger.Logger
	Finder      expiredAssignmentsFinder
	Assignments assignmentCompleter
	BatchLimit  int
}

// NewExpiryJob builds the job that completes active assignments whose end
// time has passed.
func NewExpiryJob(params ExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Finder == nil {
		return nil, fmt.Errorf("expired assignments finder required")
	}
	if params.Assignments == nil {
		return nil, fmt.Errorf("assignment completer required")
	}
	limit := params.BatchLimit
	if limit <= 0 {
		limit = defaultExpiryBatchLimit
	}
	return &expiryJob{
		logg:        params.Logger,
		finder:      params.Finder,
		assignments: params.Assignments,
		batchLimit:  limit,
		now:         time.Now,
	}, nil
}

type expiryJob struct {
	logg        *logger.Logger
	finder      expiredAssignmentsFinder
	assignments assignmentCompleter
	batchLimit  int
	now         func() time.Time
}

func (j *expiryJob) Name() string { return "assignment-expiry" }

// Run completes every expired active assignment it can reach. Items are
// processed one by one: a failure on one assignment is collected and the
// sweep moves on, so the batch always makes forward progress.
func (j *expiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	rows, err := j.finder.FindExpiredActive(ctx, cutoff, j.batchLimit)
	if err != nil {
		return fmt.Errorf("query expired assignments: %w", err)
	}

	var errs []error
	completed := 0
	skipped := 0
	for _, row := range rows {
		if _, err := j.assignments.Complete(ctx, row.ID); err != nil {
			// Someone completed or cancelled it since the query ran.
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				skipped++
				continue
			}
			itemCtx := j.logg.WithAssignmentID(ctx, row.ID.String())
			j.logg.Error(itemCtx, "failed to complete expired assignment", err)
			errs = append(errs, fmt.Errorf("assignment %s: %w", row.ID, err))
			continue
		}
		completed++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"found":     len(rows),
		"completed": completed,
		"skipped":   skipped,
		"failed":    len(errs),
	})
	j.logg.Info(logCtx, "assignment expiry sweep complete")
	return multierr.Combine(errs...)
}

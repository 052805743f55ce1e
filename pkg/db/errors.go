package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgExclusionViolation = "23P01"

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

// IsExclusionViolation reports whether the error is a Postgres exclusion
// constraint violation (SQLSTATE 23P01), optionally scoped to one constraint.
// The no-overlap invariant on active assignments surfaces through here.
func IsExclusionViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if pgxErr.Code != pgExclusionViolation {
			return false
		}
		return constraintName == "" || pgxErr.ConstraintName == constraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != pgExclusionViolation {
			return false
		}
		return constraintName == "" || pqErr.Constraint == constraintName
	}

	if !strings.Contains(err.Error(), "conflicting key value violates exclusion constraint") {
		return false
	}
	return constraintName == "" || strings.Contains(err.Error(), constraintName)
}

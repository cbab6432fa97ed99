package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	ierr "github.com/chantier/avancement/internal/errors"
	"github.com/lib/pq"
)

// postgres error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqClassConnection      = "08"
)

// WrapError converts a driver error into a marked application error.
// Missing rows become not found errors described by entity.
func WrapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			Mark(ierr.ErrNotFound)
	}
	return classify(err, entity)
}

// classify marks err with the error kind callers can act upon: constraint
// violations become business errors, contention and connection failures
// become transient errors, anything else is a database error.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case code == pqUniqueViolation:
			return ierr.WithError(err).
				WithMessage(op).
				WithHint("A record with the same identity already exists").
				WithReportableDetails(map[string]any{
					"constraint": pqErr.Constraint,
				}).
				Mark(ierr.ErrAlreadyExists)
		case code == pqForeignKeyViolation:
			return ierr.WithError(err).
				WithMessage(op).
				WithHint("The record references data that does not exist").
				WithReportableDetails(map[string]any{
					"constraint": pqErr.Constraint,
				}).
				Mark(ierr.ErrReferential)
		case code == pqSerializationFailure, code == pqDeadlockDetected, code == pqLockNotAvailable,
			strings.HasPrefix(code, pqClassConnection):
			return transient(err, op)
		}
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return transient(err, op)
	}

	return ierr.WithError(err).
		WithMessage(op).
		WithHint("A database error occurred").
		Mark(ierr.ErrDatabase)
}

func transient(err error, op string) error {
	return ierr.WithError(err).
		WithMessage(op).
		WithHint("The database is busy, please retry").
		Mark(ierr.ErrTransient)
}

package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrVersionConflict  = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrPermissionDenied = new(ErrCodePermissionDenied, "permission denied")
	ErrUnauthorized     = new(ErrCodeUnauthorized, "unauthorized")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	// progress billing lifecycle
	ErrLocked           = new(ErrCodeLocked, "progress state is locked")
	ErrAlreadyFinalized = new(ErrCodeAlreadyFinalized, "progress state already finalized")
	ErrNotFinalized     = new(ErrCodeNotFinalized, "progress state is not finalized")
	ErrReferential      = new(ErrCodeReferential, "referential integrity violation")

	// ErrTransient marks persistence failures after which the whole call can be retried
	ErrTransient = new(ErrCodeTransient, "transient error")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrDatabase:         http.StatusInternalServerError,
		ErrNotFound:         http.StatusNotFound,
		ErrAlreadyExists:    http.StatusConflict,
		ErrVersionConflict:  http.StatusConflict,
		ErrValidation:       http.StatusBadRequest,
		ErrInvalidOperation: http.StatusBadRequest,
		ErrPermissionDenied: http.StatusForbidden,
		ErrUnauthorized:     http.StatusUnauthorized,
		ErrSystem:           http.StatusInternalServerError,
		ErrLocked:           http.StatusLocked,
		ErrAlreadyFinalized: http.StatusConflict,
		ErrNotFinalized:     http.StatusConflict,
		ErrReferential:      http.StatusUnprocessableEntity,
		ErrTransient:        http.StatusServiceUnavailable,
	}

	// checked in this order so that the most specific mark wins when an
	// error carries more than one
	codePriority = []*InternalError{
		ErrTransient,
		ErrLocked,
		ErrAlreadyFinalized,
		ErrNotFinalized,
		ErrReferential,
		ErrVersionConflict,
		ErrAlreadyExists,
		ErrNotFound,
		ErrValidation,
		ErrInvalidOperation,
		ErrUnauthorized,
		ErrPermissionDenied,
		ErrDatabase,
		ErrSystem,
	}
)

const (
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeVersionConflict  = "version_conflict"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeDatabase         = "database_error"
	ErrCodeLocked           = "locked_state"
	ErrCodeAlreadyFinalized = "already_finalized"
	ErrCodeNotFinalized     = "not_finalized"
	ErrCodeReferential      = "referential_error"
	ErrCodeTransient        = "transient_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError
func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsVersionConflict checks if an error is a version conflict error
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsPermissionDenied checks if an error is a permission denied error
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsUnauthorized checks if the caller could not be identified
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsLocked checks if a mutation was rejected because the state is finalized
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}

// IsAlreadyFinalized checks if finalize was called on a finalized state
func IsAlreadyFinalized(err error) bool {
	return errors.Is(err, ErrAlreadyFinalized)
}

// IsNotFinalized checks if reopen was called on a draft state
func IsNotFinalized(err error) bool {
	return errors.Is(err, ErrNotFinalized)
}

// IsReferential checks if an error is a referential integrity error
func IsReferential(err error) bool {
	return errors.Is(err, ErrReferential)
}

// IsTransient checks if the failed call can safely be retried as a whole
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsBusinessRule reports whether err carries one of the user-visible rule
// violations, as opposed to a persistence or system failure.
func IsBusinessRule(err error) bool {
	for _, ref := range []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrVersionConflict,
		ErrValidation,
		ErrInvalidOperation,
		ErrPermissionDenied,
		ErrUnauthorized,
		ErrLocked,
		ErrAlreadyFinalized,
		ErrNotFinalized,
		ErrReferential,
	} {
		if errors.Is(err, ref) {
			return true
		}
	}
	return false
}

// CodeFromErr returns the machine readable code of the most specific mark on err
func CodeFromErr(err error) string {
	for _, ref := range codePriority {
		if errors.Is(err, ref) {
			return ref.Code
		}
	}
	return ErrCodeSystemError
}

func HTTPStatusFromErr(err error) int {
	for _, ref := range codePriority {
		if errors.Is(err, ref) {
			return statusCodeMap[ref]
		}
	}
	return http.StatusInternalServerError
}

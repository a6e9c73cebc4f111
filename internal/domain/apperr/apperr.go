// Package apperr defines the error kinds shared by the POS domain packages.
package apperr

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports bad input. Field names the offending input.
type ValidationError struct {
	Field  string
	Reason string
}

// Validation returns a new ValidationError.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StorageError wraps a failure of the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError for op. It returns nil for a nil err.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// ConsistencyError means an order's persisted totals disagree with its
// items. It indicates a bug and is not recoverable by the caller.
type ConsistencyError struct {
	OrderID int64
	Detail  string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("order %d: consistency violation: %s", e.OrderID, e.Detail)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

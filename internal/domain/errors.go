package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrUnauthorized is returned when the caller has no valid session
	ErrUnauthorized = errors.New("not authenticated")

	// ErrForbidden is returned when the caller is authenticated but lacks the required role
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned when required fields are missing or malformed
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced catalog entry or category does not exist
	ErrNotFound = errors.New("not found")

	// ErrPersistence is returned when a datastore write fails
	ErrPersistence = errors.New("persistence failure")

	// ErrPartialFailure is returned when a catalog entry was created but a later step failed
	ErrPartialFailure = errors.New("partial failure")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PersistenceError reports which write step failed. Nothing from the failed
// operation is left committed.
type PersistenceError struct {
	Step string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// PartialFailureError is returned when the catalog entry was committed but a
// later step was not. CatalogID identifies the orphaned entry for cleanup.
type PartialFailureError struct {
	Step      string
	CatalogID uuid.UUID
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("catalog entry %s created but %s failed: %v", e.CatalogID, e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() []error { return []error{ErrPartialFailure, e.Err} }

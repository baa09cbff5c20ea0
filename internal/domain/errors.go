package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found. Storage
	// adapters never return it from Load (absence is a nil cart, not an
	// error); it exists for callers that need an absence signal, such as the
	// HTTP layer.
	ErrNotFound = errors.New("not found")

	// ErrBackendUnavailable indicates the selected backend cannot be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ConflictError reports a violated precondition the caller can re-check and
// retry. It is never fatal.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

func conflictf(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// ValidationError reports malformed caller input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Reason }

// PricingError reports a failure computing prices for a cart.
type PricingError struct {
	Reason string
}

func (e *PricingError) Error() string { return "pricing failed: " + e.Reason }

// StorageError wraps a backend failure with the operation that produced it.
// Adapters translate backend-native errors into StorageError before they cross
// into the rest of the system.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageFailure reports whether err is (or wraps) a StorageError.
func IsStorageFailure(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}

// MigrationError wraps the failure that stopped a migration run.
type MigrationError struct {
	MigrationID MigrationID
	Err         error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s: %v", e.MigrationID, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

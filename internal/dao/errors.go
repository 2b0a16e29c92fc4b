package dao

import (
	"errors"
	"fmt"
)

// Sentinel errors for the repository error taxonomy. Typed errors below wrap
// these so callers can branch with errors.Is while messages keep full context.
var (
	// ErrNotFound indicates the entity id is absent where existence is required.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the entity id is present where absence is required.
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates a tenant-ownership violation.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates a field-level constraint violation.
	ErrValidation = errors.New("validation failed")

	// ErrProgramming indicates an invariant that upstream validation should
	// have made impossible. A server-side bug, not a client error.
	ErrProgramming = errors.New("programming error")

	// ErrStorageUnavailable wraps row store I/O failures. Never retried here.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// NotFoundError reports an absent entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s identified by ID %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports an entity that already exists.
type ConflictError struct {
	Entity string
	ID     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s identified by ID %s already exists", e.Entity, e.ID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ForbiddenError reports a write attempted against a tenant the acting token
// does not own.
type ForbiddenError struct {
	TokenTenantID string
	UserID        string
	Entity        string
	EntityTenant  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("tenant %s user %s attempted to write entity of type %s for tenant %s",
		e.TokenTenantID, e.UserID, e.Entity, e.EntityTenant)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// ValidationError reports the first constraint violation, selected
// deterministically by lexicographic field path.
type ValidationError struct {
	Entity  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s %s", e.Entity, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ProgrammingError reports a broken invariant that should have been caught
// upstream.
type ProgrammingError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ProgrammingError) Error() string {
	return fmt.Sprintf("%s identified by ID %s: %s", e.Entity, e.ID, e.Reason)
}

func (e *ProgrammingError) Unwrap() error { return ErrProgramming }

// StorageError wraps a row store failure with the operation context.
type StorageError struct {
	Op     string
	Entity string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: storage unavailable: %v", e.Op, e.Entity, e.Err)
}

func (e *StorageError) Unwrap() error { return ErrStorageUnavailable }

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is (or wraps) ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsForbidden reports whether err is (or wraps) ErrForbidden.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsValidation reports whether err is (or wraps) ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

package domain

import (
	"errors"
	"fmt"
)

// State-conflict errors: a transition was requested whose precondition
// does not hold. Callers must handle these explicitly, they are never
// retried or swallowed by the services.
var (
	ErrUserAlreadyBanned = errors.New("user is already banned")
	ErrUserNotBanned     = errors.New("user is not banned")
	ErrUserAlreadyMuted  = errors.New("user is already muted")
	ErrUserNotMuted      = errors.New("user is not muted")
)

// ErrInvalidWarningsLimit is returned for warnings limits below 1.
var ErrInvalidWarningsLimit = errors.New("warnings limit must be positive")

// StorageError wraps a durable-store failure on a write path.
// Read paths never return it: absent or unreadable rows degrade to
// default values so that message processing does not stall.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err with the failed operation name.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

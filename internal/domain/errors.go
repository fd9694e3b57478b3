// internal/domain/errors.go
package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalidID   = errors.New("invalid identifier")
	ErrUnavailable = errors.New("storage unavailable")
)

// ValidationError carries the human-readable messages for one rejected
// input. The HTTP layer returns Messages as-is.
type ValidationError struct {
	Messages []string
}

func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// ConflictError names what collided. It matches ErrConflict with errors.Is.
type ConflictError struct {
	Messages []string
}

func (e *ConflictError) Error() string {
	return "conflict: " + strings.Join(e.Messages, "; ")
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

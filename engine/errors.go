package engine

import (
	"errors"
	"fmt"

	"github.com/jacentio/orchard/store"
)

var (
	// ErrUnauthenticated is returned by writes made without an owner.
	ErrUnauthenticated = errors.New("orchard: unauthenticated")

	// ErrNotFound is returned when a record is missing or owned by another
	// caller. The two cases are deliberately indistinguishable. It is the
	// store's sentinel, so errors.Is matches either name.
	ErrNotFound = store.ErrNotFound

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("orchard: validation failed")
)

// ValidationError describes a rejected request.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("orchard: invalid %s: %s", e.Op, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(op, format string, args ...any) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

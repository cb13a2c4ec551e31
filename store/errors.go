package store

import "errors"

var (
	// ErrNotFound is returned when a record doesn't exist.
	ErrNotFound = errors.New("orchard: entity not found")

	// ErrAlreadyExists is returned when inserting a record with an existing ID.
	ErrAlreadyExists = errors.New("orchard: entity already exists")

	// ErrConcurrentModification is returned when optimistic lock fails (version mismatch).
	ErrConcurrentModification = errors.New("orchard: entity was modified concurrently")

	// ErrReadOnly is returned when a write is attempted inside a read-only unit of work.
	ErrReadOnly = errors.New("orchard: write in read-only transaction")

	// ErrTransactionTooLarge is returned when a unit of work stages more writes
	// than the backend can commit atomically.
	ErrTransactionTooLarge = errors.New("orchard: too many writes in one transaction")
)

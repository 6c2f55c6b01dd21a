package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a case does not exist or has been deleted.
	ErrNotFound = errors.New("case not found")

	// ErrConflict is returned when a case with the given ID already exists.
	ErrConflict = errors.New("case already exists")
)

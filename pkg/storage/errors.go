package storage

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a room or message does not exist.
	ErrNotFound = errors.New("room not found")

	// ErrConflict is returned when a room with the given ID already exists.
	ErrConflict = errors.New("room already exists")
)

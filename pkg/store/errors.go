package store

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a thread does not exist.
	ErrNotFound = errors.New("thread not found")

	// ErrConflict is returned when a thread with the given ID already exists.
	ErrConflict = errors.New("thread already exists")
)

package connection

import "errors"

var (
	// ErrNotFound is returned when a connection id has no registered entry.
	ErrNotFound = errors.New("connection not found")

	// ErrCleanupTimeout is returned when close callbacks do not finish within
	// the registry's close timeout.
	ErrCleanupTimeout = errors.New("connection cleanup timed out")
)

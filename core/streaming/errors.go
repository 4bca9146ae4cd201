package streaming

import "errors"

var (
	// ErrDisposed is returned when an operation is invoked on a repository
	// that has already torn down (connection disconnected).
	ErrDisposed = errors.New("streaming repository is disposed")

	// ErrNotFound is returned when no subscription exists for the method
	// and the caller asked for strict lookup.
	ErrNotFound = errors.New("streaming subscription not found")

	// ErrConnectionMismatch is returned when a stream resolved for one
	// connection is registered into a repository owned by another.
	ErrConnectionMismatch = errors.New("stream connection does not match repository connection")
)

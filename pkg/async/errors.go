package async

import "errors"

var (
	// ErrTimeout is returned when a future does not complete before the
	// await deadline.
	ErrTimeout = errors.New("async operation timed out")

	// ErrPanic wraps a panic recovered from an asynchronous function.
	ErrPanic = errors.New("async operation panicked")
)

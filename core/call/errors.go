package call

import "errors"

var (
	// ErrNoCall is returned when response metadata is requested from a
	// Result constructed from a plain value: no remote call exists.
	ErrNoCall = errors.New("result is not backed by a remote call")

	// ErrNotFinished is returned when trailing metadata is requested
	// before the underlying call has finished.
	ErrNotFinished = errors.New("call has not finished")
)

package call

import (
	"context"
	"sync"

	"google.golang.org/grpc/metadata"
)

// RawCall is the transport's view of one in-flight unary call. The core
// treats it opaquely; a concrete transport supplies the implementation.
type RawCall interface {
	// Response blocks until the raw response bytes are available.
	Response(ctx context.Context) ([]byte, error)

	// Header blocks until response header metadata is available.
	Header(ctx context.Context) (metadata.MD, error)

	// Trailer returns trailing metadata. Only valid once the call has
	// finished.
	Trailer() metadata.MD

	// Finished reports whether the call has completed (successfully or not).
	Finished() bool

	// Cancel requests cancellation of the call if it is still in flight.
	// No-op on a finished call.
	Cancel()
}

// Decoder turns raw response bytes into a value.
type Decoder[T any] func([]byte) (T, error)

// Result is the awaitable outcome of a unary operation. It unifies two
// cases behind one contract, so calling code never branches on which kind
// it holds:
//
//   - a value already known locally (NewResult, NewPendingResult)
//   - a pending remote call plus a decode step (NewCallResult)
//
// The zero Result is not usable; construct via one of the New functions.
type Result[T any] struct {
	hasValue bool
	value    T

	pending func(context.Context) (T, error)
	raw     RawCall
	decode  Decoder[T]

	once      sync.Once
	resolved  T
	resolveEr error

	closeOnce sync.Once
}

// NewResult creates a Result from an already-known value. Await returns it
// immediately; there is no remote call behind it.
func NewResult[T any](v T) *Result[T] {
	return &Result[T]{hasValue: true, value: v}
}

// NewPendingResult creates a Result backed by a local pending source. fn is
// invoked at most once, on the first Await.
func NewPendingResult[T any](fn func(context.Context) (T, error)) *Result[T] {
	return &Result[T]{pending: fn}
}

// NewCallResult creates a Result backed by an in-flight remote call. The
// decoder runs at most once, on the raw response of the first Await.
func NewCallResult[T any](raw RawCall, decode Decoder[T]) *Result[T] {
	return &Result[T]{raw: raw, decode: decode}
}

// Await resolves the value. For value-backed results it returns instantly;
// otherwise it waits for the pending source or remote response and decodes
// it. Resolution is memoized: repeated and concurrent awaits observe the
// same outcome and never decode twice.
func (r *Result[T]) Await(ctx context.Context) (T, error) {
	if r.hasValue {
		return r.value, nil
	}

	r.once.Do(func() {
		switch {
		case r.pending != nil:
			r.resolved, r.resolveEr = r.pending(ctx)
		default:
			var raw []byte
			raw, r.resolveEr = r.raw.Response(ctx)
			if r.resolveEr != nil {
				return
			}
			r.resolved, r.resolveEr = r.decode(raw)
		}
	})
	return r.resolved, r.resolveEr
}

// Header returns response header metadata. Fails with ErrNoCall when the
// result is not backed by a remote call.
func (r *Result[T]) Header(ctx context.Context) (metadata.MD, error) {
	if r.raw == nil {
		return nil, ErrNoCall
	}
	return r.raw.Header(ctx)
}

// Trailer returns trailing metadata. Fails with ErrNoCall when the result
// is not backed by a remote call, and with ErrNotFinished before the call
// has completed.
func (r *Result[T]) Trailer() (metadata.MD, error) {
	if r.raw == nil {
		return nil, ErrNoCall
	}
	if !r.raw.Finished() {
		return nil, ErrNotFinished
	}
	return r.raw.Trailer(), nil
}

// Close releases the underlying call, cancelling it if still in flight.
// No-op for value-backed results. Idempotent.
func (r *Result[T]) Close() {
	if r.raw == nil {
		return
	}
	r.closeOnce.Do(func() {
		r.raw.Cancel()
	})
}

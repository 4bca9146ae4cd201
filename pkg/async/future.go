package async

import (
	"errors"
	"fmt"
	"time"
)

// Future represents an asynchronous computation that completes with an error.
type Future struct {
	err  error
	done chan struct{}
}

// Go runs fn on its own goroutine and returns a Future for its completion.
// A panic inside fn is recovered and surfaced as the future's error, so a
// misbehaving task cannot take down the caller's dispatch loop.
func Go(fn func() error) *Future {
	f := &Future{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		f.err = fn()
	}()

	return f
}

// Await blocks until the computation completes and returns its error.
func (f *Future) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout waits for completion up to timeout. Returns ErrTimeout if
// the computation is still running when the timeout elapses; the computation
// itself keeps running.
func (f *Future) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *Future) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// AwaitAll waits for all futures to complete under one shared deadline and
// returns their errors joined. Futures that are still running when the
// deadline elapses contribute ErrTimeout; the rest are still awaited for
// their actual result up to that same deadline, not sequentially.
func AwaitAll(timeout time.Duration, futures ...*Future) error {
	if len(futures) == 0 {
		return nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var errs []error
	expired := false
	for _, f := range futures {
		if !expired {
			select {
			case <-f.done:
				errs = append(errs, f.err)
				continue
			case <-deadline.C:
				expired = true
			}
		}
		// Deadline has passed; collect whatever already finished.
		select {
		case <-f.done:
			errs = append(errs, f.err)
		default:
			errs = append(errs, ErrTimeout)
		}
	}
	return errors.Join(errs...)
}

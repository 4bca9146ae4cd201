package streaming

import (
	"context"
	"sync"
)

// Method identifies a streaming method on a connection, typically the full
// method name the dispatcher routes on. At most one subscription exists per
// (connection, Method) pair.
type Method string

// Stream is the transport's server-to-client stream handle. The repository
// uses it opaquely: Send pushes one value, ConnectionID names the connection
// the stream was resolved for so cross-wiring can be rejected at
// registration time.
type Stream interface {
	Send(ctx context.Context, v any) error
	ConnectionID() string
}

// Subscription is one registered server-to-client stream. Its lifecycle is
// Registered -> Completed, with Completed terminal: the streaming handler
// blocks on Wait until the subscription completes, either explicitly via
// Repository.Complete or implicitly when the connection closes.
type Subscription struct {
	method Method
	stream Stream

	// lock serializes writes; it holds one token when free. Acquisition
	// races against repository disposal so teardown never strands a writer.
	lock chan struct{}

	completeOnce sync.Once
	completed    chan struct{}
}

func newSubscription(method Method, stream Stream) *Subscription {
	s := &Subscription{
		method:    method,
		stream:    stream,
		lock:      make(chan struct{}, 1),
		completed: make(chan struct{}),
	}
	s.lock <- struct{}{}
	return s
}

// Method returns the method identity the subscription was registered under.
func (s *Subscription) Method() Method { return s.method }

// Done returns a channel closed when the subscription completes.
func (s *Subscription) Done() <-chan struct{} { return s.completed }

// Completed reports whether the subscription has reached its terminal state.
func (s *Subscription) Completed() bool {
	select {
	case <-s.completed:
		return true
	default:
		return false
	}
}

// Wait blocks until the subscription completes or ctx is done. The server's
// streaming handler calls this to keep the stream open for the lifetime of
// the subscription.
func (s *Subscription) Wait(ctx context.Context) error {
	select {
	case <-s.completed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// complete transitions to Completed. Idempotent.
func (s *Subscription) complete() {
	s.completeOnce.Do(func() {
		close(s.completed)
	})
}

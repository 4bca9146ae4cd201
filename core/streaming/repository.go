package streaming

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/streamkit/core/connection"
	"github.com/dmitrymomot/streamkit/pkg/logger"
)

// Repository holds the streaming subscriptions of exactly one connection.
// It guarantees at-most-one-writer-at-a-time per subscription, exactly-once
// completion, and full teardown when the owning connection closes: every
// registered subscription is driven to Completed and every blocked writer is
// released instead of deadlocking.
type Repository struct {
	conn *connection.Connection
	log  *slog.Logger

	disposeOnce sync.Once
	disposed    chan struct{}

	mu   sync.RWMutex
	subs map[Method]*Subscription
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithLogger configures structured logging for the repository. Defaults to
// a discard logger.
func WithLogger(log *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRepository creates a repository scoped to conn. Disposal is wired to
// the connection's close signal, so an application that never calls Dispose
// still gets complete teardown on disconnect.
func NewRepository(conn *connection.Connection, opts ...RepositoryOption) *Repository {
	r := &Repository{
		conn:     conn,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		disposed: make(chan struct{}),
		subs:     make(map[Method]*Subscription),
	}
	for _, opt := range opts {
		opt(r)
	}
	conn.OnClose(r.Dispose)
	return r
}

// Connection returns the connection this repository is scoped to.
func (r *Repository) Connection() *connection.Connection { return r.conn }

// Disposed reports whether the repository has torn down.
func (r *Repository) Disposed() bool {
	select {
	case <-r.disposed:
		return true
	default:
		return false
	}
}

// Register creates a subscription for method backed by stream. Fails with
// ErrDisposed after teardown and with ErrConnectionMismatch when the stream
// was resolved for a different connection. Re-registering a method replaces
// the previous subscription and completes it.
//
// The returned subscription reaches Completed exactly once: via
// Repository.Complete, or via teardown when the connection closes,
// whichever happens first.
func (r *Repository) Register(method Method, stream Stream) (*Subscription, error) {
	if r.Disposed() {
		return nil, ErrDisposed
	}
	if stream.ConnectionID() != r.conn.ID() {
		return nil, ErrConnectionMismatch
	}

	sub := newSubscription(method, stream)

	r.mu.Lock()
	prev := r.subs[method]
	r.subs[method] = sub
	r.mu.Unlock()

	if prev != nil {
		prev.complete()
	}

	// Disposal may have raced the insert; completing here keeps the
	// teardown-completes-everything guarantee.
	if r.Disposed() {
		sub.complete()
		return nil, ErrDisposed
	}

	r.log.Debug("streaming method registered",
		logger.ConnectionID(r.conn.ID()),
		logger.Method(string(method)))
	return sub, nil
}

// Write sends v on the subscription registered for method. Writes to one
// subscription are totally ordered: concurrent writers queue on the
// subscription's lock. A writer that is waiting when the repository tears
// down observes disposal and returns nil instead of deadlocking.
//
// Missing subscriptions are a silent no-op unless FailIfMissing is given,
// in which case ErrNotFound is returned. Calls after teardown fail with
// ErrDisposed.
func (r *Repository) Write(ctx context.Context, method Method, v any, opts ...Option) error {
	return r.withSubscription(ctx, method, opts, func(sub *Subscription) error {
		if sub.Completed() {
			return nil
		}
		return sub.stream.Send(ctx, v)
	})
}

// Complete transitions the subscription for method to Completed, releasing
// its streaming handler. Completing an already-completed subscription is
// harmless. Lookup and failure semantics match Write.
func (r *Repository) Complete(ctx context.Context, method Method, opts ...Option) error {
	return r.withSubscription(ctx, method, opts, func(sub *Subscription) error {
		sub.complete()
		return nil
	})
}

// withSubscription implements the shared lookup-and-lock discipline: resolve
// the subscription, acquire its write lock (racing disposal and ctx), then
// re-check disposal before running fn.
func (r *Repository) withSubscription(ctx context.Context, method Method, opts []Option, fn func(*Subscription) error) error {
	if r.Disposed() {
		return ErrDisposed
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.RLock()
	sub, ok := r.subs[method]
	r.mu.RUnlock()
	if !ok {
		if o.failIfMissing {
			return ErrNotFound
		}
		return nil
	}

	select {
	case <-sub.lock:
	case <-r.disposed:
		// Torn down while waiting for the lock; teardown owns completion.
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { sub.lock <- struct{}{} }()

	if r.Disposed() {
		return nil
	}
	return fn(sub)
}

// Dispose tears the repository down: marks it disposed, which releases any
// writer blocked on a subscription lock, then completes every registered
// subscription. Idempotent and safe to call concurrently with in-flight
// Write and Complete calls. Wired to the connection's close signal by
// NewRepository.
func (r *Repository) Dispose() {
	r.disposeOnce.Do(func() {
		close(r.disposed)

		r.mu.RLock()
		subs := make([]*Subscription, 0, len(r.subs))
		for _, sub := range r.subs {
			subs = append(subs, sub)
		}
		r.mu.RUnlock()

		for _, sub := range subs {
			sub.complete()
		}

		r.log.Debug("streaming repository disposed",
			logger.ConnectionID(r.conn.ID()),
			slog.Int("subscriptions", len(subs)))
	})
}

// Option adjusts lookup behavior of Write and Complete.
type Option func(*options)

type options struct {
	failIfMissing bool
}

// FailIfMissing makes Write and Complete return ErrNotFound when no
// subscription exists for the method, instead of silently succeeding.
func FailIfMissing() Option {
	return func(o *options) {
		o.failIfMissing = true
	}
}

// ForConnection returns the connection's memoized repository, constructing
// it with factory exactly once per (key, connection) even under concurrent
// callers. Each service keeps its own key so two services on one connection
// get independent repositories:
//
//	var repoKey = connection.NewKey[*streaming.Repository]("chat.streaming")
//
//	repo := streaming.ForConnection(repoKey, conn, func(c *connection.Connection) *streaming.Repository {
//		return streaming.NewRepository(c)
//	})
func ForConnection(key connection.Key[*Repository], conn *connection.Connection, factory func(*connection.Connection) *Repository) *Repository {
	return key.GetOrSet(conn, func() *Repository {
		return factory(conn)
	})
}

package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/streamkit/pkg/async"
	"github.com/dmitrymomot/streamkit/pkg/logger"
)

// DefaultCleanupTimeout bounds how long Close waits for cleanup callbacks.
const DefaultCleanupTimeout = 5 * time.Second

// Connection represents one logical, long-lived client session. It carries a
// close signal that fires exactly once on disconnect, a set of cleanup
// callbacks invoked when the signal fires, and a typed item bag for
// session-scoped state.
//
// A Connection is created by Registry.Register and closed either explicitly
// via Close or implicitly via Registry.Unregister. Higher layers observe the
// signal through Done or Context and hook teardown work through OnClose.
type Connection struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once

	mu          sync.Mutex
	cleanups    map[uint64]func()
	nextCleanup uint64

	bagMu sync.Mutex
	bag   map[*bagToken]any

	cleanupTimeout time.Duration
	log            *slog.Logger
}

func newConnection(id string, cleanupTimeout time.Duration, log *slog.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		id:             id,
		ctx:            ctx,
		cancel:         cancel,
		cleanups:       make(map[uint64]func()),
		bag:            make(map[*bagToken]any),
		cleanupTimeout: cleanupTimeout,
		log:            log,
	}
}

// ID returns the opaque connection identifier.
func (c *Connection) ID() string { return c.id }

// Context returns a context that is canceled when the connection closes.
// Pass it to operations that must stop when the client disconnects.
func (c *Connection) Context() context.Context { return c.ctx }

// Done returns a channel closed when the connection closes.
func (c *Connection) Done() <-chan struct{} { return c.ctx.Done() }

// Closed reports whether the close signal has fired.
func (c *Connection) Closed() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// OnClose registers fn to run when the connection closes. The returned
// function deregisters the callback; calling it after the callback has run
// is a no-op. If the connection is already closed, fn runs immediately on
// the calling goroutine and the returned deregister function does nothing.
//
// Callbacks are dispatched on their own goroutines, so one blocking or
// panicking callback cannot prevent the others from running. Close waits
// for all of them up to the cleanup timeout.
func (c *Connection) OnClose(fn func()) (deregister func()) {
	c.mu.Lock()
	if c.Closed() {
		c.mu.Unlock()
		runCleanup(fn, c.id, c.log)
		return func() {}
	}
	id := c.nextCleanup
	c.nextCleanup++
	c.cleanups[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.cleanups, id)
		c.mu.Unlock()
	}
}

// Close fires the close signal and runs all registered cleanup callbacks,
// each isolated on its own goroutine. It blocks until every callback
// finishes or the cleanup timeout elapses, whichever comes first.
// Close is idempotent; repeated and concurrent calls are safe.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		fns := make([]func(), 0, len(c.cleanups))
		for _, fn := range c.cleanups {
			fns = append(fns, fn)
		}
		c.cleanups = make(map[uint64]func())
		c.mu.Unlock()

		futures := make([]*async.Future, 0, len(fns))
		for _, fn := range fns {
			fn := fn
			futures = append(futures, async.Go(func() error {
				runCleanup(fn, c.id, c.log)
				return nil
			}))
		}
		if err := async.AwaitAll(c.cleanupTimeout, futures...); err != nil {
			c.log.Warn("connection cleanup did not finish in time",
				logger.ConnectionID(c.id),
				logger.Error(ErrCleanupTimeout))
		}
	})
}

func runCleanup(fn func(), connID string, log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("connection cleanup callback panicked",
				logger.ConnectionID(connID),
				slog.Any("panic", r))
		}
	}()
	fn()
}

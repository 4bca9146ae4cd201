package connection

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/streamkit/pkg/logger"
)

// Registry is a table of live connections keyed by connection id. It is
// explicitly constructed and owned by the host; there is no package-level
// default instance.
//
// All operations are safe for concurrent use without external locking.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	cleanupTimeout time.Duration
	log            *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger configures structured logging for the registry and the
// connections it creates. Defaults to a discard logger.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithCleanupTimeout bounds how long a closing connection waits for its
// cleanup callbacks. Defaults to DefaultCleanupTimeout.
func WithCleanupTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.cleanupTimeout = d
		}
	}
}

// NewRegistry creates an empty connection registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		conns:          make(map[string]*Connection),
		cleanupTimeout: DefaultCleanupTimeout,
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates and stores a connection for id, overwriting any prior
// entry for the same id. The displaced entry, if any, is closed in the
// background. Callers are expected to keep ids unique upstream; the
// overwrite contract exists so a stale entry can never shadow a live one.
//
// The returned Connection's Close method is the disconnect signal: the
// transport calls it when the client goes away.
func (r *Registry) Register(id string) *Connection {
	conn := newConnection(id, r.cleanupTimeout, r.log)

	r.mu.Lock()
	prev := r.conns[id]
	r.conns[id] = conn
	r.mu.Unlock()

	if prev != nil {
		r.log.Warn("connection id re-registered, closing previous entry",
			logger.ConnectionID(id))
		go prev.Close()
	}
	return conn
}

// Unregister removes the entry for id and closes it. No-op if absent.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	conn := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Get returns the connection for id, or ErrNotFound if absent.
func (r *Registry) Get(id string) (*Connection, error) {
	if conn, ok := r.TryGet(id); ok {
		return conn, nil
	}
	return nil, ErrNotFound
}

// TryGet returns the connection for id, reporting whether it exists.
func (r *Registry) TryGet(id string) (*Connection, bool) {
	r.mu.RLock()
	conn, ok := r.conns[id]
	r.mu.RUnlock()
	return conn, ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Close removes and closes every connection. Intended for process or test
// harness teardown.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[string]*Connection)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

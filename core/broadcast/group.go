package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Entry is one subscriber in a Group: its key, its value, and its
// subscription handle(s). The group only routes to subscriptions, it does
// not own them or extend their lifetime.
type Entry[K comparable, V, S any] struct {
	Key           K
	Value         V
	Subscriptions S
}

// Group is a keyed subscriber registry supporting fan-out writes that
// exclude a given subscriber. All operations are safe for concurrent use;
// enumeration and broadcast observe a snapshot taken at call start and are
// weakly consistent with concurrent Add/Remove.
type Group[K comparable, V, S any] struct {
	mu      sync.RWMutex
	entries map[K]Entry[K, V, S]
}

// NewGroup creates an empty group.
func NewGroup[K comparable, V, S any]() *Group[K, V, S] {
	return &Group[K, V, S]{entries: make(map[K]Entry[K, V, S])}
}

// Add registers a subscriber. A duplicate key overwrites the previous entry
// (last write wins); the return value reports whether an entry was
// replaced. Membership keys are generated fresh per join, so replacement is
// not expected in practice, but the contract is explicit.
func (g *Group[K, V, S]) Add(key K, value V, subs S) (replaced bool) {
	g.mu.Lock()
	_, replaced = g.entries[key]
	g.entries[key] = Entry[K, V, S]{Key: key, Value: value, Subscriptions: subs}
	g.mu.Unlock()
	return replaced
}

// Remove unregisters a subscriber. No-op if absent.
func (g *Group[K, V, S]) Remove(key K) {
	g.mu.Lock()
	delete(g.entries, key)
	g.mu.Unlock()
}

// Get returns the subscriber stored under key.
func (g *Group[K, V, S]) Get(key K) (V, S, bool) {
	g.mu.RLock()
	e, ok := g.entries[key]
	g.mu.RUnlock()
	if !ok {
		var v V
		var s S
		return v, s, false
	}
	return e.Value, e.Subscriptions, true
}

// All returns a snapshot of current subscribers. The snapshot may omit or
// include entries mutated concurrently with the call.
func (g *Group[K, V, S]) All() []Entry[K, V, S] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Entry[K, V, S], 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, e)
	}
	return out
}

// Len returns the current subscriber count.
func (g *Group[K, V, S]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// BroadcastExcept invokes send for every subscriber except the excluded
// key, each on its own goroutine. Targets are isolated: one subscriber's
// failure or slowness never blocks or fails the others. The returned error
// joins all per-target failures; no ordering exists across targets.
func (g *Group[K, V, S]) BroadcastExcept(ctx context.Context, except K, send func(ctx context.Context, e Entry[K, V, S]) error) error {
	targets := g.All()

	var wg sync.WaitGroup
	errs := make([]error, len(targets))
	for i, e := range targets {
		if e.Key == except {
			continue
		}
		wg.Add(1)
		go func(i int, e Entry[K, V, S]) {
			defer wg.Done()
			if err := send(ctx, e); err != nil {
				errs[i] = fmt.Errorf("broadcast to %v: %w", e.Key, err)
			}
		}(i, e)
	}
	wg.Wait()
	return errors.Join(errs...)
}

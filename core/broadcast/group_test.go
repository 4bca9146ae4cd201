package broadcast_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamkit/core/broadcast"
)

type inbox struct {
	mu   sync.Mutex
	msgs []string
}

func (b *inbox) push(msg string) {
	b.mu.Lock()
	b.msgs = append(b.msgs, msg)
	b.mu.Unlock()
}

func (b *inbox) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.msgs...)
}

func TestGroupMembership(t *testing.T) {
	t.Parallel()

	t.Run("add get remove", func(t *testing.T) {
		t.Parallel()

		g := broadcast.NewGroup[string, string, *inbox]()
		box := &inbox{}

		replaced := g.Add("a", "Alice", box)
		assert.False(t, replaced)
		assert.Equal(t, 1, g.Len())

		v, s, ok := g.Get("a")
		require.True(t, ok)
		assert.Equal(t, "Alice", v)
		assert.Same(t, box, s)

		g.Remove("a")
		_, _, ok = g.Get("a")
		assert.False(t, ok)

		// Removing an absent key is a no-op.
		g.Remove("a")
		assert.Equal(t, 0, g.Len())
	})

	t.Run("duplicate key overwrites", func(t *testing.T) {
		t.Parallel()

		g := broadcast.NewGroup[string, string, *inbox]()
		g.Add("a", "first", &inbox{})
		replaced := g.Add("a", "second", &inbox{})

		assert.True(t, replaced)
		assert.Equal(t, 1, g.Len())
		v, _, _ := g.Get("a")
		assert.Equal(t, "second", v)
	})

	t.Run("all returns a snapshot", func(t *testing.T) {
		t.Parallel()

		g := broadcast.NewGroup[string, string, *inbox]()
		g.Add("a", "Alice", &inbox{})
		g.Add("b", "Bob", &inbox{})

		entries := g.All()
		require.Len(t, entries, 2)
		keys := []string{entries[0].Key, entries[1].Key}
		sort.Strings(keys)
		assert.Equal(t, []string{"a", "b"}, keys)
	})

	t.Run("enumeration is safe under concurrent mutation", func(t *testing.T) {
		t.Parallel()

		g := broadcast.NewGroup[int, int, *inbox]()
		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
					g.Add(i%100, i, &inbox{})
					g.Remove((i + 50) % 100)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = g.All()
					_ = g.Len()
				}
			}
		}()
		time.Sleep(100 * time.Millisecond)
		close(stop)
		wg.Wait()
	})
}

func TestBroadcastExcept(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	push := func(ctx context.Context, e broadcast.Entry[string, string, *inbox]) error {
		e.Subscriptions.push("msg")
		return nil
	}

	t.Run("excluded subscriber receives nothing", func(t *testing.T) {
		t.Parallel()

		g := broadcast.NewGroup[string, string, *inbox]()
		a, b, c := &inbox{}, &inbox{}, &inbox{}
		g.Add("a", "Alice", a)
		g.Add("b", "Bob", b)
		g.Add("c", "Carol", c)

		require.NoError(t, g.BroadcastExcept(ctx, "a", push))

		assert.Empty(t, a.all())
		assert.Equal(t, []string{"msg"}, b.all())
		assert.Equal(t, []string{"msg"}, c.all())
	})

	t.Run("one failing target does not stop the others", func(t *testing.T) {
		t.Parallel()

		g := broadcast.NewGroup[string, string, *inbox]()
		a, b, c := &inbox{}, &inbox{}, &inbox{}
		g.Add("a", "Alice", a)
		g.Add("b", "Bob", b)
		g.Add("c", "Carol", c)

		wantErr := errors.New("dead stream")
		err := g.BroadcastExcept(ctx, "", func(ctx context.Context, e broadcast.Entry[string, string, *inbox]) error {
			if e.Key == "b" {
				return wantErr
			}
			e.Subscriptions.push("msg")
			return nil
		})

		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, []string{"msg"}, a.all())
		assert.Empty(t, b.all())
		assert.Equal(t, []string{"msg"}, c.all())
	})

	t.Run("empty group broadcasts to nobody", func(t *testing.T) {
		t.Parallel()

		g := broadcast.NewGroup[string, string, *inbox]()
		require.NoError(t, g.BroadcastExcept(ctx, "anyone", push))
	})
}

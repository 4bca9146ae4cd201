package connection_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamkit/core/connection"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("register and get", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()

		conn := registry.Register("conn-1")
		require.NotNil(t, conn)
		assert.Equal(t, "conn-1", conn.ID())

		got, err := registry.Get("conn-1")
		require.NoError(t, err)
		assert.Same(t, conn, got)
	})

	t.Run("get unknown id fails with not found", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()

		_, err := registry.Get("nope")
		require.ErrorIs(t, err, connection.ErrNotFound)
	})

	t.Run("try get never fails", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()

		conn, ok := registry.TryGet("nope")
		assert.False(t, ok)
		assert.Nil(t, conn)

		registry.Register("conn-1")
		conn, ok = registry.TryGet("conn-1")
		assert.True(t, ok)
		require.NotNil(t, conn)
	})

	t.Run("register overwrites and closes previous entry", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()

		first := registry.Register("conn-1")
		second := registry.Register("conn-1")
		require.NotSame(t, first, second)

		got, err := registry.Get("conn-1")
		require.NoError(t, err)
		assert.Same(t, second, got)

		select {
		case <-first.Done():
		case <-time.After(time.Second):
			t.Fatal("displaced connection was not closed")
		}
	})

	t.Run("unregister closes and removes", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()

		conn := registry.Register("conn-1")
		registry.Unregister("conn-1")

		assert.True(t, conn.Closed())
		_, ok := registry.TryGet("conn-1")
		assert.False(t, ok)

		// Unknown id is a no-op.
		registry.Unregister("conn-1")
	})

	t.Run("len tracks live connections", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()

		assert.Equal(t, 0, registry.Len())
		registry.Register("a")
		registry.Register("b")
		assert.Equal(t, 2, registry.Len())
		registry.Unregister("a")
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("close tears down every connection", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		a := registry.Register("a")
		b := registry.Register("b")

		registry.Close()

		assert.True(t, a.Closed())
		assert.True(t, b.Closed())
		assert.Equal(t, 0, registry.Len())
	})
}

func TestConnectionClose(t *testing.T) {
	t.Parallel()

	t.Run("close fires signal exactly once", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()
		conn := registry.Register("conn-1")

		var calls atomic.Int32
		conn.OnClose(func() { calls.Add(1) })

		conn.Close()
		conn.Close()
		conn.Close()

		assert.Equal(t, int32(1), calls.Load())
		assert.True(t, conn.Closed())
		require.Error(t, conn.Context().Err())
	})

	t.Run("concurrent close is safe", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()
		conn := registry.Register("conn-1")

		var calls atomic.Int32
		conn.OnClose(func() { calls.Add(1) })

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				conn.Close()
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("all callbacks run on close", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()
		conn := registry.Register("conn-1")

		var calls atomic.Int32
		for i := 0; i < 5; i++ {
			conn.OnClose(func() { calls.Add(1) })
		}
		conn.Close()

		assert.Equal(t, int32(5), calls.Load())
	})

	t.Run("panicking callback does not stop the others", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()
		conn := registry.Register("conn-1")

		var calls atomic.Int32
		conn.OnClose(func() { panic("boom") })
		conn.OnClose(func() { calls.Add(1) })
		conn.OnClose(func() { calls.Add(1) })

		conn.Close()

		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("blocked callback only costs the cleanup timeout", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry(
			connection.WithCleanupTimeout(50 * time.Millisecond),
		)
		defer registry.Close()
		conn := registry.Register("conn-1")

		release := make(chan struct{})
		defer close(release)
		var calls atomic.Int32
		conn.OnClose(func() { <-release })
		conn.OnClose(func() { calls.Add(1) })

		start := time.Now()
		conn.Close()

		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("deregistered callback does not run", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()
		conn := registry.Register("conn-1")

		var calls atomic.Int32
		deregister := conn.OnClose(func() { calls.Add(1) })
		deregister()
		conn.Close()

		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("callback registered after close runs immediately", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()
		conn := registry.Register("conn-1")
		conn.Close()

		var called bool
		deregister := conn.OnClose(func() { called = true })
		assert.True(t, called)
		deregister() // no-op
	})
}

func TestBagKeys(t *testing.T) {
	t.Parallel()

	t.Run("set get delete", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()
		conn := registry.Register("conn-1")

		key := connection.NewKey[int]("counter")

		_, ok := key.Get(conn)
		assert.False(t, ok)

		key.Set(conn, 42)
		v, ok := key.Get(conn)
		require.True(t, ok)
		assert.Equal(t, 42, v)

		key.Delete(conn)
		_, ok = key.Get(conn)
		assert.False(t, ok)
	})

	t.Run("same name distinct keys never collide", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()
		conn := registry.Register("conn-1")

		k1 := connection.NewKey[string]("state")
		k2 := connection.NewKey[string]("state")

		k1.Set(conn, "one")
		k2.Set(conn, "two")

		v1, _ := k1.Get(conn)
		v2, _ := k2.Get(conn)
		assert.Equal(t, "one", v1)
		assert.Equal(t, "two", v2)
	})

	t.Run("get or set initializes exactly once", func(t *testing.T) {
		t.Parallel()

		registry := connection.NewRegistry()
		defer registry.Close()
		conn := registry.Register("conn-1")

		key := connection.NewKey[string]("lazy")
		var inits atomic.Int32

		var wg sync.WaitGroup
		results := make([]string, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = key.GetOrSet(conn, func() string {
					inits.Add(1)
					return "value"
				})
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), inits.Load())
		for _, r := range results {
			assert.Equal(t, "value", r)
		}
	})
}

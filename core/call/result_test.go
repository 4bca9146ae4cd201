package call_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	"github.com/dmitrymomot/streamkit/core/call"
)

// fakeRawCall is a scripted in-flight call.
type fakeRawCall struct {
	response []byte
	err      error
	header   metadata.MD
	trailer  metadata.MD

	finished  atomic.Bool
	cancelled atomic.Bool
	responses atomic.Int32
}

func (f *fakeRawCall) Response(ctx context.Context) ([]byte, error) {
	f.responses.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	f.finished.Store(true)
	return f.response, nil
}

func (f *fakeRawCall) Header(ctx context.Context) (metadata.MD, error) {
	return f.header, nil
}

func (f *fakeRawCall) Trailer() metadata.MD { return f.trailer }

func (f *fakeRawCall) Finished() bool { return f.finished.Load() }

func (f *fakeRawCall) Cancel() {
	if !f.finished.Load() {
		f.cancelled.Store(true)
	}
}

func TestValueResult(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	res := call.NewResult(42)
	defer res.Close()

	v, err := res.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	// Repeated awaits are stable.
	v, err = res.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	t.Run("metadata fails fast without a call", func(t *testing.T) {
		_, err := res.Header(ctx)
		require.ErrorIs(t, err, call.ErrNoCall)
		_, err = res.Trailer()
		require.ErrorIs(t, err, call.ErrNoCall)
	})
}

func TestPendingResult(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("source runs at most once", func(t *testing.T) {
		t.Parallel()

		var invocations atomic.Int32
		res := call.NewPendingResult(func(ctx context.Context) (string, error) {
			invocations.Add(1)
			return "hello", nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := res.Await(ctx)
				assert.NoError(t, err)
				assert.Equal(t, "hello", v)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), invocations.Load())
	})

	t.Run("error is memoized too", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("remote failed")
		var invocations atomic.Int32
		res := call.NewPendingResult(func(ctx context.Context) (string, error) {
			invocations.Add(1)
			return "", wantErr
		})

		_, err := res.Await(ctx)
		require.ErrorIs(t, err, wantErr)
		_, err = res.Await(ctx)
		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, int32(1), invocations.Load())
	})
}

func TestCallResult(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type payload struct {
		N int `json:"n"`
	}
	decode := func(data []byte) (payload, error) {
		var p payload
		err := json.Unmarshal(data, &p)
		return p, err
	}

	t.Run("decodes raw response once", func(t *testing.T) {
		t.Parallel()

		raw := &fakeRawCall{response: []byte(`{"n":7}`)}
		res := call.NewCallResult(raw, decode)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := res.Await(ctx)
				assert.NoError(t, err)
				assert.Equal(t, 7, v.N)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), raw.responses.Load())
	})

	t.Run("header available, trailer gated on completion", func(t *testing.T) {
		t.Parallel()

		raw := &fakeRawCall{
			response: []byte(`{"n":1}`),
			header:   metadata.Pairs("k", "v"),
			trailer:  metadata.Pairs("t", "v"),
		}
		res := call.NewCallResult(raw, decode)

		md, err := res.Header(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"v"}, md.Get("k"))

		_, err = res.Trailer()
		require.ErrorIs(t, err, call.ErrNotFinished)

		_, err = res.Await(ctx)
		require.NoError(t, err)

		md, err = res.Trailer()
		require.NoError(t, err)
		assert.Equal(t, []string{"v"}, md.Get("t"))
	})

	t.Run("close cancels an in-flight call", func(t *testing.T) {
		t.Parallel()

		raw := &fakeRawCall{response: []byte(`{"n":1}`)}
		res := call.NewCallResult(raw, decode)

		res.Close()
		res.Close() // idempotent
		assert.True(t, raw.cancelled.Load())
	})

	t.Run("close after completion does not cancel", func(t *testing.T) {
		t.Parallel()

		raw := &fakeRawCall{response: []byte(`{"n":1}`)}
		res := call.NewCallResult(raw, decode)

		_, err := res.Await(ctx)
		require.NoError(t, err)

		res.Close()
		assert.False(t, raw.cancelled.Load())
	})

	t.Run("response error propagates without decode", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("transport broke")
		raw := &fakeRawCall{err: wantErr}
		res := call.NewCallResult(raw, decode)

		_, err := res.Await(ctx)
		require.ErrorIs(t, err, wantErr)
	})
}

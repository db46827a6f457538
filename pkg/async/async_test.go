package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zphere-app/tenantdb/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("successful computation", func(t *testing.T) {
		t.Parallel()

		fut := async.Async(context.Background(), 21, func(ctx context.Context, n int) (int, error) {
			return n * 2, nil
		})

		result, err := fut.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, result)
		assert.True(t, fut.IsComplete())
	})

	t.Run("error propagates to all waiters", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("boom")
		fut := async.Async(context.Background(), "x", func(ctx context.Context, _ string) (string, error) {
			return "", wantErr
		})

		for range 3 {
			_, err := fut.Await()
			assert.ErrorIs(t, err, wantErr)
		}
	})

	t.Run("pre-canceled context short-circuits", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var called atomic.Bool
		fut := async.Async(ctx, 0, func(ctx context.Context, _ int) (int, error) {
			called.Store(true)
			return 0, nil
		})

		_, err := fut.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called.Load())
	})
}

func TestAwaitContext(t *testing.T) {
	t.Parallel()

	t.Run("cancellation abandons the wait not the computation", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		fut := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (int, error) {
			<-release
			return 7, nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := fut.AwaitContext(ctx)
		assert.ErrorIs(t, err, context.Canceled)

		// A later waiter still gets the real result.
		close(release)
		result, err := fut.Await()
		require.NoError(t, err)
		assert.Equal(t, 7, result)
	})
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	fut := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (int, error) {
		time.Sleep(time.Second)
		return 0, nil
	})

	_, err := fut.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	double := func(ctx context.Context, n int) (int, error) { return n * 2, nil }
	futs := []*async.Future[int]{
		async.Async(context.Background(), 1, double),
		async.Async(context.Background(), 2, double),
		async.Async(context.Background(), 3, double),
	}

	results, err := async.WaitAll(futs...)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, results)
}

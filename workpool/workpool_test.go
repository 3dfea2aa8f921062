package workpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ILGurin/spp-course-work/observability/logger"
	"github.com/ILGurin/spp-course-work/workpool"
)

func newPool(size int) *workpool.Pool {
	return workpool.New(size, workpool.WithLogger(logger.Nop()))
}

func TestSubmitReturnsResult(t *testing.T) {
	p := newPool(2)

	f := workpool.Submit(t.Context(), p, "double", func(context.Context) (int, error) {
		return 21 * 2, nil
	})

	v, err := f.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmitPropagatesError(t *testing.T) {
	p := newPool(1)
	boom := errors.New("boom")

	_, err := workpool.Submit(t.Context(), p, "fail", func(context.Context) (string, error) {
		return "", boom
	}).Await(t.Context())

	require.ErrorIs(t, err, boom)
}

func TestPanicBecomesError(t *testing.T) {
	p := newPool(1)

	_, err := workpool.Submit(t.Context(), p, "explode", func(context.Context) (int, error) {
		panic("kaboom")
	}).Await(t.Context())

	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, workpool.CodePanicRecovered))

	// The slot is released after a panic.
	v, err := workpool.Submit(t.Context(), p, "after", func(context.Context) (int, error) {
		return 1, nil
	}).Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestConcurrencyIsBounded(t *testing.T) {
	const size = 3
	p := newPool(size)

	var running, peak atomic.Int32
	futures := make([]*workpool.Future[struct{}], 0, 20)
	for range 20 {
		futures = append(futures, workpool.Submit(t.Context(), p, "sleep", func(context.Context) (struct{}, error) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return struct{}{}, nil
		}))
	}

	for _, f := range futures {
		_, err := f.Await(t.Context())
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, peak.Load(), int32(size))
	assert.Positive(t, peak.Load())
}

func TestSubmitDoesNotBlockCaller(t *testing.T) {
	p := newPool(1)
	release := make(chan struct{})

	blocker := workpool.Submit(t.Context(), p, "block", func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	submitted := make(chan *workpool.Future[int])
	go func() {
		submitted <- workpool.Submit(t.Context(), p, "queued", func(context.Context) (int, error) { return 2, nil })
	}()

	var queued *workpool.Future[int]
	select {
	case queued = <-submitted:
	case <-time.After(time.Second):
		t.Fatal("submit blocked while the pool was full")
	}

	close(release)
	v, err := blocker.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = queued.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestQueuedTaskHonoursCancellation(t *testing.T) {
	p := newPool(1)
	release := make(chan struct{})
	defer close(release)

	_ = workpool.Submit(t.Context(), p, "block", func(context.Context) (int, error) {
		<-release
		return 0, nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	var ran atomic.Bool
	f := workpool.Submit(ctx, p, "never", func(context.Context) (int, error) {
		ran.Store(true)
		return 0, nil
	})
	cancel()

	_, err := f.Await(t.Context())
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran.Load())
}

func TestAwaitGivesUpWithContext(t *testing.T) {
	p := newPool(1)
	release := make(chan struct{})
	defer close(release)

	f := workpool.Submit(t.Context(), p, "slow", func(context.Context) (int, error) {
		<-release
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClose(t *testing.T) {
	p := newPool(2)
	var wg sync.WaitGroup
	wg.Add(1)

	f := workpool.Submit(t.Context(), p, "work", func(context.Context) (int, error) {
		wg.Wait()
		return 7, nil
	})
	wg.Done()

	require.NoError(t, p.Close(t.Context()))

	v, err := f.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = workpool.Submit(t.Context(), p, "late", func(context.Context) (int, error) {
		return 0, nil
	}).Await(t.Context())
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, workpool.CodePoolClosed))
}

func TestCloseRacingSubmit(t *testing.T) {
	for range 200 {
		p := newPool(2)
		start := make(chan struct{})

		var (
			wg       sync.WaitGroup
			accepted atomic.Int32
			finished atomic.Int32
		)
		for range 4 {
			wg.Go(func() {
				<-start
				_, err := workpool.Submit(t.Context(), p, "racer", func(context.Context) (int, error) {
					finished.Add(1)
					return 0, nil
				}).Await(t.Context())
				if err == nil {
					accepted.Add(1)
					return
				}
				assert.True(t, errx.IsCodeIn(err, workpool.CodePoolClosed))
			})
		}

		close(start)
		require.NoError(t, p.Close(t.Context()))
		// Every task accepted before Close returned has run to completion.
		ranAtClose := finished.Load()
		wg.Wait()

		assert.Equal(t, accepted.Load(), finished.Load())
		assert.Equal(t, ranAtClose, finished.Load())
	}
}

package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	pool := newWorkerPool(context.Background(), 2)
	var count int32
	for i := 0; i < 10; i++ {
		pool.Go(func(context.Context) error {
			atomic.AddInt32(&count, 1)
			return nil
		})
	}
	require.NoError(t, pool.Wait())
	assert.EqualValues(t, 10, count)
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := newWorkerPool(context.Background(), 1)
	var running, maxRunning int32
	for i := 0; i < 5; i++ {
		pool.Go(func(context.Context) error {
			cur := atomic.AddInt32(&running, 1)
			defer atomic.AddInt32(&running, -1)
			for {
				m := atomic.LoadInt32(&maxRunning)
				if cur <= m || atomic.CompareAndSwapInt32(&maxRunning, m, cur) {
					break
				}
			}
			return nil
		})
	}
	require.NoError(t, pool.Wait())
	assert.EqualValues(t, 1, maxRunning)
}

func TestWorkerPoolPropagatesFirstError(t *testing.T) {
	pool := newWorkerPool(context.Background(), 4)
	sentinel := errors.New("boom")
	pool.Go(func(context.Context) error { return sentinel })
	pool.Go(func(context.Context) error { return nil })
	err := pool.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

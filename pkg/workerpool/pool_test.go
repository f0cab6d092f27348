package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertlab/pkg/workerpool"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := workerpool.New(4, nil)
	var count int32
	tasks := make([]workerpool.Task, 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			atomic.AddInt32(&count, 1)
			return nil
		}
	}
	require.NoError(t, pool.Run(context.Background(), tasks))
	assert.EqualValues(t, 10, count)
}

func TestPoolPropagatesFirstError(t *testing.T) {
	pool := workerpool.New(2, nil)
	boom := errors.New("boom")
	tasks := []workerpool.Task{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	err := pool.Run(context.Background(), tasks)
	require.Error(t, err)
}

func TestPoolRespectsCancellation(t *testing.T) {
	pool := workerpool.New(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tasks := []workerpool.Task{
		func(ctx context.Context) error { return ctx.Err() },
	}
	err := pool.Run(ctx, tasks)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBudgetParksInsteadOfFailing(t *testing.T) {
	budget := workerpool.NewBudget(1000, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, budget.Wait(ctx))
	require.NoError(t, budget.Wait(ctx))
}

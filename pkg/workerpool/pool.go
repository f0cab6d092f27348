// Package workerpool is the bounded concurrency pool (C9): it runs a
// fixed number of workers over a stream of tasks, all sharing one rate
// limit budget for the external market-data API, and unwinds cleanly on
// context cancellation.
//
// Generalized from the reference trading backend's
// cmd/llm/market_ingestor.go per-symbol ingestion loop (ticker-driven,
// context-aware sleeps, cancellation-aware error suppression) into a
// reusable pool built on golang.org/x/sync/errgroup.
package workerpool

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Budget is a shared rate limit across every worker in a Pool. A worker
// that calls Wait parks until budget is available rather than failing,
// matching the "workers park rather than fail" requirement for the
// external API call budget.
type Budget struct {
	limiter *rate.Limiter
}

// NewBudget creates a Budget allowing rps requests per second with the
// given burst size.
func NewBudget(rps float64, burst int) *Budget {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Budget{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the budget has capacity for one request, or ctx is
// cancelled.
func (b *Budget) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}

// Task is one unit of work submitted to a Pool.
type Task func(ctx context.Context) error

// Pool runs tasks with bounded concurrency, propagating the first error
// and cancelling the rest, via errgroup.Group.SetLimit.
type Pool struct {
	concurrency int
	budget      *Budget
}

// New creates a Pool with the given worker concurrency and shared
// budget. budget may be nil if the tasks don't call an external API.
func New(concurrency int, budget *Budget) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{concurrency: concurrency, budget: budget}
}

// Run submits tasks and blocks until all have completed or ctx is
// cancelled / a task returns an error. It returns the first error
// encountered, matching errgroup's first-error-wins semantics.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, task := range tasks {
		task := task
		idx := i
		g.Go(func() error {
			if p.budget != nil {
				if err := p.budget.Wait(gctx); err != nil {
					return err
				}
			}
			if err := task(gctx); err != nil {
				logx.WithContext(gctx).Errorf("workerpool: task %d failed: %v", idx, err)
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// workerPool bounds concurrent batch processing to n workers using a
// weighted semaphore to cap admission plus an errgroup to collect the first
// error and cancel the rest. When n is 1, tasks still run through the same
// machinery so serialized mode (Config.Parallel == false) shares one code
// path with the concurrent one instead of branching into a second
// implementation.
type workerPool struct {
	sem *semaphore.Weighted
	grp *errgroup.Group
	ctx context.Context
}

func newWorkerPool(ctx context.Context, n int) *workerPool {
	grp, grpCtx := errgroup.WithContext(ctx)
	return &workerPool{sem: semaphore.NewWeighted(int64(n)), grp: grp, ctx: grpCtx}
}

// Go schedules fn to run once a slot is available. Scheduling blocks until
// a slot frees or the pool's context is cancelled.
func (p *workerPool) Go(fn func(ctx context.Context) error) {
	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		p.grp.Go(func() error { return err })
		return
	}
	p.grp.Go(func() error {
		defer p.sem.Release(1)
		return fn(p.ctx)
	})
}

// Wait blocks until every scheduled task has completed, returning the
// first error any of them returned.
func (p *workerPool) Wait() error {
	return p.grp.Wait()
}

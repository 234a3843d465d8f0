package dispatch

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of concurrently running units of work. Tasks never
// communicate with each other; the pool only limits parallelism and tracks
// scattered tasks for shutdown draining.
type Pool struct {
	workers int
	sem     chan struct{}
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given worker count, defaulting to
// runtime.NumCPU() when workers <= 0.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers: workers,
		sem:     make(chan struct{}, workers),
	}
}

// Workers returns the pool's concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// Drain blocks until every scattered task has finished. Intended for process
// shutdown; it is not a result-collection mechanism.
func (p *Pool) Drain() { p.wg.Wait() }

// MapCollect runs fn over items on the pool and blocks until all tasks return.
// results[i] and errs[i] always correspond to items[i], regardless of
// completion order. A failing item fills its error slot and never disturbs
// sibling items; only context cancellation aborts the map as a whole.
func MapCollect[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) (R, error)) ([]R, []error, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case p.sem <- struct{}{}:
			}
			defer func() { <-p.sem }()

			// The select picks arbitrarily when both cases are ready, so a
			// canceled context must be re-checked after acquiring a slot.
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i], errs[i] = fn(gctx, items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, errs, nil
}

// Scatter submits one fire-and-forget task per item and returns immediately.
// The caller never retrieves per-task results: each task's only externally
// observable effect is what it writes under its own collision-free output
// path, and a failed task is simply an absent artifact. Use Pool.Drain to wait
// for completion at shutdown.
func Scatter[T any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T)) {
	for i := range items {
		p.wg.Add(1)
		go func(item T) {
			defer p.wg.Done()
			select {
			case <-ctx.Done():
				return
			case p.sem <- struct{}{}:
			}
			defer func() { <-p.sem }()

			fn(ctx, item)
		}(items[i])
	}
}

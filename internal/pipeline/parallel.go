package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// runIndexed runs fn for every index in [0, n) across at most jobs
// goroutines and waits for all of them. Each index writes only its own
// result slot, so callers need no locking; the first error cancels the
// rest.
func runIndexed(ctx context.Context, jobs, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, n))
	for i := range n {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return fn(i)
		})
	}
	return g.Wait()
}

package kvstore

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// workers is a bounded pool of goroutines for blocking filesystem/database
// calls, sized when the KV leaf is initialized. Results come back to the
// caller as Do's ordinary return value.
type workers struct {
	sem chan struct{}
}

func newWorkers(width int) *workers {
	if width <= 0 {
		width = 16
	}
	return &workers{sem: make(chan struct{}, width)}
}

// Do runs fn on a worker goroutine and blocks the caller (a dispatcher
// goroutine, never a real OS thread the whole process depends on) until it
// completes, returning fn's result. No KV file op calls Do: every handler
// performs its bbolt and host-filesystem calls directly on the goroutine
// that invoked it.
func (w *workers) Do(ctx context.Context, fn func() error) error {
	w.sem <- struct{}{}
	defer func() { <-w.sem }()

	g, _ := errgroup.WithContext(ctx)
	g.Go(fn)
	return g.Wait()
}

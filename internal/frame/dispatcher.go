package frame

import (
	"context"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Dispatcher is the bounded goroutine pool standing in for a
// single-threaded cooperative event dispatcher. Translator handlers
// submitted here run concurrently, but the pool's width is capped so the
// system still behaves like "a" dispatcher rather than an unbounded
// thundering herd; blocking work (disk/DB I/O) is expected to be pushed
// further out to a translator-owned worker pool (see internal/kvstore),
// not performed directly on a Dispatcher goroutine.
type Dispatcher struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	log    *logrus.Logger
	cancel context.CancelFunc
}

// NewDispatcher builds a dispatcher with the given width; width <= 0 picks
// a default proportional to GOMAXPROCS.
func NewDispatcher(log *logrus.Logger, width int) *Dispatcher {
	if width <= 0 {
		width = runtime.GOMAXPROCS(0) * 4
		if width < 4 {
			width = 4
		}
	}
	_, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sem:    make(chan struct{}, width),
		log:    log,
		cancel: cancel,
	}
}

// Submit runs fn on the dispatcher, blocking only long enough to acquire a
// slot — it never blocks waiting for fn itself, so suspension happens at
// wind boundaries, not inside Submit.
func (d *Dispatcher) Submit(fn func()) {
	d.wg.Add(1)
	d.sem <- struct{}{}
	go func() {
		defer d.wg.Done()
		defer func() { <-d.sem }()
		defer func() {
			if r := recover(); r != nil {
				d.log.WithField("panic", r).Error("dispatcher: recovered handler panic")
			}
		}()
		fn()
	}()
}

// Run executes a batch of tasks to completion as a group bounded by the
// dispatcher's width, for translators that need a barrier across several
// concurrent children. It returns the first error any task reports.
func (d *Dispatcher) Run(tasks ...func() error) error {
	g := new(errgroup.Group)
	g.SetLimit(cap(d.sem))
	for _, t := range tasks {
		t := t
		g.Go(t)
	}
	return g.Wait()
}

// Stop waits for in-flight Submit calls to finish and releases resources.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
}

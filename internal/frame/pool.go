package frame

import "sync"

// Pool caches frame allocations per context. The mutex protects only
// allocation bookkeeping and the allFrames diagnostic list — it must never
// be held across user (translator handler) code.
type Pool struct {
	mu        sync.Mutex
	allFrames map[*Frame]struct{}
	free      sync.Pool
}

// NewPool constructs an empty frame pool.
func NewPool() *Pool {
	return &Pool{
		allFrames: make(map[*Frame]struct{}),
		free: sync.Pool{
			New: func() any { return new(Frame) },
		},
	}
}

// Get allocates (or reuses) a frame and tracks it in the diagnostic set.
func (p *Pool) Get() *Frame {
	f := p.free.Get().(*Frame)
	*f = Frame{}
	p.mu.Lock()
	p.allFrames[f] = struct{}{}
	p.mu.Unlock()
	return f
}

// Put releases a frame back to the pool once it has fully unwound.
func (p *Pool) Put(f *Frame) {
	p.mu.Lock()
	delete(p.allFrames, f)
	p.mu.Unlock()
	p.free.Put(f)
}

// Live returns the number of frames currently tracked, used by tests to
// assert the wind/unwind invariant: the multiset of live frames returns to
// its pre-operation state after any wind/unwind sequence completes.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.allFrames)
}

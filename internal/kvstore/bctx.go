package kvstore

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.etcd.io/bbolt"
)

// bctx is the per-directory context cached by the table: an absolute host
// path, a lazily-opened database handle, and a ref count. Invariant (iv):
// refcount > 0 means the bctx lives in the table's active map; refcount ==
// 0 means it lives on the LRU list; the table mutex serializes every
// transition between the two.
type bctx struct {
	path string

	mu sync.Mutex // protects db only
	db *bbolt.DB

	refcount int
}

func newBctx(path string) *bctx {
	return &bctx{path: path}
}

// dbPath returns the embedded store file this bctx owns.
func (b *bctx) dbPath() string {
	return b.path + "/" + dbFileName
}

// table maps directory path -> bctx, sized by a hash list count configured
// at load time (the lru-limit option), with zero-ref contexts parked on an
// LRU list whose head eviction closes the database handle before the node
// is recycled.
type table struct {
	mu     sync.Mutex
	active map[string]*bctx
	idle   *lru.Cache[string, *bctx]
}

func newTable(lruLimit int) *table {
	if lruLimit <= 0 {
		lruLimit = 128
	}
	t := &table{active: make(map[string]*bctx)}
	idle, err := lru.NewWithEvict[string, *bctx](lruLimit, func(path string, b *bctx) {
		// LRU eviction of a bctx whose database is open must close the
		// handle before the bctx is removed.
		b.mu.Lock()
		if b.db != nil {
			_ = b.db.Close()
			b.db = nil
		}
		b.mu.Unlock()
	})
	if err != nil {
		// golang-lru only errors on size <= 0, already guarded above.
		panic(err)
	}
	t.idle = idle
	return t
}

// get returns a refed bctx for path, creating one if necessary. Invariant
// (iv)'s active/idle transition is entirely inside the table mutex.
func (t *table) get(path string) *bctx {
	t.mu.Lock()
	defer t.mu.Unlock()

	if b, ok := t.active[path]; ok {
		b.refcount++
		return b
	}
	if b, ok := t.idle.Get(path); ok {
		t.idle.Remove(path)
		b.refcount = 1
		t.active[path] = b
		return b
	}
	b := newBctx(path)
	b.refcount = 1
	t.active[path] = b
	return b
}

// release drops a reference; at zero it moves the bctx from active to idle.
func (t *table) release(b *bctx) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b.refcount--
	if b.refcount < 0 {
		panic("kvstore: bctx released without matching ref")
	}
	if b.refcount == 0 {
		delete(t.active, b.path)
		t.idle.Add(b.path, b)
	}
}

// snapshot is a diagnostic helper for tests: reports whether path is
// currently active (ref > 0), idle (ref == 0, on the LRU), or absent.
func (t *table) snapshot(path string) (active, idle bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, active = t.active[path]
	_, idle = t.idle.Peek(path)
	return
}

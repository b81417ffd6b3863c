// Package frame implements the asynchronous request/response plumbing that
// propagates a filesystem operation downward through translators and a
// correlated reply upward: the process-wide Context, the frame pool, and
// the wind/unwind primitives.
package frame

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/volgraph/volgraph/internal/xlator"
)

// Context is the process-wide state singleton: graph root, event-dispatch
// pool, frame pool, parsed configuration, and open handles for the pid and
// spec files. Per REDESIGN FLAGS, this is an explicit value threaded
// through translator construction, not a package-level global — the only
// legitimate global is the Logger sink used before a Context exists.
type Context struct {
	Logger *logrus.Logger

	mu   sync.RWMutex
	root xlator.Translator
	pool *Pool

	Dispatcher *Dispatcher

	PidFile  *os.File
	SpecFile *os.File

	GlobalOptions map[string]string // command-line xlator-option overrides, "vol.key" -> value
}

// NewContext builds a Context with a ready frame pool and dispatcher, but
// no graph root yet (set by the graph loader once the tree is built).
func NewContext(logger *logrus.Logger) *Context {
	return &Context{
		Logger:        logger,
		pool:          NewPool(),
		Dispatcher:    NewDispatcher(logger, 0),
		GlobalOptions: make(map[string]string),
	}
}

// Root returns the graph root translator, or nil before the graph is built.
func (c *Context) Root() xlator.Translator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.root
}

// SetRoot installs the graph root. Called once by the graph loader.
func (c *Context) SetRoot(root xlator.Translator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.root = root
}

// Pool returns the context's frame pool.
func (c *Context) Pool() *Pool { return c.pool }

// Close closes the context's open pid and spec file handles, best-effort,
// and stops the dispatcher. It does not remove the pid file.
func (c *Context) Close() {
	if c.PidFile != nil {
		_ = c.PidFile.Close()
	}
	if c.SpecFile != nil {
		_ = c.SpecFile.Close()
	}
	c.Dispatcher.Stop()
}

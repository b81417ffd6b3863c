// Package trace implements a trivial single-child pass-through translator,
// used in tests and documented as a minimal example of a third translator
// type beyond the storage leaf and the protocol client.
package trace

import (
	"github.com/sirupsen/logrus"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/graph"
	"github.com/volgraph/volgraph/internal/xlator"
)

const TypeName = "debug/trace"

func init() {
	xlator.Register(TypeName, New)
}

// Trace forwards to its sole child the ops xlator.FillDefaults passes
// through, and logs each notify event at DEBUG. Individual ops are not
// logged.
type Trace struct {
	xlator.Base
	fops *xlator.FileOps
	mops *xlator.ManagementOps
}

// New constructs a Trace translator.
func New(name string, opts *dict.Dict, logger *logrus.Logger) (xlator.Translator, error) {
	t := &Trace{Base: xlator.NewBase(name, TypeName, logger)}
	t.Opts = opts
	t.fops = &xlator.FileOps{}
	t.mops = &xlator.ManagementOps{}
	return t, nil
}

func (t *Trace) FOps() *xlator.FileOps      { return t.fops }
func (t *Trace) MOps() *xlator.ManagementOps { return t.mops }

func (t *Trace) Init() error {
	xlator.FillDefaults(t, t.fops)
	return nil
}

func (t *Trace) Notify(event xlator.Event, data any) error {
	t.Log().WithField("event", event.String()).Debug("trace: notify")
	return graph.DefaultNotify(t, event, data)
}

func (t *Trace) Fini() error { return nil }

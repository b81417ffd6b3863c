// Package xlator defines the translator interface shared by every node in
// the graph: the abstract operation table, parent/child/sibling links, the
// per-instance option bag, and the type registry used by the graph loader.
package xlator

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/volgraph/volgraph/internal/dict"
)

// Event is an upward graph notification.
type Event int

const (
	ChildUp Event = iota
	ChildDown
	ParentUp
	ParentDown
)

func (e Event) String() string {
	switch e {
	case ChildUp:
		return "CHILD_UP"
	case ChildDown:
		return "CHILD_DOWN"
	case ParentUp:
		return "PARENT_UP"
	case ParentDown:
		return "PARENT_DOWN"
	default:
		return "UNKNOWN_EVENT"
	}
}

// Translator is the shared capability set implemented by every node in the
// graph: a translator either synthesizes a result, forwards to a child, or
// terminates at a storage backend.
type Translator interface {
	Name() string
	Type() string
	Options() *dict.Dict

	Parent() Translator
	SetParent(Translator)
	FirstChild() Translator
	SetFirstChild(Translator)
	Next() Translator
	SetNext(Translator)
	Prev() Translator
	SetPrev(Translator)

	FOps() *FileOps
	MOps() *ManagementOps

	Init() error
	Ready() bool
	SetReady(bool)
	Notify(event Event, data any) error
	Fini() error

	Log() *logrus.Entry
}

// Base is the embeddable common state every concrete translator shares; it
// implements every Translator method except Init/Notify/Fini/FOps/MOps,
// which concrete types must provide themselves.
type Base struct {
	NameVal string
	TypeVal string
	Opts    *dict.Dict

	parent     Translator
	firstChild Translator
	lastChild  Translator
	next       Translator
	prev       Translator
	ready      bool
	logger     *logrus.Entry
}

// NewBase constructs a Base with an empty options dict and a logger scoped
// to this translator's name/type.
func NewBase(name, typ string, logger *logrus.Logger) Base {
	return Base{
		NameVal: name,
		TypeVal: typ,
		Opts:    dict.New(),
		logger:  logger.WithFields(logrus.Fields{"xlator": name, "type": typ}),
	}
}

func (b *Base) Name() string        { return b.NameVal }
func (b *Base) Type() string        { return b.TypeVal }
func (b *Base) Options() *dict.Dict { return b.Opts }
func (b *Base) Log() *logrus.Entry  { return b.logger }

func (b *Base) Parent() Translator         { return b.parent }
func (b *Base) SetParent(p Translator)     { b.parent = p }
func (b *Base) FirstChild() Translator     { return b.firstChild }
func (b *Base) SetFirstChild(c Translator) { b.firstChild = c }
func (b *Base) Next() Translator           { return b.next }
func (b *Base) SetNext(t Translator)       { b.next = t }
func (b *Base) Prev() Translator           { return b.prev }
func (b *Base) SetPrev(t Translator)       { b.prev = t }
func (b *Base) Ready() bool                { return b.ready }
func (b *Base) SetReady(v bool)            { b.ready = v }

// Link appends child to parent's child list, wiring parent/sibling pointers
// both ways. Used by the graph loader, and by bootstrap when it inserts the
// FUSE top, so translator implementations never need to manage their own
// topology.
func Link(parent, child Translator) {
	child.SetParent(parent)
	if parent.FirstChild() == nil {
		parent.SetFirstChild(child)
		return
	}
	last := parent.FirstChild()
	for last.Next() != nil {
		last = last.Next()
	}
	last.SetNext(child)
	child.SetPrev(last)
}

// Children returns the child list as a slice, snapshotting the sibling
// chain (invariant (i): a DAG of single-parent-owned children).
func Children(t Translator) []Translator {
	var out []Translator
	for c := t.FirstChild(); c != nil; c = c.Next() {
		out = append(out, c)
	}
	return out
}

// SoleChild returns the translator's only child, erroring if there isn't
// exactly one — used by default-passthrough handlers.
func SoleChild(t Translator) (Translator, error) {
	children := Children(t)
	if len(children) != 1 {
		return nil, errors.Errorf("xlator %q: expected exactly one child, got %d", t.Name(), len(children))
	}
	return children[0], nil
}

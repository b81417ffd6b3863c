package graph

import (
	"github.com/volgraph/volgraph/internal/xlator"
)

// PropagateParentUp delivers notify(root, PARENT_UP, root) once InitGraph
// has fully succeeded. The root's own Notify implementation is
// expected to call DefaultNotify (or replicate it) to push PARENT_UP
// further down the tree and report CHILD_UP back upward.
func PropagateParentUp(root xlator.Translator) error {
	return root.Notify(xlator.ParentUp, root)
}

// DefaultNotify implements the default forwarding rule for translators that
// have no event-specific behavior of their own: on PARENT_UP, forward
// PARENT_UP to every child (the signal travels down toward the leaves);
// once ready — which, after a successful InitGraph, every translator
// already is — report CHILD_UP to its own parent (the acknowledgement
// travels back up). Translators with real notify logic call this for the
// parts of the contract they don't override.
func DefaultNotify(self xlator.Translator, event xlator.Event, data any) error {
	switch event {
	case xlator.ParentUp:
		for _, c := range xlator.Children(self) {
			if err := c.Notify(xlator.ParentUp, self); err != nil {
				return err
			}
		}
		return ForwardChildUp(self)
	case xlator.ChildUp, xlator.ChildDown, xlator.ParentDown:
		return nil
	default:
		return nil
	}
}

// ForwardChildUp reports CHILD_UP to self's parent, once self is ready. A
// translator with no parent (the graph top) has nothing to forward to.
func ForwardChildUp(self xlator.Translator) error {
	if !self.Ready() {
		return nil
	}
	if parent := self.Parent(); parent != nil {
		return parent.Notify(xlator.ChildUp, self)
	}
	return nil
}

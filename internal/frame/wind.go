package frame

import "github.com/volgraph/volgraph/internal/xlator"

// NewCallFrame allocates the first frame of a chain: the frame rooted at
// the graph's top translator, with no parent. External entry points (FUSE
// upcall, inbound RPC, internal timer) call this once per request.
func NewCallFrame(ctx *Context, root *Root, this xlator.Translator) *Frame {
	f := ctx.Pool().Get()
	f.Root = root
	f.This = this
	root.Leaf = f
	return f
}

// Wind records (parent, callback, target, op), allocates a child frame
// whose parent is parent, and schedules invoke to run on the dispatcher.
// invoke performs the actual op against target and returns the eventual
// Result; Wind arranges for Unwind to fire automatically with that result,
// which in turn fires cb on parent. Every Wind is eventually matched by
// exactly one Unwind on the same child frame — violating this is the one
// fatal invariant this package enforces at runtime (see Unwind).
func Wind(ctx *Context, parent *Frame, cb Callback, target xlator.Translator, op xlator.OpID, cookie any, invoke func() xlator.Result) *Frame {
	child := ctx.Pool().Get()
	child.Root = parent.Root
	child.This = target
	child.Parent = parent
	child.Cookie = cookie
	child.op = op
	child.callback = cb
	parent.Root.Leaf = child

	ctx.Dispatcher.Submit(func() {
		result := invoke()
		Unwind(ctx, child, result)
	})
	return child
}

// Unwind takes (child, result), pops the child frame, and invokes
// callback(parent, cookie, target, result). Calling Unwind twice on the
// same frame is an invariant violation and panics — that class of
// error aborts rather than degrading to an operation error.
func Unwind(ctx *Context, child *Frame, result xlator.Result) {
	if child.done {
		panic("frame: unwind called twice on the same frame")
	}
	child.done = true

	cb := child.callback
	parent := child.Parent
	cookie := child.Cookie
	this := child.This

	ctx.Pool().Put(child)

	if cb != nil {
		cb(parent, cookie, this, result)
	}
}

// Release returns a top-level call frame (one with no parent) to the pool
// once its chain has fully unwound. Frames created by Wind are released by
// Unwind automatically; only the frame handed back by NewCallFrame needs
// an explicit Release from the entry point that created it.
func Release(ctx *Context, f *Frame) {
	ctx.Pool().Put(f)
}

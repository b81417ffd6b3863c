package frame

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/volgraph/volgraph/internal/xlator"
)

// Root is the request-scoped root of one frame chain: created at an
// external entry point (FUSE upcall, inbound RPC, internal timer) and
// destroyed when the chain fully unwinds.
type Root struct {
	UID, GID uint32
	PID      int32

	Unique  uint64    // monotonic request id, used for cookie-matching/logs
	TraceID uuid.UUID // correlates log lines across the whole chain

	rspRefs int32
	Leaf    *Frame // the currently deepest (most recently wound) frame
}

var uniqueCounter uint64

func nextUnique() uint64 {
	return atomic.AddUint64(&uniqueCounter, 1)
}

// NewRoot allocates a new frame-chain root.
func NewRoot(uid, gid uint32, pid int32) *Root {
	return &Root{
		UID:     uid,
		GID:     gid,
		PID:     pid,
		Unique:  nextUnique(),
		TraceID: uuid.New(),
		rspRefs: 1,
	}
}

// Frame is one call frame: a translator-scoped record linking it to its
// caller. frame.This always equals the translator the handler is currently
// executing on; the chain of Parent frames mirrors the wind path
// (invariant (ii)).
type Frame struct {
	Root   *Root
	This   xlator.Translator
	Parent *Frame
	Local  any // owned by This; must be released before or during its callback
	Cookie any // disambiguates multiple children wound from the same parent

	op       xlator.OpID
	callback Callback
	done     bool // guards against double-unwind (fatal invariant)
}

// Callback fires on the parent frame when its child's unwind completes.
type Callback func(parent *Frame, cookie any, child xlator.Translator, result xlator.Result)

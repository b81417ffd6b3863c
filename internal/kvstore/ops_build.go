package kvstore

import (
	"sync"

	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// buildFileOps wires every handler this leaf implements directly plus
// explicit refusals for ops with no meaning for a KV record (link, rmelem,
// lk, fchown, fchmod). xlator.FillDefaults is
// called last so the remaining unconditional refusals (close/closedir/
// flush/access) only fall back to ENOTSUP where this leaf hasn't already
// supplied a real implementation.
func (k *KV) buildFileOps() *xlator.FileOps {
	ops := &xlator.FileOps{
		Lookup:      k.lookupOp,
		Stat:        k.statOp,
		Mknod:       k.mknodOp,
		Create:      k.createOp,
		Open:        k.openOp,
		Readv:       k.readvOp,
		Writev:      k.writevOp,
		Truncate:    k.truncateOp,
		Ftruncate:   k.ftruncateOp,
		Close:       k.closeOp,
		Unlink:      k.unlinkOp,
		Mkdir:       k.mkdirOp,
		Symlink:     k.symlinkOp,
		Readlink:    k.readlinkOp,
		Opendir:     k.opendirOp,
		Readdir:     k.readdirOp,
		Getdents:    k.readdirOp,
		Closedir:    k.closedirOp,
		Rename:      k.renameOp,
		Setxattr:    k.setxattrOp,
		Getxattr:    k.getxattrOp,
		Removexattr: k.removexattrOp,
		Access:      k.accessOp,
		Checksum:    k.checksumOp,
		Flush:       func(req *xlator.HandleRequest) xlator.Result { return xlator.Result{} },

		// Explicit refusals: a KV record has no hardlink count to bump, no
		// byte-range lock table, and chown/chmod-by-handle collapse to the
		// path-addressed Chown/Chmod this leaf also doesn't implement, so
		// refusing rather than silently no-opping is the honest answer.
		// Rmdir is refused rather than implemented because a host directory
		// may still own a live bctx and database file; recursive teardown
		// belongs to a higher translator that can coordinate it.
		Link:   refuseRename,
		Rmdir:  refuseRmdir,
		Rmelem: refusePath,
		Lk:     refuseHandle,
		Fchown: refuseChown,
		Fchmod: refuseChmod,
	}
	xlator.FillDefaults(k, ops)
	return ops
}

func refuseRename(req *xlator.RenameRequest) xlator.Result { return xlator.ErrResult(xlatorerr.ENOTSUP) }
func refuseChown(req *xlator.ChownRequest) xlator.Result   { return xlator.ErrResult(xlatorerr.ENOTSUP) }
func refuseChmod(req *xlator.ChmodRequest) xlator.Result   { return xlator.ErrResult(xlatorerr.ENOTSUP) }

// refuseRmdir returns EPERM rather than ENOTSUP: a directory can exist and
// rmdir has meaning, it is just not permitted at this leaf, since a host
// directory may still own a live bctx and database file and recursive
// teardown belongs to a higher translator that can coordinate it.
func refuseRmdir(req *xlator.PathRequest) xlator.Result { return xlator.ErrResult(xlatorerr.EPERM) }

// locks backs the management Lock/Unlock ops with a plain in-memory set;
// this leaf is the last translator in the stack so there is nothing below
// it to forward a lock request to, and leaves answer locks locally.
type lockTable struct {
	mu  sync.Mutex
	set map[string]struct{}
}

func (k *KV) buildManagementOps() *xlator.ManagementOps {
	locks := &lockTable{set: make(map[string]struct{})}
	return &xlator.ManagementOps{
		Stats: k.statsOp,
		Lock: func(name string) xlator.Result {
			locks.mu.Lock()
			defer locks.mu.Unlock()
			if _, held := locks.set[name]; held {
				return xlator.ErrResult(xlatorerr.EEXIST)
			}
			locks.set[name] = struct{}{}
			return xlator.Result{}
		},
		Unlock: func(name string) xlator.Result {
			locks.mu.Lock()
			defer locks.mu.Unlock()
			delete(locks.set, name)
			return xlator.Result{}
		},
		Checksum: k.checksumMop,
		Getspec:  func() xlator.Result { return xlator.ErrResult(xlatorerr.ENOTSUP) },
	}
}

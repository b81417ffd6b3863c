package kvstore

import (
	"sync/atomic"
	"syscall"

	"github.com/pkg/xattr"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// hostXattrSupported is flipped off the first time the host filesystem
// reports xattrs aren't supported, a one-way latch so every later call
// returns ENOTSUP straight away instead of retrying a syscall known to fail.
var hostXattrSupported int32 = 1

func xattrNotSupported(err error) bool {
	xerr, ok := err.(*xattr.Error)
	if !ok {
		return false
	}
	if xerr.Err == syscall.ENOTSUP || xerr.Err == syscall.EINVAL {
		atomic.StoreInt32(&hostXattrSupported, 0)
		return true
	}
	return false
}

// dirSetxattr/dirGetxattr/dirRemovexattr back xattr ops addressed at a
// directory, which has no KV record of its own to attach attributes to —
// this leaf's only real storage for a directory is the host filesystem
// entry itself.
func dirSetxattr(hostPath, name string, value []byte) xlator.Result {
	if atomic.LoadInt32(&hostXattrSupported) == 0 {
		return xlator.ErrResult(xlatorerr.ENOTSUP)
	}
	if err := xattr.Set(hostPath, name, value); err != nil {
		if xattrNotSupported(err) {
			return xlator.ErrResult(xlatorerr.ENOTSUP)
		}
		return xlator.ErrResult(errnoFor(err))
	}
	return xlator.Result{}
}

func dirGetxattr(hostPath, name string) xlator.Result {
	if atomic.LoadInt32(&hostXattrSupported) == 0 {
		return xlator.ErrResult(xlatorerr.ENOTSUP)
	}
	if name == "" {
		list, err := xattr.List(hostPath)
		if err != nil {
			if xattrNotSupported(err) {
				return xlator.Result{Dict: dict.New()}
			}
			return xlator.ErrResult(errnoFor(err))
		}
		d := dict.New()
		for _, key := range list {
			if v, err := xattr.Get(hostPath, key); err == nil {
				d.SetString(key, string(v))
			}
		}
		return xlator.Result{Dict: d}
	}
	val, err := xattr.Get(hostPath, name)
	if err != nil {
		if xattrNotSupported(err) {
			return xlator.ErrResult(xlatorerr.ENOTSUP)
		}
		return xlator.ErrResult(errnoFor(err))
	}
	return xlator.Result{Data: val}
}

func dirRemovexattr(hostPath, name string) xlator.Result {
	if atomic.LoadInt32(&hostXattrSupported) == 0 {
		return xlator.ErrResult(xlatorerr.ENOTSUP)
	}
	if err := xattr.Remove(hostPath, name); err != nil {
		if xattrNotSupported(err) {
			return xlator.ErrResult(xlatorerr.ENOTSUP)
		}
		return xlator.ErrResult(errnoFor(err))
	}
	return xlator.Result{}
}

package xlator

import "github.com/volgraph/volgraph/internal/xlatorerr"

// FillDefaults fills nil fields of ops with default handlers. When self
// has exactly one child at the time of the call, nil Lookup, Stat, Open,
// Readv, Writev, Opendir, Readdir, Mkdir, Mknod, Create, Unlink, Rename,
// Getxattr and Setxattr pass through to that child; otherwise they stay
// nil. Nil Close, Closedir, Flush and Access always get an ENOTSUP
// handler. Every other nil field is left nil.
func FillDefaults(self Translator, ops *FileOps) {
	passOrFail := func() bool {
		_, err := SoleChild(self)
		return err == nil
	}()

	if ops.Lookup == nil && passOrFail {
		ops.Lookup = func(req *LookupRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Lookup(req)
		}
	}
	if ops.Stat == nil && passOrFail {
		ops.Stat = func(req *PathRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Stat(req)
		}
	}
	if ops.Open == nil && passOrFail {
		ops.Open = func(req *OpenRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Open(req)
		}
	}
	if ops.Readv == nil && passOrFail {
		ops.Readv = func(req *IOVRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Readv(req)
		}
	}
	if ops.Writev == nil && passOrFail {
		ops.Writev = func(req *IOVRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Writev(req)
		}
	}
	if ops.Opendir == nil && passOrFail {
		ops.Opendir = func(req *PathRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Opendir(req)
		}
	}
	if ops.Readdir == nil && passOrFail {
		ops.Readdir = func(req *ReaddirRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Readdir(req)
		}
	}
	if ops.Mkdir == nil && passOrFail {
		ops.Mkdir = func(req *MkdirRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Mkdir(req)
		}
	}
	if ops.Mknod == nil && passOrFail {
		ops.Mknod = func(req *MknodRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Mknod(req)
		}
	}
	if ops.Create == nil && passOrFail {
		ops.Create = func(req *MknodRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Create(req)
		}
	}
	if ops.Unlink == nil && passOrFail {
		ops.Unlink = func(req *PathRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Unlink(req)
		}
	}
	if ops.Rename == nil && passOrFail {
		ops.Rename = func(req *RenameRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Rename(req)
		}
	}
	if ops.Getxattr == nil && passOrFail {
		ops.Getxattr = func(req *XattrRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Getxattr(req)
		}
	}
	if ops.Setxattr == nil && passOrFail {
		ops.Setxattr = func(req *XattrRequest) Result {
			child, _ := SoleChild(self)
			return child.FOps().Setxattr(req)
		}
	}

	// Explicit design refusals: these never fall through to a
	// child even when one exists; they answer ENOTSUP, they are not
	// pass-through candidates.
	failClose := func(req *HandleRequest) Result { return ErrResult(xlatorerr.ENOTSUP) }
	failPath := func(req *PathRequest) Result { return ErrResult(xlatorerr.ENOTSUP) }
	if ops.Close == nil {
		ops.Close = failClose
	}
	if ops.Closedir == nil {
		ops.Closedir = failClose
	}
	if ops.Flush == nil {
		ops.Flush = failClose
	}
	if ops.Access == nil {
		ops.Access = failPath
	}
}

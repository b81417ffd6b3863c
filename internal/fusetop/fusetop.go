// Package fusetop implements the FUSE top translator's contract with its
// single child: attribute/stat translation to and from
// github.com/hanwen/go-fuse/v2/fuse's vocabulary. There is no real kernel
// channel here — mounting a live /dev/fuse file descriptor is explicitly
// out of scope — so this package is exercised directly, the same way
// internal/kvstore's file ops are tested without a FUSE client in front of
// them.
package fusetop

import (
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/graph"
	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// TypeName is the translator type string resolved by the graph loader.
const TypeName = "mount/fuse"

func init() {
	xlator.Register(TypeName, New)
}

// Top wraps a single child translator, the volume graph's real root, and
// exposes fuse.Attr/fuse.Status shaped results instead of this codebase's
// own Stat/Errno vocabulary. bootstrap.Run inserts it above the loaded
// graph whenever a mount point argument is given.
type Top struct {
	xlator.Base

	fops *xlator.FileOps
	mops *xlator.ManagementOps
}

func New(name string, opts *dict.Dict, logger *logrus.Logger) (xlator.Translator, error) {
	t := &Top{Base: xlator.NewBase(name, TypeName, logger)}
	t.Opts = opts
	t.fops = &xlator.FileOps{}
	t.mops = &xlator.ManagementOps{}
	return t, nil
}

func (t *Top) FOps() *xlator.FileOps       { return t.fops }
func (t *Top) MOps() *xlator.ManagementOps { return t.mops }

func (t *Top) Init() error {
	xlator.FillDefaults(t, t.fops)
	return nil
}

func (t *Top) Notify(event xlator.Event, data any) error {
	return graph.DefaultNotify(t, event, data)
}

func (t *Top) Fini() error { return nil }

// GetAttr resolves path against the child and returns its attributes in
// FUSE's own Attr shape — the FUSE kernel loop itself stays out of scope,
// only the contract with its child is exercised here.
func (t *Top) GetAttr(path string) (*fuse.Attr, fuse.Status) {
	child, err := xlator.SoleChild(t)
	if err != nil {
		return nil, fuse.ENOSYS
	}
	res := child.FOps().Stat(&xlator.PathRequest{Path: path})
	if !res.OK() {
		return nil, toFuseStatus(res.Err)
	}
	return toFuseAttr(res.Stat), fuse.OK
}

// Open passes an open through to the child, returning an opaque handle the
// caller passes back to Read/Write/Release.
func (t *Top) Open(path string, flags int) (any, fuse.Status) {
	child, err := xlator.SoleChild(t)
	if err != nil {
		return nil, fuse.ENOSYS
	}
	res := child.FOps().Open(&xlator.OpenRequest{Path: path, Flags: flags})
	if !res.OK() {
		return nil, toFuseStatus(res.Err)
	}
	return res.Handle, fuse.OK
}

func (t *Top) Read(handle any, dest []byte, offset int64) (int, fuse.Status) {
	child, err := xlator.SoleChild(t)
	if err != nil {
		return 0, fuse.ENOSYS
	}
	res := child.FOps().Readv(&xlator.IOVRequest{Handle: handle, Offset: offset, Size: len(dest)})
	if !res.OK() {
		return 0, toFuseStatus(res.Err)
	}
	n := copy(dest, res.Data)
	return n, fuse.OK
}

func (t *Top) Write(handle any, data []byte, offset int64) (uint32, fuse.Status) {
	child, err := xlator.SoleChild(t)
	if err != nil {
		return 0, fuse.ENOSYS
	}
	res := child.FOps().Writev(&xlator.IOVRequest{Handle: handle, Offset: offset, Data: data})
	if !res.OK() {
		return 0, toFuseStatus(res.Err)
	}
	return uint32(res.Written), fuse.OK
}

func (t *Top) Readdir(path string) ([]fuse.DirEntry, fuse.Status) {
	child, err := xlator.SoleChild(t)
	if err != nil {
		return nil, fuse.ENOSYS
	}
	opened := child.FOps().Opendir(&xlator.PathRequest{Path: path})
	if !opened.OK() {
		return nil, toFuseStatus(opened.Err)
	}
	defer child.FOps().Closedir(&xlator.HandleRequest{Handle: opened.Handle})

	var out []fuse.DirEntry
	for {
		res := child.FOps().Readdir(&xlator.ReaddirRequest{Handle: opened.Handle, Size: 256})
		if !res.OK() {
			return out, toFuseStatus(res.Err)
		}
		for _, e := range res.Entries {
			mode := uint32(0)
			if e.Stat != nil {
				mode = e.Stat.Mode
			}
			out = append(out, fuse.DirEntry{Name: e.Name, Ino: e.Ino, Mode: mode})
		}
		if res.EOF {
			break
		}
	}
	return out, fuse.OK
}

func (t *Top) Release(handle any) {
	child, err := xlator.SoleChild(t)
	if err != nil {
		return
	}
	child.FOps().Close(&xlator.HandleRequest{Handle: handle})
}

func toFuseAttr(st *xlator.Stat) *fuse.Attr {
	if st == nil {
		return &fuse.Attr{}
	}
	return &fuse.Attr{
		Ino:   st.Ino,
		Size:  uint64(st.Size),
		Mode:  st.Mode,
		Nlink: st.Nlink,
		Uid:   st.UID,
		Gid:   st.GID,
		Atime: uint64(st.Atime),
		Mtime: uint64(st.Mtime),
		Ctime: uint64(st.Ctime),
	}
}

// toFuseStatus maps this codebase's errno vocabulary onto FUSE's own
// status codes.
func toFuseStatus(errno xlatorerr.Errno) fuse.Status {
	switch errno {
	case xlatorerr.Success:
		return fuse.OK
	case xlatorerr.ENOENT:
		return fuse.ENOENT
	case xlatorerr.EPERM:
		return fuse.EPERM
	case xlatorerr.EEXIST:
		return fuse.Status(17) // EEXIST, not exported as a named constant
	case xlatorerr.EISDIR:
		return fuse.Status(21) // EISDIR
	case xlatorerr.ENOTDIR:
		return fuse.Status(20) // ENOTDIR
	case xlatorerr.ENOTEMPTY:
		return fuse.Status(39) // ENOTEMPTY
	case xlatorerr.EINVAL:
		return fuse.EINVAL
	case xlatorerr.ENOTSUP:
		return fuse.ENOSYS
	default:
		return fuse.Status(5) // EIO
	}
}

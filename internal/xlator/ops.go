package xlator

import (
	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// OpID names one entry of the file-op vocabulary; Wind records it on the
// child frame for diagnostics.
type OpID string

const (
	OpLookup      OpID = "lookup"
	OpForget      OpID = "forget"
	OpStat        OpID = "stat"
	OpOpendir     OpID = "opendir"
	OpReaddir     OpID = "readdir"
	OpGetdents    OpID = "getdents"
	OpClosedir    OpID = "closedir"
	OpReadlink    OpID = "readlink"
	OpMknod       OpID = "mknod"
	OpMkdir       OpID = "mkdir"
	OpUnlink      OpID = "unlink"
	OpRmdir       OpID = "rmdir"
	OpSymlink     OpID = "symlink"
	OpRename      OpID = "rename"
	OpLink        OpID = "link"
	OpChmod       OpID = "chmod"
	OpChown       OpID = "chown"
	OpTruncate    OpID = "truncate"
	OpUtimens     OpID = "utimens"
	OpCreate      OpID = "create"
	OpOpen        OpID = "open"
	OpReadv       OpID = "readv"
	OpWritev      OpID = "writev"
	OpStatfs      OpID = "statfs"
	OpFlush       OpID = "flush"
	OpClose       OpID = "close"
	OpFsync       OpID = "fsync"
	OpSetxattr    OpID = "setxattr"
	OpGetxattr    OpID = "getxattr"
	OpRemovexattr OpID = "removexattr"
	OpAccess      OpID = "access"
	OpFtruncate   OpID = "ftruncate"
	OpFstat       OpID = "fstat"
	OpLk          OpID = "lk"
	OpFchmod      OpID = "fchmod"
	OpFchown      OpID = "fchown"
	OpSetdents    OpID = "setdents"
	OpFsyncdir    OpID = "fsyncdir"
	OpIncver      OpID = "incver"
	OpRmelem      OpID = "rmelem"
	OpChecksum    OpID = "checksum"
)

// Stat is the synthesized/propagated attribute snapshot carried by most
// unwinds, deliberately flat (not os.FileInfo) so leaves can set exactly
// the fields a leaf actually needs to set (inode transform, st_size from record
// length, database-file mtime/ctime, …).
type Stat struct {
	Ino      uint64
	Mode     uint32
	Nlink    uint32
	UID, GID uint32
	Size     int64
	Atime    int64
	Mtime    int64
	Ctime    int64
}

// DirEntry is one readdir/getdents result item.
type DirEntry struct {
	Name string
	Ino  uint64
	Stat *Stat
}

// Result is the value every op handler produces on unwind: either a
// successful payload or a non-zero Errno — "errors are just
// ordinary results carrying a non-zero code."
type Result struct {
	Err xlatorerr.Errno

	Stat    *Stat
	PreStat *Stat

	Data    []byte
	Written int // bytes actually written, independent of Err (partial writes)

	Entries []DirEntry
	EOF     bool

	Dict *dict.Dict // xattr/getspec/checksum payloads

	Handle any // opaque fd/dir-handle object for open/opendir results
}

// OK reports whether the result carries no error.
func (r Result) OK() bool { return r.Err == xlatorerr.Success }

// ErrResult is a convenience constructor for an error-only result.
func ErrResult(errno xlatorerr.Errno) Result { return Result{Err: errno} }

// FileOps is the file/metadata/IO operation table. Every field is a
// function; FillDefaults (see default.go) fills some nil fields with
// passthrough or ENOTSUP handlers. Each handler takes only its request and
// returns its Result synchronously; frame.Wind wraps such a call when a
// frame chain is wanted — see internal/frame for the wind/unwind contract.
type FileOps struct {
	Lookup      func(req *LookupRequest) Result
	Forget      func(req *InoRequest) Result
	Stat        func(req *PathRequest) Result
	Opendir     func(req *PathRequest) Result
	Readdir     func(req *ReaddirRequest) Result
	Getdents    func(req *ReaddirRequest) Result
	Closedir    func(req *HandleRequest) Result
	Readlink    func(req *PathRequest) Result
	Mknod       func(req *MknodRequest) Result
	Mkdir       func(req *MkdirRequest) Result
	Unlink      func(req *PathRequest) Result
	Rmdir       func(req *PathRequest) Result
	Symlink     func(req *SymlinkRequest) Result
	Rename      func(req *RenameRequest) Result
	Link        func(req *RenameRequest) Result
	Chmod       func(req *ChmodRequest) Result
	Chown       func(req *ChownRequest) Result
	Truncate    func(req *TruncateRequest) Result
	Utimens     func(req *UtimensRequest) Result
	Create      func(req *MknodRequest) Result
	Open        func(req *OpenRequest) Result
	Readv       func(req *IOVRequest) Result
	Writev      func(req *IOVRequest) Result
	Statfs      func(req *PathRequest) Result
	Flush       func(req *HandleRequest) Result
	Close       func(req *HandleRequest) Result
	Fsync       func(req *HandleRequest) Result
	Setxattr    func(req *XattrRequest) Result
	Getxattr    func(req *XattrRequest) Result
	Removexattr func(req *XattrRequest) Result
	Access      func(req *PathRequest) Result
	Ftruncate   func(req *TruncateRequest) Result
	Fstat       func(req *HandleRequest) Result
	Lk          func(req *HandleRequest) Result
	Fchmod      func(req *ChmodRequest) Result
	Fchown      func(req *ChownRequest) Result
	Setdents    func(req *ReaddirRequest) Result
	Fsyncdir    func(req *HandleRequest) Result
	Incver      func(req *PathRequest) Result
	Rmelem      func(req *PathRequest) Result
	Checksum    func(req *PathRequest) Result
}

// ManagementOps is the management operation table.
type ManagementOps struct {
	Stats    func() Result
	Lock     func(name string) Result
	Unlock   func(name string) Result
	Checksum func() Result
	Getspec  func() Result
}

// Request field types, kept deliberately small and orthogonal instead of
// one giant args struct, mirroring the op-specific parameter lists of the
// spec's file-op vocabulary.

type PathRequest struct {
	Path string
	Hint *dict.Dict
}

type InoRequest struct {
	Ino uint64
}

type LookupRequest struct {
	Parent string
	Name   string
	Hint   *dict.Dict
}

type MknodRequest struct {
	Parent string
	Name   string
	Mode   uint32
	Dev    uint64
}

type MkdirRequest struct {
	Parent string
	Name   string
	Mode   uint32
}

type SymlinkRequest struct {
	Parent  string
	Name    string
	Target  string
}

type RenameRequest struct {
	OldParent, OldName string
	NewParent, NewName string
}

type ChmodRequest struct {
	Path string
	Mode uint32
}

type ChownRequest struct {
	Path     string
	UID, GID uint32
}

type TruncateRequest struct {
	Path   string
	Handle any
	Size   int64
}

type UtimensRequest struct {
	Path         string
	Atime, Mtime int64
}

type OpenRequest struct {
	Path  string
	Flags int
}

type HandleRequest struct {
	Handle any
}

type IOVRequest struct {
	Handle any
	Offset int64
	Data   []byte // for writev; unused (len(Data) is the request size) for readv
	Size   int    // requested read length
}

type ReaddirRequest struct {
	Handle any
	Size   int
	Offset int64
}

type XattrRequest struct {
	Path  string
	Name  string
	Value []byte
}

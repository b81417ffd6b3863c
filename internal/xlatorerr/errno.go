// Package xlatorerr maps storage- and graph-level failures onto the
// spec's abstract errno vocabulary, shared by every translator so that
// operation errors ride back via the unwind result code uniformly.
package xlatorerr

import (
	"errors"
	"os"

	"go.etcd.io/bbolt"
)

// Errno is a numeric result code. Success is the zero value so a
// zero-initialized Result is, correctly, a successful one.
type Errno int

const (
	Success Errno = iota
	ENOENT
	EPERM
	EEXIST
	EISDIR
	ENOTDIR
	ENOTEMPTY
	EBADFD
	ENOMEM
	ENOTSUP
	EINVAL
	EIO
	ETIMEDOUT
)

var names = map[Errno]string{
	Success:   "SUCCESS",
	ENOENT:    "ENOENT",
	EPERM:     "EPERM",
	EEXIST:    "EEXIST",
	EISDIR:    "EISDIR",
	ENOTDIR:   "ENOTDIR",
	ENOTEMPTY: "ENOTEMPTY",
	EBADFD:    "EBADFD",
	ENOMEM:    "ENOMEM",
	ENOTSUP:   "ENOTSUP",
	EINVAL:    "EINVAL",
	EIO:       "EIO",
	ETIMEDOUT: "ETIMEDOUT",
}

func (e Errno) String() string {
	if n, ok := names[e]; ok {
		return n
	}
	return "EUNKNOWN"
}

func (e Errno) Error() string { return e.String() }

// FromStorage maps an embedded-store/host-filesystem error onto an Errno.
// Any translation performed here should be logged at DEBUG by the caller
// translation is recorded, never silent.
func FromStorage(err error) Errno {
	if err == nil {
		return Success
	}
	switch {
	case errors.Is(err, bbolt.ErrBucketNotFound),
		errors.Is(err, bbolt.ErrKeyRequired),
		os.IsNotExist(err):
		return ENOENT
	case os.IsPermission(err):
		return EPERM
	case errors.Is(err, bbolt.ErrDatabaseNotOpen), errors.Is(err, bbolt.ErrTxClosed):
		return EBADFD
	case errors.Is(err, bbolt.ErrBucketExists), os.IsExist(err):
		return EEXIST
	default:
		return EIO
	}
}

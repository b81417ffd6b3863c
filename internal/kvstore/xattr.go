package kvstore

import (
	"os"
	"strings"

	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// fileContentPrefix marks an xattr name that is actually a request to read,
// write, or delete a record in the target directory's own database rather
// than a real extended attribute. Everything else passes through to the
// host filesystem's native xattr interface.
const fileContentPrefix = "glusterfs.file-content."

// setxattrOp, getxattrOp, and removexattrOp are only meaningful on
// directories: a regular file's record has no xattr storage of its own.
func (k *KV) setxattrOp(req *xlator.XattrRequest) xlator.Result {
	hostPath := k.hostPath(req.Path)
	fi, err := os.Lstat(hostPath)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	if !fi.IsDir() {
		return xlator.ErrResult(xlatorerr.EPERM)
	}
	if key, ok := strings.CutPrefix(req.Name, fileContentPrefix); ok {
		b := k.table.get(hostPath)
		defer k.table.release(b)
		db, err := openDB(b)
		if err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		if err := putRecord(db, filesBucket, key, req.Value); err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		return xlator.Result{}
	}
	return dirSetxattr(hostPath, req.Name, req.Value)
}

func (k *KV) getxattrOp(req *xlator.XattrRequest) xlator.Result {
	hostPath := k.hostPath(req.Path)
	fi, err := os.Lstat(hostPath)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	if !fi.IsDir() {
		return xlator.ErrResult(xlatorerr.EPERM)
	}
	if key, ok := strings.CutPrefix(req.Name, fileContentPrefix); ok {
		b := k.table.get(hostPath)
		defer k.table.release(b)
		db, err := openDB(b)
		if err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		val, err := getRecord(db, filesBucket, key)
		if err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		return xlator.Result{Data: val}
	}
	return dirGetxattr(hostPath, req.Name)
}

func (k *KV) removexattrOp(req *xlator.XattrRequest) xlator.Result {
	hostPath := k.hostPath(req.Path)
	fi, err := os.Lstat(hostPath)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	if !fi.IsDir() {
		return xlator.ErrResult(xlatorerr.EPERM)
	}
	if key, ok := strings.CutPrefix(req.Name, fileContentPrefix); ok {
		b := k.table.get(hostPath)
		defer k.table.release(b)
		db, err := openDB(b)
		if err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		if err := deleteRecord(db, filesBucket, key); err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		return xlator.Result{}
	}
	return dirRemovexattr(hostPath, req.Name)
}

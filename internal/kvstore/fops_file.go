package kvstore

import (
	"os"

	"go.etcd.io/bbolt"

	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// lookupOp resolves one (parent, name) pair against the host filesystem
// first (a subdirectory or a symlink are both real host entries) and the
// parent's KV records second (a regular file lives only as a record).
func (k *KV) lookupOp(req *xlator.LookupRequest) xlator.Result {
	if req.Parent == "" && req.Name == "" {
		st, err := k.dirStat(k.exportPath)
		if err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		return xlator.Result{Stat: &st}
	}

	childRel := joinPath(req.Parent, req.Name)
	hostChild := k.hostPath(childRel)

	if fi, err := os.Lstat(hostChild); err == nil {
		st, err := k.hostStat(hostChild, fi)
		if err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		return xlator.Result{Stat: &st}
	}

	b := k.table.get(k.hostPath(req.Parent))
	defer k.table.release(b)
	db, err := openDB(b)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	data, err := getRecord(db, filesBucket, req.Name)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	meta, err := getMeta(db, req.Name)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	st := k.fileStat(childRel, meta, len(data))
	return xlator.Result{Stat: &st}
}

// statOp is the path-addressed equivalent of lookupOp, used by callers
// that already hold a resolved path rather than a (parent, name) pair.
func (k *KV) statOp(req *xlator.PathRequest) xlator.Result {
	parent, name := split(req.Path)
	if name == "" {
		st, err := k.dirStat(k.exportPath)
		if err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		return xlator.Result{Stat: &st}
	}
	return k.lookupOp(&xlator.LookupRequest{Parent: parent, Name: name})
}

// mknodOp creates an empty, zero-length record for a new regular file.
// Directories are never created through mknod: mkdir is the only op that
// creates a host directory entry.
func (k *KV) mknodOp(req *xlator.MknodRequest) xlator.Result {
	b := k.table.get(k.hostPath(req.Parent))
	defer k.table.release(b)
	db, err := openDB(b)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	if hasRecord(db, filesBucket, req.Name) {
		return xlator.ErrResult(xlatorerr.EEXIST)
	}
	if err := putRecord(db, filesBucket, req.Name, nil); err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	meta := newRecordMeta(req.Mode)
	if err := putMeta(db, req.Name, meta); err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	st := k.fileStat(joinPath(req.Parent, req.Name), meta, 0)
	return xlator.Result{Stat: &st}
}

// createOp is mknod followed immediately by open, matching the FUSE/POSIX
// create() contract of returning a usable handle in one round trip.
func (k *KV) createOp(req *xlator.MknodRequest) xlator.Result {
	res := k.mknodOp(req)
	if !res.OK() {
		return res
	}
	openRes := k.openOp(&xlator.OpenRequest{Path: joinPath(req.Parent, req.Name)})
	if !openRes.OK() {
		return openRes
	}
	res.Handle = openRes.Handle
	return res
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// openOp refs the parent bctx for the lifetime of the handle and confirms
// the record exists; the ref is dropped in closeOp.
func (k *KV) openOp(req *xlator.OpenRequest) xlator.Result {
	parent, name := split(req.Path)
	b := k.table.get(k.hostPath(parent))
	db, err := openDB(b)
	if err != nil {
		k.table.release(b)
		return xlator.ErrResult(errnoFor(err))
	}
	if !hasRecord(db, filesBucket, name) {
		k.table.release(b)
		return xlator.ErrResult(xlatorerr.ENOENT)
	}
	k.bumpOpenFiles(1)
	return xlator.Result{Handle: &openFile{b: b, key: name}}
}

func (k *KV) readvOp(req *xlator.IOVRequest) xlator.Result {
	fd, ok := req.Handle.(*openFile)
	if !ok {
		return xlator.ErrResult(xlatorerr.EBADFD)
	}
	db, err := openDB(fd.b)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	data, err := getRecord(db, filesBucket, fd.key)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	if req.Offset >= int64(len(data)) {
		return xlator.Result{EOF: true}
	}
	end := req.Offset + int64(req.Size)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	out := append([]byte(nil), data[req.Offset:end]...)
	k.throughput.addBytes(len(out))
	return xlator.Result{Data: out, EOF: end >= int64(len(data))}
}

func (k *KV) writevOp(req *xlator.IOVRequest) xlator.Result {
	fd, ok := req.Handle.(*openFile)
	if !ok {
		return xlator.ErrResult(xlatorerr.EBADFD)
	}
	db, err := openDB(fd.b)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	data, err := getRecord(db, filesBucket, fd.key)
	if err != nil && err != errRecordNotFound {
		return xlator.ErrResult(errnoFor(err))
	}
	need := int(req.Offset) + len(req.Data)
	if need > len(data) {
		grown := make([]byte, need)
		copy(grown, data)
		data = grown
	}
	copy(data[req.Offset:], req.Data)
	if err := putRecord(db, filesBucket, fd.key, data); err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	if meta, err := getMeta(db, fd.key); err == nil {
		meta.Size = int64(len(data))
		_ = putMeta(db, fd.key, meta)
	}
	k.throughput.addBytes(len(req.Data))
	return xlator.Result{Written: len(req.Data)}
}

func (k *KV) truncateByKey(db *bbolt.DB, key string, size int64) xlator.Result {
	data, err := getRecord(db, filesBucket, key)
	if err != nil && err != errRecordNotFound {
		return xlator.ErrResult(errnoFor(err))
	}
	resized := make([]byte, size)
	copy(resized, data)
	if err := putRecord(db, filesBucket, key, resized); err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	if meta, err := getMeta(db, key); err == nil {
		meta.Size = size
		_ = putMeta(db, key, meta)
	}
	return xlator.Result{}
}

func (k *KV) truncateOp(req *xlator.TruncateRequest) xlator.Result {
	parent, name := split(req.Path)
	b := k.table.get(k.hostPath(parent))
	defer k.table.release(b)
	db, err := openDB(b)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	return k.truncateByKey(db, name, req.Size)
}

func (k *KV) ftruncateOp(req *xlator.TruncateRequest) xlator.Result {
	fd, ok := req.Handle.(*openFile)
	if !ok {
		return xlator.ErrResult(xlatorerr.EBADFD)
	}
	db, err := openDB(fd.b)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	return k.truncateByKey(db, fd.key, req.Size)
}

func (k *KV) closeOp(req *xlator.HandleRequest) xlator.Result {
	fd, ok := req.Handle.(*openFile)
	if !ok {
		return xlator.ErrResult(xlatorerr.EBADFD)
	}
	k.table.release(fd.b)
	k.bumpOpenFiles(-1)
	return xlator.Result{}
}

// unlinkOp deletes the file's record; when no record exists it falls back
// to a host unlink, which covers the symlink case (a symlink has no record
// at all). Not-found on both is the real error.
func (k *KV) unlinkOp(req *xlator.PathRequest) xlator.Result {
	parent, name := split(req.Path)
	b := k.table.get(k.hostPath(parent))
	defer k.table.release(b)
	db, err := openDB(b)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	err = deleteRecord(db, filesBucket, name)
	if err == nil {
		_ = deleteRecord(db, metaBucket, name)
		return xlator.Result{}
	}
	if err != errRecordNotFound {
		return xlator.ErrResult(errnoFor(err))
	}
	if rmErr := os.Remove(k.hostPath(req.Path)); rmErr != nil {
		return xlator.ErrResult(errnoFor(rmErr))
	}
	return xlator.Result{}
}

func (k *KV) accessOp(req *xlator.PathRequest) xlator.Result {
	res := k.statOp(req)
	if !res.OK() {
		return res
	}
	return xlator.Result{}
}

// refuseHandle and refusePath back two of the ops this leaf refuses because
// they have no meaning at all for a KV record: lk and rmelem (link, fchown
// and fchmod are refused too, via refuseRename, refuseChown and
// refuseChmod). Rmdir gets its own refuseRmdir since rmdir is meaningful
// here, just not permitted.
func refuseHandle(req *xlator.HandleRequest) xlator.Result { return xlator.ErrResult(xlatorerr.ENOTSUP) }
func refusePath(req *xlator.PathRequest) xlator.Result     { return xlator.ErrResult(xlatorerr.ENOTSUP) }

package kvstore

import (
	"os"

	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// mkdirOp creates a real host directory so it gets its own bctx/database
// once something is stored inside it. There is no record to create: the
// directory itself has no KV entry, only a filesystem entry.
func (k *KV) mkdirOp(req *xlator.MkdirRequest) xlator.Result {
	hostChild := k.hostPath(joinPath(req.Parent, req.Name))
	if err := os.Mkdir(hostChild, os.FileMode(req.Mode)); err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	st, err := k.dirStat(hostChild)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	return xlator.Result{Stat: &st}
}

// symlinkOp creates a real host symlink, mirroring the host/db split the
// rest of this leaf keeps: a directory is a host directory, a regular file
// is a KV record, and a symlink is a host symlink.
func (k *KV) symlinkOp(req *xlator.SymlinkRequest) xlator.Result {
	hostChild := k.hostPath(joinPath(req.Parent, req.Name))
	if _, err := os.Lstat(hostChild); err == nil {
		return xlator.ErrResult(xlatorerr.EEXIST)
	}
	if err := os.Symlink(req.Target, hostChild); err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	st, err := k.symlinkStat(hostChild)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	return xlator.Result{Stat: &st}
}

const modeSymlinkBit = 0o120000 // S_IFLNK

func (k *KV) readlinkOp(req *xlator.PathRequest) xlator.Result {
	target, err := os.Readlink(k.hostPath(req.Path))
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	return xlator.Result{Data: []byte(target)}
}

// opendirOp refs the bctx for req.Path and eagerly lists the host entries,
// matching invariant (iv): the ref lives until closedirOp drops it.
func (k *KV) opendirOp(req *xlator.PathRequest) xlator.Result {
	hostPath := k.hostPath(req.Path)
	entries, err := os.ReadDir(hostPath)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	b := k.table.get(hostPath)
	filtered := entries[:0]
	for _, e := range entries {
		if !isPrivate(e.Name()) {
			filtered = append(filtered, e)
		}
	}
	return xlator.Result{Handle: &openDir{b: b, relPath: req.Path, hostEntries: filtered}}
}

func (k *KV) closedirOp(req *xlator.HandleRequest) xlator.Result {
	d, ok := req.Handle.(*openDir)
	if !ok {
		return xlator.ErrResult(xlatorerr.EBADFD)
	}
	k.table.release(d.b)
	return xlator.Result{}
}

// readdirOp serves host directory entries first, then falls through to the
// directory's own KV records once the host side is exhausted, so both
// subdirectories and regular files show up in one stream. EOF fires once both sources are drained.
func (k *KV) readdirOp(req *xlator.ReaddirRequest) xlator.Result {
	d, ok := req.Handle.(*openDir)
	if !ok {
		return xlator.ErrResult(xlatorerr.EBADFD)
	}

	var out []xlator.DirEntry
	for len(out) < req.Size && d.hostIdx < len(d.hostEntries) {
		e := d.hostEntries[d.hostIdx]
		d.hostIdx++
		info, err := e.Info()
		if err != nil {
			continue
		}
		rel := joinPath(d.relPath, e.Name())
		st, err := k.dirOrFileStat(rel, info)
		if err != nil {
			continue
		}
		out = append(out, xlator.DirEntry{Name: e.Name(), Ino: st.Ino, Stat: &st})
	}

	if len(out) < req.Size {
		if !d.dbOpen {
			db, err := openDB(d.b)
			if err == nil {
				d.dbKeys, _ = listKeys(db, filesBucket)
			}
			d.dbOpen = true
		}
		for len(out) < req.Size && d.dbIdx < len(d.dbKeys) {
			name := d.dbKeys[d.dbIdx]
			d.dbIdx++
			db, err := openDB(d.b)
			if err != nil {
				continue
			}
			data, err := getRecord(db, filesBucket, name)
			if err != nil {
				continue
			}
			meta, err := getMeta(db, name)
			if err != nil {
				continue
			}
			st := k.fileStat(joinPath(d.relPath, name), meta, len(data))
			out = append(out, xlator.DirEntry{Name: name, Ino: st.Ino, Stat: &st})
		}
	}

	eof := d.hostIdx >= len(d.hostEntries) && d.dbOpen && d.dbIdx >= len(d.dbKeys)
	return xlator.Result{Entries: out, EOF: eof}
}

// dirOrFileStat stats a host entry, which is either a subdirectory or a
// symlink, the only two kinds of entry this leaf ever creates on the host.
func (k *KV) dirOrFileStat(rel string, info os.FileInfo) (xlator.Stat, error) {
	return k.hostStat(k.hostPath(rel), info)
}

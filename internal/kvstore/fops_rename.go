package kvstore

import (
	"os"

	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// renameOp only supports regular-file-to-regular-file and
// symlink-to-symlink renames: a directory has its own bctx and database
// tied to its host path, so renaming one out from under its children is
// not handled at this leaf. Renaming onto an existing directory is always
// refused.
func (k *KV) renameOp(req *xlator.RenameRequest) xlator.Result {
	hostOld := k.hostPath(joinPath(req.OldParent, req.OldName))
	hostNew := k.hostPath(joinPath(req.NewParent, req.NewName))

	var oldIsSymlink bool
	if oldFi, err := os.Lstat(hostOld); err == nil {
		if oldFi.IsDir() {
			return xlator.ErrResult(xlatorerr.ENOTSUP)
		}
		oldIsSymlink = oldFi.Mode()&os.ModeSymlink != 0
	}

	if newFi, err := os.Lstat(hostNew); err == nil {
		if newFi.IsDir() {
			return xlator.ErrResult(xlatorerr.EISDIR)
		}
		if newFi.Mode()&os.ModeSymlink != 0 != oldIsSymlink {
			return xlator.ErrResult(xlatorerr.EINVAL)
		}
	}

	if oldIsSymlink {
		if err := os.Rename(hostOld, hostNew); err != nil {
			return xlator.ErrResult(errnoFor(err))
		}
		return xlator.Result{}
	}

	oldB := k.table.get(k.hostPath(req.OldParent))
	defer k.table.release(oldB)
	newB := k.table.get(k.hostPath(req.NewParent))
	defer k.table.release(newB)

	oldDB, err := openDB(oldB)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	newDB, err := openDB(newB)
	if err != nil {
		return xlator.ErrResult(errnoFor(err))
	}

	if err := moveRecord(oldDB, filesBucket, req.OldName, newDB, filesBucket, req.NewName); err != nil {
		return xlator.ErrResult(errnoFor(err))
	}
	_ = moveRecord(oldDB, metaBucket, req.OldName, newDB, metaBucket, req.NewName)

	return xlator.Result{}
}

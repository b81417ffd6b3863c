package kvstore

import (
	"os"
	"path/filepath"

	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// split breaks a volume-relative path into its parent directory and leaf
// name, the two coordinates every KV record is addressed by (parent's
// bctx, leaf's key within it).
func split(path string) (parent, name string) {
	clean := filepath.Clean(path)
	if clean == "." || clean == "/" {
		return "", ""
	}
	return filepath.Dir(clean), filepath.Base(clean)
}

// errnoFor maps a storage error to an Errno, special-casing this package's
// own not-found sentinel before delegating to xlatorerr.FromStorage (which
// only knows about bbolt's and the host filesystem's own error shapes).
func errnoFor(err error) xlatorerr.Errno {
	if err == errRecordNotFound {
		return xlatorerr.ENOENT
	}
	return xlatorerr.FromStorage(err)
}

// dirStat stats a host directory and converts it to the leaf's Stat shape.
func (k *KV) dirStat(hostPath string) (xlator.Stat, error) {
	fi, err := os.Lstat(hostPath)
	if err != nil {
		return xlator.Stat{}, err
	}
	ino := k.synthInode(hostIno(fi))
	if hostPath == k.exportPath {
		ino = rootIno
	}
	return xlator.Stat{
		Ino:   ino,
		Mode:  uint32(fi.Mode().Perm()) | modeDirBit,
		Nlink: 2,
		Size:  fi.Size(),
		Mtime: fi.ModTime().Unix(),
		Ctime: fi.ModTime().Unix(),
		Atime: fi.ModTime().Unix(),
	}, nil
}

// fileStat converts a recordMeta plus its record's current length into the
// leaf's Stat shape for a KV-resident file.
func (k *KV) fileStat(relPath string, m recordMeta, size int) xlator.Stat {
	return xlator.Stat{
		Ino:   k.fileInode(relPath),
		Mode:  m.Mode,
		Nlink: 1,
		UID:   m.UID,
		GID:   m.GID,
		Size:  int64(size),
		Atime: m.Atime,
		Mtime: m.Mtime,
		Ctime: m.Ctime,
	}
}

// modeDirBit mirrors syscall.S_IFDIR without importing syscall just for one
// constant already available via os.ModeDir's POSIX equivalent.
const modeDirBit = 1 << 14 // S_IFDIR, matches host directory stat mode bits returned to callers

// symlinkStat stats a host symlink and converts it to the leaf's Stat
// shape; size is the length of the link target, matching lstat(2).
func (k *KV) symlinkStat(hostPath string) (xlator.Stat, error) {
	fi, err := os.Lstat(hostPath)
	if err != nil {
		return xlator.Stat{}, err
	}
	target, err := os.Readlink(hostPath)
	if err != nil {
		return xlator.Stat{}, err
	}
	return xlator.Stat{
		Ino:   k.synthInode(hostIno(fi)),
		Mode:  uint32(fi.Mode().Perm()) | modeSymlinkBit,
		Nlink: 1,
		Size:  int64(len(target)),
		Mtime: fi.ModTime().Unix(),
		Ctime: fi.ModTime().Unix(),
		Atime: fi.ModTime().Unix(),
	}, nil
}

// hostStat converts an already-Lstat'd host entry to the leaf's Stat shape.
// A KV leaf only ever creates two kinds of host filesystem entry, a
// subdirectory or a symlink; anything else falls back to the directory
// shape rather than failing lookup outright.
func (k *KV) hostStat(hostPath string, fi os.FileInfo) (xlator.Stat, error) {
	if fi.Mode()&os.ModeSymlink != 0 {
		return k.symlinkStat(hostPath)
	}
	return k.dirStat(hostPath)
}

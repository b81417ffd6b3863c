package kvstore

import (
	"hash/fnv"
	"os"
	"syscall"
)

// rootIno is the synthesized inode of the export root.
const rootIno = 1

// hostIno extracts the host filesystem inode number from a FileInfo
// produced by os.Stat/os.Lstat on this directory/symlink via the same
// syscall.Stat_t cast Go backends commonly use for host attribute access
// (see DESIGN.md: no third-party library wraps this any differently than
// the stdlib syscall struct).
func hostIno(fi os.FileInfo) uint64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Ino)
	}
	return 0
}

// synthInode transforms a host directory inode into the KV leaf's inode
// space by XORing with a per-context salt, so it never collides with the
// directory's own inode (invariant (v)).
func (k *KV) synthInode(hostInode uint64) uint64 {
	if hostInode == 0 {
		return 0
	}
	return hostInode ^ k.salt
}

// fileInode synthesizes an inode for a KV-resident file, which has no host
// inode of its own: the relative path is hashed and XORed with the same
// per-context salt a directory's host inode would be.
func (k *KV) fileInode(relPath string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(relPath))
	return h.Sum64() ^ k.salt
}

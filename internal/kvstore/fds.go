package kvstore

import "os"

// openFile is the fd state for a regular file: a refed bctx for its parent
// directory and the leaf key under which its record lives.
type openFile struct {
	b   *bctx
	key string
}

// openDir is the fd state for a directory stream: a refed bctx, the host
// directory entries (consumed first), and a persistent cursor bookmark
// into the embedded database consumed afterward. Host entries are read
// eagerly at opendir time; the database cursor is created lazily at the
// first readdir/getdents call that exhausts the host entries.
type openDir struct {
	b       *bctx
	relPath string

	hostEntries []os.DirEntry
	hostIdx     int
	hostDone    bool

	dbKeys []string // loaded lazily once host entries are exhausted
	dbIdx  int
	dbOpen bool
}

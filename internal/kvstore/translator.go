// Package kvstore implements the storage/kv leaf translator: a
// directory-per-folder, key/value-per-file engine backed by an embedded
// transactional database.
package kvstore

import (
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/graph"
	"github.com/volgraph/volgraph/internal/xlator"
)

// TypeName is the translator type string resolved by the graph loader.
const TypeName = "storage/kv"

func init() {
	xlator.Register(TypeName, New)
}

// KV is the leaf translator. It refuses every op that would require a
// child (it has none) and instead talks directly to the host filesystem
// and to one bbolt database per exported directory.
type KV struct {
	xlator.Base

	fops *xlator.FileOps
	mops *xlator.ManagementOps

	exportPath string
	salt       uint64
	table      *table
	workers    *workers
	throughput *throughputCounters

	openFileCount int64 // atomic, surfaced by stats
}

// New constructs a KV translator. Required option: "directory" (the
// export_path). Optional: "lru-limit" (bctx table size, default 128). The
// inode salt is always derived from the export path; no option sets it.
func New(name string, opts *dict.Dict, logger *logrus.Logger) (xlator.Translator, error) {
	k := &KV{Base: xlator.NewBase(name, TypeName, logger)}
	k.Opts = opts
	k.fops = k.buildFileOps()
	k.mops = k.buildManagementOps()
	return k, nil
}

func (k *KV) FOps() *xlator.FileOps       { return k.fops }
func (k *KV) MOps() *xlator.ManagementOps { return k.mops }

// Init validates the export_path and prepares the bctx table. The KV leaf
// has no children, so the xlator.FillDefaults call in buildFileOps installs
// no passthrough handlers for it: an op this leaf does not implement, and
// that FillDefaults does not give an ENOTSUP handler, stays nil.
func (k *KV) Init() error {
	dirVal, err := k.Opts.Get("directory")
	if err != nil {
		return errors.Wrap(err, "storage/kv: required option \"directory\" missing")
	}
	exportPath := dirVal.Str()
	info, err := os.Stat(exportPath)
	if err != nil {
		return errors.Wrapf(err, "storage/kv: export path %q", exportPath)
	}
	if !info.IsDir() {
		return errors.Errorf("storage/kv: export path %q is not a directory", exportPath)
	}

	k.exportPath = filepath.Clean(exportPath)
	k.salt = saltFor(k.exportPath)

	lruLimit := 128
	if v, err := k.Opts.Get("lru-limit"); err == nil {
		if n, convErr := strconv.Atoi(v.Str()); convErr == nil {
			lruLimit = n
		}
	}
	k.table = newTable(lruLimit)
	k.workers = newWorkers(16)
	k.throughput = newThroughputCounters()

	return nil
}

func (k *KV) Notify(event xlator.Event, data any) error {
	return graph.DefaultNotify(k, event, data)
}

// Fini closes every open database handle. The KV leaf owns its bctx table
// exclusively, so a bulk close on shutdown does not race a concurrent
// Init.
func (k *KV) Fini() error {
	if k.table == nil {
		return nil
	}
	k.table.mu.Lock()
	defer k.table.mu.Unlock()
	for _, b := range k.table.active {
		_ = closeDB(b)
	}
	for _, key := range k.table.idle.Keys() {
		if b, ok := k.table.idle.Peek(key); ok {
			_ = closeDB(b)
		}
	}
	return nil
}

// saltFor derives a stable per-context salt from the export path so two
// leaves exporting different directories don't collide, without requiring
// explicit configuration.
func saltFor(path string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	salt := h.Sum64()
	return salt | 1 // never zero, so XOR is never a no-op
}

// hostPath joins the export root with a volume-relative path.
func (k *KV) hostPath(relative string) string {
	return filepath.Join(k.exportPath, relative)
}

// bumpOpenFiles adjusts the open-file counter surfaced by stats.
func (k *KV) bumpOpenFiles(delta int64) {
	atomic.AddInt64(&k.openFileCount, delta)
}

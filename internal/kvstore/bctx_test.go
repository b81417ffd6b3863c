package kvstore_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/kvstore"
	"github.com/volgraph/volgraph/internal/xlator"
)

// TestLRUEvictionClosesDatabaseHandle exercises the table's active/idle
// boundary (invariant iv): once every handle referencing a directory is
// released and the idle list overflows its configured limit, the oldest
// bctx's database handle is closed rather than leaked open.
func TestLRUEvictionClosesDatabaseHandle(t *testing.T) {
	dir := t.TempDir()
	opts := dict.New()
	opts.SetString("directory", dir)
	opts.SetString("lru-limit", "1")
	tr, err := kvstore.New("leaf", opts, logrus.New())
	require.NoError(t, err)
	require.NoError(t, tr.Init())
	t.Cleanup(func() { _ = tr.Fini() })
	ops := tr.FOps()

	require.True(t, ops.Mkdir(&xlator.MkdirRequest{Parent: "", Name: "a", Mode: 0755}).OK())
	require.True(t, ops.Mkdir(&xlator.MkdirRequest{Parent: "", Name: "b", Mode: 0755}).OK())

	// Touch "a" (opens its database, then releases it to idle).
	require.True(t, ops.Mknod(&xlator.MknodRequest{Parent: "a", Name: "f", Mode: 0644}).OK())
	// Touching "b" with an idle limit of 1 evicts "a" from the idle list.
	require.True(t, ops.Mknod(&xlator.MknodRequest{Parent: "b", Name: "f", Mode: 0644}).OK())

	// "a" is no longer cached; a fresh lookup must still succeed by
	// reopening its database rather than relying on a stale handle.
	res := ops.Lookup(&xlator.LookupRequest{Parent: "a", Name: "f"})
	require.True(t, res.OK())
}

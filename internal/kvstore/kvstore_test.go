package kvstore_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/kvstore"
	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

func newLeaf(t *testing.T) *xlator.FileOps {
	t.Helper()
	dir := t.TempDir()
	opts := dict.New()
	opts.SetString("directory", dir)
	tr, err := kvstore.New("leaf", opts, logrus.New())
	require.NoError(t, err)
	require.NoError(t, tr.Init())
	t.Cleanup(func() { _ = tr.Fini() })
	return tr.FOps()
}

func TestCreateWriteReadRoundTrip(t *testing.T) {
	ops := newLeaf(t)

	created := ops.Create(&xlator.MknodRequest{Parent: "", Name: "hello.txt", Mode: 0644})
	require.True(t, created.OK())
	require.NotNil(t, created.Handle)

	written := ops.Writev(&xlator.IOVRequest{Handle: created.Handle, Offset: 0, Data: []byte("hi there")})
	require.True(t, written.OK())
	assert.Equal(t, 8, written.Written)

	read := ops.Readv(&xlator.IOVRequest{Handle: created.Handle, Offset: 0, Size: 8})
	require.True(t, read.OK())
	assert.Equal(t, "hi there", string(read.Data))
	assert.True(t, read.EOF)

	assert.True(t, ops.Close(&xlator.HandleRequest{Handle: created.Handle}).OK())

	st := ops.Stat(&xlator.PathRequest{Path: "hello.txt"})
	require.True(t, st.OK())
	assert.EqualValues(t, 8, st.Stat.Size)
}

func TestMknodThenLookupSeesCreatedFile(t *testing.T) {
	ops := newLeaf(t)

	res := ops.Mknod(&xlator.MknodRequest{Parent: "", Name: "a", Mode: 0600})
	require.True(t, res.OK())

	dup := ops.Mknod(&xlator.MknodRequest{Parent: "", Name: "a", Mode: 0600})
	assert.Equal(t, xlatorerr.EEXIST, dup.Err)

	lookup := ops.Lookup(&xlator.LookupRequest{Parent: "", Name: "a"})
	require.True(t, lookup.OK())
	require.NotZero(t, lookup.Stat.Ino)

	unlinked := ops.Unlink(&xlator.PathRequest{Path: "a"})
	require.True(t, unlinked.OK())

	gone := ops.Lookup(&xlator.LookupRequest{Parent: "", Name: "a"})
	assert.Equal(t, xlatorerr.ENOENT, gone.Err)
}

func TestRootLookupReturnsDirectoryStat(t *testing.T) {
	ops := newLeaf(t)
	res := ops.Lookup(&xlator.LookupRequest{})
	require.True(t, res.OK())
	assert.NotZero(t, res.Stat.Mode)
}

func TestMkdirCreatesSubdirectoryVisibleToLookup(t *testing.T) {
	ops := newLeaf(t)
	res := ops.Mkdir(&xlator.MkdirRequest{Parent: "", Name: "sub", Mode: 0755})
	require.True(t, res.OK())

	lookup := ops.Lookup(&xlator.LookupRequest{Parent: "", Name: "sub"})
	require.True(t, lookup.OK())

	child := ops.Mknod(&xlator.MknodRequest{Parent: "sub", Name: "nested.txt", Mode: 0644})
	require.True(t, child.OK())

	found := ops.Lookup(&xlator.LookupRequest{Parent: "sub", Name: "nested.txt"})
	require.True(t, found.OK())
}

func TestRmdirIsRefused(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Mkdir(&xlator.MkdirRequest{Parent: "", Name: "sub", Mode: 0755}).OK())
	res := ops.Rmdir(&xlator.PathRequest{Path: "sub"})
	assert.Equal(t, xlatorerr.EPERM, res.Err)
}

func TestRenameWithinSameDirectoryIsTransactional(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Mknod(&xlator.MknodRequest{Parent: "", Name: "old", Mode: 0644}).OK())

	res := ops.Rename(&xlator.RenameRequest{OldParent: "", OldName: "old", NewParent: "", NewName: "new"})
	require.True(t, res.OK())

	assert.Equal(t, xlatorerr.ENOENT, ops.Lookup(&xlator.LookupRequest{Parent: "", Name: "old"}).Err)
	require.True(t, ops.Lookup(&xlator.LookupRequest{Parent: "", Name: "new"}).OK())
}

func TestRenameAcrossDirectoriesMovesRecord(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Mkdir(&xlator.MkdirRequest{Parent: "", Name: "src", Mode: 0755}).OK())
	require.True(t, ops.Mkdir(&xlator.MkdirRequest{Parent: "", Name: "dst", Mode: 0755}).OK())
	require.True(t, ops.Mknod(&xlator.MknodRequest{Parent: "src", Name: "f", Mode: 0644}).OK())

	res := ops.Rename(&xlator.RenameRequest{OldParent: "src", OldName: "f", NewParent: "dst", NewName: "f"})
	require.True(t, res.OK())

	assert.Equal(t, xlatorerr.ENOENT, ops.Lookup(&xlator.LookupRequest{Parent: "src", Name: "f"}).Err)
	require.True(t, ops.Lookup(&xlator.LookupRequest{Parent: "dst", Name: "f"}).OK())
}

func TestXattrCallsOnRegularFilesAreRefused(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Mknod(&xlator.MknodRequest{Parent: "", Name: "f", Mode: 0644}).OK())

	assert.Equal(t, xlatorerr.EPERM, ops.Setxattr(&xlator.XattrRequest{Path: "f", Name: "user.tag", Value: []byte("v1")}).Err)
	assert.Equal(t, xlatorerr.EPERM, ops.Getxattr(&xlator.XattrRequest{Path: "f", Name: "user.tag"}).Err)
	assert.Equal(t, xlatorerr.EPERM, ops.Removexattr(&xlator.XattrRequest{Path: "f", Name: "user.tag"}).Err)
}

func TestFileContentXattrRoundTripsThroughDirectoryRecord(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Mkdir(&xlator.MkdirRequest{Parent: "", Name: "sub", Mode: 0755}).OK())

	set := ops.Setxattr(&xlator.XattrRequest{Path: "sub", Name: "glusterfs.file-content.X", Value: []byte("v1")})
	require.True(t, set.OK())

	got := ops.Getxattr(&xlator.XattrRequest{Path: "sub", Name: "glusterfs.file-content.X"})
	require.True(t, got.OK())
	assert.Equal(t, "v1", string(got.Data))

	removed := ops.Removexattr(&xlator.XattrRequest{Path: "sub", Name: "glusterfs.file-content.X"})
	require.True(t, removed.OK())

	missing := ops.Getxattr(&xlator.XattrRequest{Path: "sub", Name: "glusterfs.file-content.X"})
	assert.Equal(t, xlatorerr.ENOENT, missing.Err)
}

func TestDirectoryXattrRoundTripOrNotSupported(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Mkdir(&xlator.MkdirRequest{Parent: "", Name: "sub", Mode: 0755}).OK())

	set := ops.Setxattr(&xlator.XattrRequest{Path: "sub", Name: "user.tag", Value: []byte("v1")})
	if set.Err == xlatorerr.ENOTSUP {
		t.Skip("host filesystem does not support extended attributes")
	}
	require.True(t, set.OK())

	got := ops.Getxattr(&xlator.XattrRequest{Path: "sub", Name: "user.tag"})
	require.True(t, got.OK())
	assert.Equal(t, "v1", string(got.Data))
}

func TestSymlinkIsARealHostSymlinkAndResolvesViaReadlink(t *testing.T) {
	ops := newLeaf(t)
	res := ops.Symlink(&xlator.SymlinkRequest{Parent: "", Name: "link", Target: "/some/target"})
	require.True(t, res.OK())

	got := ops.Readlink(&xlator.PathRequest{Path: "link"})
	require.True(t, got.OK())
	assert.Equal(t, "/some/target", string(got.Data))

	dup := ops.Symlink(&xlator.SymlinkRequest{Parent: "", Name: "link", Target: "/other"})
	assert.Equal(t, xlatorerr.EEXIST, dup.Err)
}

func TestUnlinkFallsBackToHostRemoveForSymlinks(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Symlink(&xlator.SymlinkRequest{Parent: "", Name: "link", Target: "/x"}).OK())

	res := ops.Unlink(&xlator.PathRequest{Path: "link"})
	require.True(t, res.OK())

	assert.Equal(t, xlatorerr.ENOENT, ops.Unlink(&xlator.PathRequest{Path: "link"}).Err)
	assert.Equal(t, xlatorerr.ENOENT, ops.Unlink(&xlator.PathRequest{Path: "nonexistent"}).Err)
}

func TestRenameOntoExistingDirectoryIsRefused(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Mknod(&xlator.MknodRequest{Parent: "", Name: "f", Mode: 0644}).OK())
	require.True(t, ops.Mkdir(&xlator.MkdirRequest{Parent: "", Name: "sub", Mode: 0755}).OK())

	res := ops.Rename(&xlator.RenameRequest{OldParent: "", OldName: "f", NewParent: "", NewName: "sub"})
	assert.Equal(t, xlatorerr.EISDIR, res.Err)
}

func TestRenameAcrossKindsIsRefused(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Mknod(&xlator.MknodRequest{Parent: "", Name: "f", Mode: 0644}).OK())
	require.True(t, ops.Symlink(&xlator.SymlinkRequest{Parent: "", Name: "link", Target: "/x"}).OK())

	res := ops.Rename(&xlator.RenameRequest{OldParent: "", OldName: "f", NewParent: "", NewName: "link"})
	assert.Equal(t, xlatorerr.EINVAL, res.Err)
}

func TestSymlinkToSymlinkRenameUsesHostRename(t *testing.T) {
	ops := newLeaf(t)
	require.True(t, ops.Symlink(&xlator.SymlinkRequest{Parent: "", Name: "old", Target: "/x"}).OK())

	res := ops.Rename(&xlator.RenameRequest{OldParent: "", OldName: "old", NewParent: "", NewName: "new"})
	require.True(t, res.OK())

	got := ops.Readlink(&xlator.PathRequest{Path: "new"})
	require.True(t, got.OK())
	assert.Equal(t, "/x", string(got.Data))
}

func TestOpendirOnEmptyDirectoryIsImmediatelyEOF(t *testing.T) {
	ops := newLeaf(t)
	opened := ops.Opendir(&xlator.PathRequest{Path: ""})
	require.True(t, opened.OK())

	res := ops.Readdir(&xlator.ReaddirRequest{Handle: opened.Handle, Size: 16})
	require.True(t, res.OK())
	assert.Empty(t, res.Entries)
	assert.True(t, res.EOF)

	assert.True(t, ops.Closedir(&xlator.HandleRequest{Handle: opened.Handle}).OK())
}

func TestReaddirWithSmallSizeRequiresMultipleCalls(t *testing.T) {
	ops := newLeaf(t)
	for _, name := range []string{"a", "b", "c"} {
		require.True(t, ops.Mknod(&xlator.MknodRequest{Parent: "", Name: name, Mode: 0644}).OK())
	}

	opened := ops.Opendir(&xlator.PathRequest{Path: ""})
	require.True(t, opened.OK())

	seen := map[string]bool{}
	for {
		res := ops.Readdir(&xlator.ReaddirRequest{Handle: opened.Handle, Size: 1})
		require.True(t, res.OK())
		for _, e := range res.Entries {
			seen[e.Name] = true
		}
		if res.EOF {
			break
		}
	}
	assert.Len(t, seen, 3)
	assert.True(t, ops.Closedir(&xlator.HandleRequest{Handle: opened.Handle}).OK())
}

func TestChecksumReflectsDirectoryContents(t *testing.T) {
	ops := newLeaf(t)
	before := ops.Checksum(&xlator.PathRequest{Path: ""})
	require.True(t, before.OK())

	require.True(t, ops.Mknod(&xlator.MknodRequest{Parent: "", Name: "f", Mode: 0644}).OK())

	after := ops.Checksum(&xlator.PathRequest{Path: ""})
	require.True(t, after.OK())

	beforeSum, _ := before.Dict.Get("data-checksum")
	afterSum, _ := after.Dict.Get("data-checksum")
	assert.NotEqual(t, beforeSum.Bytes, afterSum.Bytes)
}

func TestExplicitRefusals(t *testing.T) {
	ops := newLeaf(t)
	assert.Equal(t, xlatorerr.ENOTSUP, ops.Link(&xlator.RenameRequest{}).Err)
	assert.Equal(t, xlatorerr.ENOTSUP, ops.Rmelem(&xlator.PathRequest{}).Err)
	assert.Equal(t, xlatorerr.ENOTSUP, ops.Lk(&xlator.HandleRequest{}).Err)
	assert.Equal(t, xlatorerr.ENOTSUP, ops.Fchown(&xlator.ChownRequest{}).Err)
	assert.Equal(t, xlatorerr.ENOTSUP, ops.Fchmod(&xlator.ChmodRequest{}).Err)
}

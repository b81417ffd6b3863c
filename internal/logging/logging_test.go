package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volgraph/volgraph/internal/logging"
)

func TestParseLevelKnownAndUnknown(t *testing.T) {
	lvl, err := logging.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", lvl.String())

	_, err = logging.ParseLevel("VERBOSE")
	assert.Error(t, err)
}

func TestRotateLeavesSymlinkPointingAtRenamedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volgraphd.log")
	require.NoError(t, os.WriteFile(path, []byte("old log line\n"), 0640))

	require.NoError(t, logging.Rotate(path))

	fi, err := os.Lstat(path)
	require.NoError(t, err)
	assert.True(t, fi.Mode()&os.ModeSymlink != 0)

	target, err := os.Readlink(path)
	require.NoError(t, err)
	assert.Contains(t, target, "volgraphd.log.")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old log line\n", string(data))
}

func TestRotateIsNoopWhenFileDoesNotExist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.log")
	assert.NoError(t, logging.Rotate(path))
	_, err := os.Lstat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewWritesToConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volgraphd.log")

	logger, err := logging.New(path, "NORMAL", "")
	require.NoError(t, err)
	logger.Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

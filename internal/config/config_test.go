package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volgraph/volgraph/internal/config"
)

func TestFromArgsDefaults(t *testing.T) {
	c, err := config.FromArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultVolumeSpecfile, c.VolumeSpecfile)
	assert.Equal(t, "NORMAL", c.LogLevel)
	assert.False(t, c.NoDaemon)
	assert.Equal(t, "", c.MountPoint)
}

func TestFromArgsDebugImpliesNoDaemonAndLogLevel(t *testing.T) {
	c, err := config.FromArgs([]string{"--debug"})
	require.NoError(t, err)
	assert.True(t, c.NoDaemon)
	assert.Equal(t, "DEBUG", c.LogLevel)
	assert.Equal(t, "", c.LogFile)
}

func TestFromArgsParsesMountPointAndXlatorOptions(t *testing.T) {
	c, err := config.FromArgs([]string{
		"--xlator-option=brick.directory=/data",
		"--xlator-option=brick.lru-limit=64",
		"/mnt/vol",
	})
	require.NoError(t, err)
	assert.Equal(t, "/mnt/vol", c.MountPoint)
	require.Len(t, c.XlatorOptions, 2)

	overrides, err := c.Overrides()
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.Equal(t, "brick", overrides[0].Volume)
	assert.Equal(t, "directory", overrides[0].Key)
	assert.Equal(t, "/data", overrides[0].Value)
}

func TestOverridesRejectsMalformedEntry(t *testing.T) {
	c, err := config.FromArgs([]string{"--xlator-option=not-valid"})
	require.NoError(t, err)
	_, err = c.Overrides()
	assert.Error(t, err)
}

func TestFromArgsSpecfileServerFlags(t *testing.T) {
	c, err := config.FromArgs([]string{
		"--specfile-server=10.0.0.1",
		"--specfile-server-port=24008",
		"--specfile-server-transport=tcp",
	})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", c.SpecfileServer)
	assert.Equal(t, "24008", c.SpecfileServerPort)
}

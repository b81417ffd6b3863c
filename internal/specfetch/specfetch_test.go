package specfetch_test

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volgraph/volgraph/internal/specfetch"
)

// TestMain lets this same test binary play both roles specfetch.Fetch
// needs: the re-exec'd binary runs RunChild instead of the normal test
// suite when invoked with the hidden child flag, exactly like
// cmd/volgraphd/main.go would dispatch in production.
func TestMain(m *testing.M) {
	if childArgs, ok := specfetch.IsChildInvocation(os.Args); ok {
		os.Exit(specfetch.RunChild(childArgs, logrus.New()))
	}
	os.Exit(m.Run())
}

func serveOneSpec(t *testing.T, ln net.Listener, spec []byte) {
	t.Helper()
	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)
	_, err = r.ReadString('\n')
	require.NoError(t, err)
	fmt.Fprintf(conn, "%d\n", len(spec))
	_, _ = conn.Write(spec)
}

func TestFetchSucceedsAgainstLiveServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	spec := []byte("volume brick\n    type storage/kv\nend-volume\n")
	go serveOneSpec(t, ln, spec)

	data, err := specfetch.Fetch(context.Background(), specfetch.Config{
		RemoteHost: host,
		RemotePort: port,
	}, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, spec, data)
}

func TestFetchFailsWithNonZeroExitWhenUnreachable(t *testing.T) {
	_, err := specfetch.Fetch(context.Background(), specfetch.Config{
		RemoteHost: "127.0.0.1",
		RemotePort: "1", // nothing listens on port 1
	}, logrus.New())
	require.Error(t, err)
	code, ok := specfetch.ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)
}

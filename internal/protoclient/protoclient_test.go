package protoclient_test

import (
	"bufio"
	"fmt"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/protoclient"
)

// serveSpecOnce accepts exactly one connection, reads the request line, and
// writes back spec prefixed with its length, mirroring the wire shape
// Client.getspec expects.
func serveSpecOnce(t *testing.T, ln net.Listener, spec []byte) {
	t.Helper()
	conn, err := ln.Accept()
	require.NoError(t, err)
	defer conn.Close()

	r := bufio.NewReader(conn)
	_, err = r.ReadString('\n')
	require.NoError(t, err)

	fmt.Fprintf(conn, "%d\n", len(spec))
	_, err = conn.Write(spec)
	require.NoError(t, err)
}

func TestGetspecRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	spec := []byte("volume brick\n    type storage/kv\nend-volume\n")
	go serveSpecOnce(t, ln, spec)

	opts := dict.New()
	opts.SetString("remote-host", host)
	opts.SetString("remote-port", port)
	tr, err := protoclient.New("client", opts, logrus.New())
	require.NoError(t, err)
	require.NoError(t, tr.Init())

	res := tr.MOps().Getspec()
	require.True(t, res.OK())
	require.Equal(t, spec, res.Data)
}

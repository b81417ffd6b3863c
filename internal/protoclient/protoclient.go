// Package protoclient implements the minimal protocol/client translator
// used only by the spec-fetch subsystem: it dials a remote volgraphd,
// issues a getspec request, and hands the raw bytes back to its caller.
// It is not a general-purpose RPC client — richer wire protocol framing
// stays out of scope here too; this exists solely to give
// internal/specfetch a real getspec call to drive.
package protoclient

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/graph"
	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

// TypeName is the translator type string resolved by the graph loader.
const TypeName = "protocol/client"

func init() {
	xlator.Register(TypeName, New)
}

const dialTimeout = 5 * time.Second

// Client is a leaf translator: no children, no file ops worth implementing,
// its only real behavior is the Getspec management op.
type Client struct {
	xlator.Base

	fops *xlator.FileOps
	mops *xlator.ManagementOps

	remoteHost string
	remotePort string
	transport  string
	subvolume  string
}

// New constructs a Client translator. Required options: "remote-host",
// "remote-port". Optional: "transport-type" (default "tcp"),
// "remote-subvolume" (default "brick").
func New(name string, opts *dict.Dict, logger *logrus.Logger) (xlator.Translator, error) {
	c := &Client{Base: xlator.NewBase(name, TypeName, logger)}
	c.Opts = opts
	c.fops = &xlator.FileOps{}
	c.mops = &xlator.ManagementOps{Getspec: c.getspec}
	return c, nil
}

func (c *Client) FOps() *xlator.FileOps       { return c.fops }
func (c *Client) MOps() *xlator.ManagementOps { return c.mops }

func (c *Client) Init() error {
	host, err := c.Opts.Get("remote-host")
	if err != nil {
		return errors.Wrap(err, "protocol/client: required option \"remote-host\" missing")
	}
	port, err := c.Opts.Get("remote-port")
	if err != nil {
		return errors.Wrap(err, "protocol/client: required option \"remote-port\" missing")
	}
	c.remoteHost = host.Str()
	c.remotePort = port.Str()
	c.transport = c.Opts.GetString("transport-type", "tcp")
	c.subvolume = c.Opts.GetString("remote-subvolume", "brick")

	xlator.FillDefaults(c, c.fops)
	return nil
}

func (c *Client) Notify(event xlator.Event, data any) error {
	return graph.DefaultNotify(c, event, data)
}

func (c *Client) Fini() error { return nil }

// getspec dials the remote host, requests the named remote subvolume's
// volume spec, and returns the raw bytes the server sent back. The wire
// shape is deliberately the simplest thing that could work: one request
// line, a length-prefixed response, then the server closes the connection.
func (c *Client) getspec() xlator.Result {
	addr := net.JoinHostPort(c.remoteHost, c.remotePort)
	conn, err := net.DialTimeout(c.transport, addr, dialTimeout)
	if err != nil {
		c.Log().WithError(err).Warn("protocol/client: dial failed")
		return xlator.ErrResult(xlatorerr.EIO)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(dialTimeout))
	if _, err := fmt.Fprintf(conn, "GETSPEC %s\n", c.subvolume); err != nil {
		return xlator.ErrResult(xlatorerr.EIO)
	}

	r := bufio.NewReader(conn)
	var length int64
	if _, err := fmt.Fscanf(r, "%d\n", &length); err != nil {
		return xlator.ErrResult(xlatorerr.EIO)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return xlator.ErrResult(xlatorerr.EIO)
	}
	return xlator.Result{Data: data}
}

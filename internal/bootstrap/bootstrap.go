// Package bootstrap assembles a config.Config into a running translator
// graph: resolving the volume spec (local file or specfetch-fetched),
// building and initializing the graph, wrapping it with the FUSE top
// translator when a mount point is given, and managing the pid file that
// tracks the running instance.
package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/volgraph/volgraph/internal/config"
	"github.com/volgraph/volgraph/internal/fusetop"
	"github.com/volgraph/volgraph/internal/graph"
	"github.com/volgraph/volgraph/internal/logging"
	"github.com/volgraph/volgraph/internal/specfetch"
	"github.com/volgraph/volgraph/internal/xlator"
)

// Context is one running volgraphd instance: the initialized graph, its
// logger, and the pid file holding the process alive for the duration of
// the run.
type Context struct {
	Top    xlator.Translator
	Logger *logrus.Logger

	pidFile *os.File
}

// Run resolves cfg's volume spec, builds and initializes the graph, wraps
// it in the FUSE top translator when cfg.MountPoint is set, and returns
// the assembled Context. The caller is responsible for calling Close.
func Run(ctx context.Context, cfg *config.Config) (*Context, error) {
	logger, err := logging.New(cfg.LogFile, cfg.LogLevel, cfg.RunID)
	if err != nil {
		return nil, err
	}

	overrides, err := cfg.Overrides()
	if err != nil {
		return nil, err
	}

	specBytes, err := resolveSpec(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	specs, err := graph.Parse(bytes.NewReader(specBytes))
	if err != nil {
		return nil, err
	}

	top, err := graph.Build(specs, graph.Options{
		VolumeName: cfg.VolumeName,
		Overrides:  overrides,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	if err := graph.InitGraph(top); err != nil {
		return nil, err
	}
	if err := graph.PropagateParentUp(top); err != nil {
		graph.FiniGraph(top)
		return nil, err
	}

	if cfg.MountPoint != "" {
		top, err = wrapFuse(top, logger)
		if err != nil {
			graph.FiniGraph(top)
			return nil, err
		}
	}

	bc := &Context{Top: top, Logger: logger}

	if cfg.PidFile != "" {
		pf, err := writePidFile(cfg.PidFile)
		if err != nil {
			graph.FiniGraph(top)
			return nil, err
		}
		bc.pidFile = pf
	}

	return bc, nil
}

// resolveSpec returns the raw volume spec text, either read from
// cfg.VolumeSpecfile or fetched from cfg.SpecfileServer when one is given.
func resolveSpec(ctx context.Context, cfg *config.Config, logger *logrus.Logger) ([]byte, error) {
	if cfg.SpecfileServer == "" {
		data, err := os.ReadFile(cfg.VolumeSpecfile)
		if err != nil {
			return nil, errors.Wrap(err, "bootstrap: reading volume spec file")
		}
		return data, nil
	}

	fc := specfetch.Config{
		RemoteHost: cfg.SpecfileServer,
		RemotePort: cfg.SpecfileServerPort,
		Transport:  cfg.SpecfileServerTransport,
	}
	data, err := specfetch.Fetch(ctx, fc, logger)
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap: fetching volume spec")
	}
	return data, nil
}

// wrapFuse inserts the FUSE top translator above the already-initialized
// graph, the way a running volgraphd does only once a mount point argument
// is present — a bare graph build (e.g. for spec validation) never needs
// it.
func wrapFuse(child xlator.Translator, logger *logrus.Logger) (xlator.Translator, error) {
	top, err := fusetop.New("fuse-top", nil, logger)
	if err != nil {
		return nil, err
	}
	xlator.Link(top, child)
	if err := top.Init(); err != nil {
		return nil, errors.Wrap(err, "bootstrap: initializing fuse top")
	}
	top.SetReady(true)
	return top, nil
}

// writePidFile implements the pid file convention: one line with the
// decimal pid, opened in append-then-truncate mode under an exclusive
// advisory lock so a second instance sharing the same pid file fails
// immediately instead of silently racing the first.
func writePidFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "bootstrap: opening pid file")
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "bootstrap: another instance holds the pid file lock")
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "bootstrap: truncating pid file")
	}
	if _, err := f.WriteString(fmt.Sprintf("%d\n", os.Getpid())); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "bootstrap: writing pid file")
	}
	return f, nil
}

// Close tears the graph down in reverse post-order and releases the pid
// file lock.
func (c *Context) Close() error {
	if c.Top != nil {
		graph.FiniGraph(c.Top)
	}
	if c.pidFile != nil {
		path := c.pidFile.Name()
		_ = unix.Flock(int(c.pidFile.Fd()), unix.LOCK_UN)
		err := c.pidFile.Close()
		_ = os.Remove(path)
		return err
	}
	return nil
}

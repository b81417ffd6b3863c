// Package specfetch implements the bootstrap-time remote volume spec
// fetch: build a throwaway two-node graph (a front translator over a
// protocol/client leaf), call the client's Getspec management op once
// (directly, without a frame), and hand the bytes back to the caller that
// will parse them as this process's real volume spec.
//
// The original design forks a child process so a getspec failure can never
// corrupt the parent's own state. Go has no safe, cheap fork() that leaves
// a live runtime behind in the child (goroutines, GC, open file
// descriptors all come along for the ride), so this package reimplements
// the same isolation by re-executing os.Args[0] with a hidden flag that
// makes the child process do nothing but the fetch and exit.
package specfetch

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/volgraph/volgraph/internal/graph"
	"github.com/volgraph/volgraph/internal/xlator"

	_ "github.com/volgraph/volgraph/internal/protoclient"
	_ "github.com/volgraph/volgraph/internal/xlators/trace"
)

// ChildFlag is the hidden argv[1] a re-exec'd child process checks for
// before cobra ever sees the command line.
const ChildFlag = "--internal-spec-fetch-child"

// Config names the remote volgraphd this process should fetch its volume
// spec from.
type Config struct {
	RemoteHost      string
	RemotePort      string
	Transport       string // default "tcp"
	RemoteSubvolume string // default "brick"
}

func (c Config) withDefaults() Config {
	if i := strings.IndexByte(c.Transport, ':'); i >= 0 {
		c.Transport = c.Transport[:i] // "transport[:protocol]": keep the transport
	}
	if c.Transport == "" {
		c.Transport = "tcp"
	}
	if c.RemoteSubvolume == "" {
		c.RemoteSubvolume = "brick"
	}
	return c
}

// Fetch re-execs the running binary as a spec-fetch child, waits for it to
// exit, and returns the bytes it wrote on success. A non-zero child exit
// code is surfaced as an error without further interpretation, matching
// the parent's original "inspect exit code" contract.
func Fetch(ctx context.Context, cfg Config, logger *logrus.Logger) ([]byte, error) {
	cfg = cfg.withDefaults()

	tmp, err := os.CreateTemp("", "volgraph-spec-*")
	if err != nil {
		return nil, errors.Wrap(err, "specfetch: creating temp file")
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{
		ChildFlag,
		"--spec-temp-file=" + tmpPath,
		"--remote-host=" + cfg.RemoteHost,
		"--remote-port=" + cfg.RemotePort,
		"--transport-type=" + cfg.Transport,
		"--remote-subvolume=" + cfg.RemoteSubvolume,
	}

	cmd := exec.CommandContext(ctx, os.Args[0], args...)
	cmd.Stderr = os.Stderr
	logger.WithField("args", args).Debug("specfetch: spawning child")

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "specfetch: child exited with error")
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, errors.Wrap(err, "specfetch: reading child output")
	}
	return data, nil
}

// RunChild is the entry point a re-exec'd process calls in place of its
// normal cobra command tree when argv[1] == ChildFlag. args is argv with
// the flag itself already stripped. It returns the process exit code the
// caller should use.
func RunChild(args []string, logger *logrus.Logger) int {
	fs := pflag.NewFlagSet("spec-fetch-child", pflag.ContinueOnError)
	tempFile := fs.String("spec-temp-file", "", "path to write the fetched spec to")
	remoteHost := fs.String("remote-host", "", "remote volgraphd host")
	remotePort := fs.String("remote-port", "", "remote volgraphd port")
	transport := fs.String("transport-type", "tcp", "transport dialed to reach the remote")
	remoteSubvolume := fs.String("remote-subvolume", "brick", "remote subvolume name requested")

	if err := fs.Parse(args); err != nil {
		logger.WithError(err).Error("specfetch child: parsing hidden flags")
		return 1
	}

	specs := []graph.VolumeSpec{
		{
			Name: "client",
			Type: "protocol/client",
			Options: []graph.OptionSpec{
				{Key: "remote-host", Value: *remoteHost},
				{Key: "remote-port", Value: *remotePort},
				{Key: "transport-type", Value: *transport},
				{Key: "remote-subvolume", Value: *remoteSubvolume},
			},
		},
		{
			Name:       "front",
			Type:       "debug/trace",
			Subvolumes: []string{"client"},
		},
	}

	top, err := graph.Build(specs, graph.Options{Logger: logger})
	if err != nil {
		logger.WithError(err).Error("specfetch child: building fetch graph")
		return 1
	}
	if err := graph.InitGraph(top); err != nil {
		logger.WithError(err).Error("specfetch child: initializing fetch graph")
		return 1
	}
	defer graph.FiniGraph(top)

	client, err := xlator.SoleChild(top)
	if err != nil {
		logger.WithError(err).Error("specfetch child: resolving client translator")
		return 1
	}

	res := client.MOps().Getspec()
	if !res.OK() {
		logger.WithField("errno", res.Err.String()).Error("specfetch child: getspec failed")
		return 1
	}

	if err := os.WriteFile(*tempFile, res.Data, 0600); err != nil {
		logger.WithError(err).Error("specfetch child: writing fetched spec")
		return 1
	}
	return 0
}

// IsChildInvocation reports whether args (ordinarily os.Args) names this
// process as a spec-fetch child, and returns the remaining arguments.
func IsChildInvocation(args []string) (childArgs []string, ok bool) {
	if len(args) >= 2 && args[1] == ChildFlag {
		return args[2:], true
	}
	return nil, false
}

// ExitCode extracts a child's exit status from the error Fetch returns,
// used by tests and callers that want to distinguish a fetch failure from
// a local error (temp file creation, exec itself failing to start).
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(errors.Cause(err), &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// Package config parses volgraphd's command-line surface into a typed
// Config struct, binding pflag flags directly to struct fields instead of
// reading them back out of a package-global flag set.
package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/volgraph/volgraph/internal/graph"
)

// Config is the fully parsed command line for one volgraphd invocation.
type Config struct {
	SpecfileServer          string
	SpecfileServerPort      string
	SpecfileServerTransport string
	VolumeSpecfile          string

	LogLevel string
	LogFile  string

	PidFile string
	NoDaemon bool
	RunID    string
	Debug    bool

	VolumeName    string
	XlatorOptions []string // "VOL.KEY=VALUE", repeatable

	DisableDirectIO bool
	EntryTimeout    float64
	AttrTimeout     float64
	NoDev           bool
	NoSuid          bool

	MountPoint string // positional argument, empty if not given
}

// FromArgs parses volgraphd's command line, independent of any
// particular flag-parsing front end (cobra wires this in for
// cmd/volgraphd; tests call it directly).
func FromArgs(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("volgraphd", pflag.ContinueOnError)
	c := &Config{}

	fs.StringVar(&c.SpecfileServer, "specfile-server", "", "host to fetch the volume spec from instead of a local file")
	fs.StringVar(&c.SpecfileServerPort, "specfile-server-port", "24007", "port of --specfile-server")
	fs.StringVar(&c.SpecfileServerTransport, "specfile-server-transport", "tcp", "transport[:protocol] used to reach --specfile-server")
	fs.StringVar(&c.VolumeSpecfile, "volume-specfile", DefaultVolumeSpecfile, "path to the local volume spec file")
	fs.StringVar(&c.LogLevel, "log-level", "NORMAL", "one of TRACE, DEBUG, WARNING, NORMAL, ERROR, CRITICAL, NONE")
	fs.StringVar(&c.LogFile, "log-file", "", "path to the log file; empty logs to stderr")
	fs.StringVar(&c.PidFile, "pid-file", "", "path to the pid file")
	fs.BoolVar(&c.NoDaemon, "no-daemon", false, "stay in the foreground")
	fs.StringVar(&c.RunID, "run-id", "", "rotate the log file under this run id on startup")
	fs.BoolVar(&c.Debug, "debug", false, "implies --no-daemon, --log-level=DEBUG, and console logging")
	fs.StringVar(&c.VolumeName, "volume-name", "", "override which declared volume becomes the graph top")
	fs.StringArrayVar(&c.XlatorOptions, "xlator-option", nil, "VOL.KEY=VALUE, repeatable")
	fs.BoolVar(&c.DisableDirectIO, "disable-direct-io-mode", false, "FUSE: disable direct I/O")
	fs.Float64Var(&c.EntryTimeout, "directory-entry-timeout", 1.0, "FUSE: directory entry cache timeout, seconds")
	fs.Float64Var(&c.AttrTimeout, "attribute-timeout", 1.0, "FUSE: attribute cache timeout, seconds")
	fs.BoolVar(&c.NoDev, "nodev", false, "FUSE: disallow device files")
	fs.BoolVar(&c.NoSuid, "nosuid", false, "FUSE: disallow suid/sgid bits")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "config: parsing flags")
	}

	if c.Debug {
		c.NoDaemon = true
		c.LogLevel = "DEBUG"
		c.LogFile = ""
	}

	if rest := fs.Args(); len(rest) > 0 {
		c.MountPoint = rest[0]
	}

	return c, nil
}

// DefaultVolumeSpecfile is the compile-time default path used when
// --volume-specfile is not given.
const DefaultVolumeSpecfile = "/etc/volgraph/volgraph.vol"

// Overrides converts the repeated --xlator-option flags into the graph
// loader's OptionOverride shape via graph.ParseOverride.
func (c *Config) Overrides() ([]graph.OptionOverride, error) {
	out := make([]graph.OptionOverride, 0, len(c.XlatorOptions))
	for _, raw := range c.XlatorOptions {
		o, err := graph.ParseOverride(raw)
		if err != nil {
			return nil, errors.Wrap(err, "config")
		}
		out = append(out, o)
	}
	return out, nil
}

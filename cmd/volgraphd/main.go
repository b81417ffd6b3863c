// Command volgraphd loads a volume spec, builds and initializes the
// translator graph it describes, and serves it until terminated.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/volgraph/volgraph/internal/bootstrap"
	"github.com/volgraph/volgraph/internal/config"
	"github.com/volgraph/volgraph/internal/specfetch"

	_ "github.com/volgraph/volgraph/internal/kvstore"
	_ "github.com/volgraph/volgraph/internal/xlators/trace"
)

func main() {
	if childArgs, ok := specfetch.IsChildInvocation(os.Args); ok {
		os.Exit(specfetch.RunChild(childArgs, logrus.New()))
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volgraphd [mount-point]",
		Short: "load a volume spec and serve the translator graph it describes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}
	bindFlags(cmd.Flags())
	return cmd
}

// bindFlags mirrors config.FromArgs's flag surface onto cmd's own
// pflag.FlagSet so `volgraphd --help` documents every flag, while the
// actual parsing still goes through config.FromArgs against the raw
// argument slice handed to RunE.
func bindFlags(fs *pflag.FlagSet) {
	fs.String("specfile-server", "", "host to fetch the volume spec from instead of a local file")
	fs.String("specfile-server-port", "24007", "port of --specfile-server")
	fs.String("specfile-server-transport", "tcp", "transport[:protocol] used to reach --specfile-server")
	fs.String("volume-specfile", config.DefaultVolumeSpecfile, "path to the local volume spec file")
	fs.String("log-level", "NORMAL", "one of TRACE, DEBUG, WARNING, NORMAL, ERROR, CRITICAL, NONE")
	fs.String("log-file", "", "path to the log file; empty logs to stderr")
	fs.String("pid-file", "", "path to the pid file")
	fs.Bool("no-daemon", false, "stay in the foreground")
	fs.String("run-id", "", "rotate the log file under this run id on startup")
	fs.Bool("debug", false, "implies --no-daemon, --log-level=DEBUG, and console logging")
	fs.String("volume-name", "", "override which declared volume becomes the graph top")
	fs.StringArray("xlator-option", nil, "VOL.KEY=VALUE, repeatable")
	fs.Bool("disable-direct-io-mode", false, "FUSE: disable direct I/O")
	fs.Float64("directory-entry-timeout", 1.0, "FUSE: directory entry cache timeout, seconds")
	fs.Float64("attribute-timeout", 1.0, "FUSE: attribute cache timeout, seconds")
	fs.Bool("nodev", false, "FUSE: disallow device files")
	fs.Bool("nosuid", false, "FUSE: disallow suid/sgid bits")
}

func run(cmd *cobra.Command, args []string) error {
	rawArgs := os.Args[1:]

	cfg, err := config.FromArgs(rawArgs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bc, err := bootstrap.Run(ctx, cfg)
	if err != nil {
		return err
	}
	defer bc.Close()

	bc.Logger.WithField("top", bc.Top.Name()).Info("volgraphd: graph ready")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	bc.Logger.Info("volgraphd: shutting down")
	return nil
}

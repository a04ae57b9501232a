// Command credrotated is a thin driver over the rotation engine: it loads
// a resource-configuration file, builds the concrete stores it names and an
// Azure cloud client, and invokes Initialize or Rotate for the resources the
// operator selects. It contains no scheduling loop, no retry queue, and no
// audit log persistence — those are explicitly left to the operator's
// own automation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsloom/credrotate/cmd/credrotated/commands"
	"github.com/opsloom/credrotate/internal/logging"
	"github.com/opsloom/credrotate/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  string
		noColor     bool
		debug       bool
		metricsAddr string
	)

	env := &commands.Environment{}
	var metricsServer *metrics.Server

	rootCmd := &cobra.Command{
		Use:     "credrotated",
		Short:   "Rotate database, storage, and manual credentials on a schedule you control",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env.Logger = logging.New(debug, noColor)
			env.ConfigPath = configFile
			metrics.Init()

			serverConfig := metrics.DefaultServerConfig()
			serverConfig.Addr = metricsAddr
			metricsServer = metrics.NewServer(serverConfig)
			metricsServer.Start(func(err error) {
				env.Logger.Warn("%v", err)
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "credrotate.yaml", "resource configuration file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9090 (default: disabled)")

	rootCmd.AddCommand(
		commands.NewInitializeCommand(env),
		commands.NewRotateCommand(env),
	)

	if err := rootCmd.Execute(); err != nil {
		return err
	}
	if metricsServer == nil {
		return nil
	}
	return metricsServer.Stop(context.Background())
}

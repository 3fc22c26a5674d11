// Command asyncnet runs a framed TCP echo or chat server and an interactive
// line client on top of the asyncnet package.
package main

import (
	"fmt"
	"os"

	"github.com/andrei-cloud/asyncnet/internal/logging"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "asyncnet",
		Short:         "Framed TCP server and client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console)")

	rootCmd.AddCommand(
		serveCmd(opts),
		connectCmd(opts),
		versionCmd(),
	)

	return rootCmd
}

// load reads the configuration file and applies the persistent flag overrides.
func (o *rootOptions) load() (*FileConfig, *logging.Logger, error) {
	cfg, err := Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}

	var lg *logging.Logger
	if cfg.LogFormat == "console" {
		lg = logging.Console(os.Stderr, cfg.LogLevel)
	} else {
		lg = logging.New(os.Stderr, cfg.LogLevel)
	}

	return cfg, lg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "asyncnet %s (%s)\n", version, commit)
		},
	}
}

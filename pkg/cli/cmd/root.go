package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rzbill/labnet/internal/config"
	"github.com/rzbill/labnet/pkg/cli/format"
	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/version"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
}

// ExitError makes the process exit with Code without printing anything else.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCmd builds the labnet command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "labnet",
		Short: "labnet - testbed cluster topology generator",
		Long: `labnet generates the request descriptor of a multi-tier test cluster
(tor, aggregation and core LANs with a jumphost, an experiment controller
and a set of workers) for a shared testbed, and checks reachability and
throughput between the provisioned hosts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./labnet.yaml or $HOME/.labnet/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(newGenerateCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newShowCmd(opts))
	rootCmd.AddCommand(newProbeCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, format.Error("Error: %v", err))
		os.Exit(1)
	}
}

// loadConfig reads the configuration and sets up the logger for cmd.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, log.Logger, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, nil, err
	}

	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Output = cmd.ErrOrStderr()

	logger, err := log.ApplyConfig(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	log.SetDefaultLogger(logger)

	if opts.verbose && opts.cfgFile != "" {
		logger.Debug("using config file", log.Str("path", opts.cfgFile))
	}
	return cfg, logger, nil
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rzbill/labnet/internal/config"
	"github.com/rzbill/labnet/pkg/cli/format"
	"github.com/rzbill/labnet/pkg/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize labnet configuration",
		Long: `Inspect and initialize labnet configuration.

Settings are read from --config, ./labnet.yaml or $HOME/.labnet/config.yaml,
and can be overridden with LABNET_* environment variables such as
LABNET_CLUSTER_NUM_TOR or LABNET_PROBE_USER.`,
	}

	cmd.AddCommand(newConfigViewCmd(global))
	cmd.AddCommand(newConfigInitCmd(global))

	return cmd
}

func newConfigViewCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, global)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigInitCmd(global *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file holding the default settings",
		Example: `  labnet config init
  labnet config init ./labnet.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := getConfigPath(global)
			if len(args) == 1 {
				path = args[0]
			}

			if utils.FileExists(path) && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}

			if err := saveConfig(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", format.StatusSymbol(true), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// saveConfig writes cfg to path as yaml.
func saveConfig(path string, cfg *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// getConfigPath returns the file config init writes by default.
func getConfigPath(global *globalOptions) string {
	if global.cfgFile != "" {
		return global.cfgFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./labnet.yaml"
	}
	return filepath.Join(home, ".labnet", "config.yaml")
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/theodtasia/sna-recommendation-system/internal/config"
)

var configInit bool

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write the effective configuration to the config path")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after applying sna.yml, SNA_* environment
variables and flags.

Usage:
  sna config                 # Show effective config
  sna config --human         # Show as YAML
  sna config --init          # Write it to sna.yml (or --config)`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Path   string         `json:"path"`
	Config *config.Config `json:"config"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := resolveConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	applyFlagOverrides(cfg)

	if configInit {
		if err := cfg.Save(path); err != nil {
			exitWithError(ExitError, "saving config: %v", err)
		}
	}

	if humanOutput {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		outputHuman("# %s\n%s", path, data)
		return nil
	}
	return outputJSON(ConfigResponse{Path: path, Config: cfg})
}

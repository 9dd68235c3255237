// Package main provides the sna CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theodtasia/sna-recommendation-system/internal/config"
	"github.com/theodtasia/sna-recommendation-system/internal/edgecache"
	"github.com/theodtasia/sna-recommendation-system/internal/logging"
	"github.com/theodtasia/sna-recommendation-system/internal/source"
)

// Version is set at build time via ldflags
var Version = "dev"

// Persistent flags
var (
	humanOutput  bool
	configPath   string
	dataDirFlag  string
	cacheDirFlag string
	logLevelFlag string
	devLogging   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sna",
	Short: "Link prediction data pipeline over daily interaction graphs",
	Long: `sna prepares link prediction datasets from a sequence of daily
interaction graphs.

It builds per-day test edges (positives plus exhaustive negatives) and
pairwise similarity attributes of the cumulative graph, caches them on disk,
and walks the days in order pairing each day's training graph with the next
day's test edges.

Configuration is read from sna.yml (searched upward from the working
directory), then SNA_* environment variables (a .env file is honored), then
flags. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to sna.yml (default: search upward from the working directory)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Override data_dir")
	rootCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "Override cache_dir")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override log_level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&devLogging, "dev", false, "Use console log encoding")
	rootCmd.Version = Version
}

// resolveConfigPath returns --config, or the nearest sna.yml, or sna.yml in
// the working directory when none exists.
func resolveConfigPath() string {
	if configPath != "" {
		return config.ExpandPath(configPath)
	}
	if found, err := config.FindConfig("."); err == nil {
		return found
	}
	return config.ConfigFile
}

// applyFlagOverrides applies command line overrides on top of cfg.
func applyFlagOverrides(cfg *config.Config) {
	if dataDirFlag != "" {
		cfg.DataDir = config.ExpandPath(dataDirFlag)
	}
	if cacheDirFlag != "" {
		cfg.CacheDir = config.ExpandPath(cacheDirFlag)
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
}

// mustLoadConfig loads, overrides and validates configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		exitWithError(exitCode(err), "invalid config: %v", err)
	}
	return cfg
}

// mustNewLogger builds the logger for cfg, exits on error.
func mustNewLogger(cfg *config.Config) *zap.Logger {
	logger, err := logging.New(cfg.LogLevel, devLogging)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return logger
}

// mustOpenSource opens the day graph directory, exits on error.
func mustOpenSource(cfg *config.Config, logger *zap.Logger) *source.Dir {
	src, err := source.Open(cfg.DataDir, logger)
	if err != nil {
		exitWithError(exitCode(err), "opening day graphs: %v", err)
	}
	return src
}

// mustNewHandler creates the edge cache handler, exits on error.
func mustNewHandler(src source.Source, cfg *config.Config, logger *zap.Logger) *edgecache.Handler {
	h, err := edgecache.New(src, cfg.EdgeCache(), logger)
	if err != nil {
		exitWithError(ExitConfigError, "creating edge cache: %v", err)
	}
	return h
}

// mustBuildCache runs the cache build, exits on error.
func mustBuildCache(ctx context.Context, h *edgecache.Handler) *edgecache.BuildReport {
	report, err := h.Build(ctx)
	if err != nil {
		exitWithError(exitCode(err), "building edge cache: %v", err)
	}
	return report
}

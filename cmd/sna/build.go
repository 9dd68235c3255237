package main

import (
	"github.com/spf13/cobra"

	"github.com/theodtasia/sna-recommendation-system/internal/config"
)

var (
	buildFindTestEdges  bool
	buildRerunEdgeAttrs bool
	buildDayLimit       int
	buildNoEdgeAttrs    bool
)

func init() {
	buildCmd.Flags().BoolVar(&buildFindTestEdges, "find-test-edges", false, "Recompute every test edge file")
	buildCmd.Flags().BoolVar(&buildRerunEdgeAttrs, "rerun-edge-attrs", false, "Recompute every edge attribute file up to the day limit")
	buildCmd.Flags().IntVar(&buildDayLimit, "day-limit", -1, "Last day to compute edge attributes for (-1 for all days)")
	buildCmd.Flags().BoolVar(&buildNoEdgeAttrs, "no-edge-attrs", false, "Skip edge attributes")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the test edge and edge attribute caches",
	Long: `Build the per-day caches under cache_dir.

Days whose files already exist are kept and only missing days are
recomputed. Use --find-test-edges or --rerun-edge-attrs to force a rebuild.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

// applyBuildFlags copies explicitly set build flags onto cfg.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config) {
	if buildFindTestEdges {
		cfg.FindTestEdges = true
	}
	if buildRerunEdgeAttrs {
		cfg.RerunEdgeAttrs = true
	}
	if buildNoEdgeAttrs {
		cfg.UseEdgeAttrs = false
	}
	if cmd.Flags().Changed("day-limit") {
		cfg.RerunEdgeAttrsDayLimit = buildDayLimit
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	applyBuildFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		exitWithError(exitCode(err), "invalid config: %v", err)
	}

	logger := mustNewLogger(cfg)
	defer logger.Sync()

	src := mustOpenSource(cfg, logger)
	h := mustNewHandler(src, cfg, logger)
	report := mustBuildCache(cmd.Context(), h)

	if humanOutput {
		if report.Skipped {
			outputHuman("Caches up to date (%d days)\n", report.Days)
			return nil
		}
		outputHuman("Built caches for %d days in %s\n", report.Days, report.Elapsed)
		outputHuman("  test edge files:      %d\n", len(report.TestEdgesWritten))
		outputHuman("  edge attribute files: %d\n", len(report.AttrsWritten))
		outputHuman("  run id:               %s\n", report.RunID)
		return nil
	}
	return outputJSON(report)
}

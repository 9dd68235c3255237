package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/theodtasia/sna-recommendation-system/internal/storage"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Rebuild the cache index and show per-day cache status",
	Long: `Rebuild the SQLite index from the cache files and print one row per day.

The index is derived data: it can be deleted at any time and is rebuilt
from the cache directories on every run. Nothing is computed; days that were
never built show as missing.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

// mustOpenIndex opens the cache index, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenIndex(path string) *storage.DB {
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening cache index: %v", err)
	}
	return db
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := mustNewLogger(cfg)
	defer logger.Sync()

	src := mustOpenSource(cfg, logger)
	h := mustNewHandler(src, cfg, logger)

	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		exitWithError(ExitError, "creating cache dir: %v", err)
	}
	db := mustOpenIndex(cfg.IndexDBPath())
	defer db.Close()

	count, err := db.RebuildFromCache(h, src.NumOfGraphs())
	if err != nil {
		exitWithError(exitCode(err), "indexing cache: %v", err)
	}
	days, err := db.ListDays()
	if err != nil {
		exitWithError(ExitError, "listing days: %v", err)
	}

	if humanOutput {
		outputHuman("%d days, %d indexed test pairs\n\n", len(days), count)
		outputHuman("%-5s %-10s %-10s %-10s %-8s\n", "day", "positives", "negatives", "attrs", "entries")
		for _, d := range days {
			if !d.HasTestEdges {
				outputHuman("%-5d %-10s %-10s %-10s %-8d\n", d.Day, "missing", "-", yesNo(d.HasAttrs), d.AttrEntries)
				continue
			}
			outputHuman("%-5d %-10d %-10d %-10s %-8d\n", d.Day, d.Positives, d.Negatives, yesNo(d.HasAttrs), d.AttrEntries)
		}
		return nil
	}
	return outputJSON(StatusResponse{
		DataDir:   cfg.DataDir,
		CacheDir:  cfg.CacheDir,
		IndexPath: cfg.IndexDBPath(),
		Days:      days,
		TestEdges: count,
	})
}

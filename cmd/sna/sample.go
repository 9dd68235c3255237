package main

import (
	"github.com/spf13/cobra"

	"github.com/theodtasia/sna-recommendation-system/internal/dataset"
	"github.com/theodtasia/sna-recommendation-system/internal/sampling"
)

var (
	sampleDay  int
	sampleSeed uint64
)

func init() {
	sampleCmd.Flags().IntVar(&sampleDay, "day", 0, "Training day to sample negatives for")
	sampleCmd.Flags().Uint64Var(&sampleSeed, "seed", 0, "Random seed (default: seed from config)")
	rootCmd.AddCommand(sampleCmd)
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print training negatives for a day",
	Long: `Advance the dataset to --day and draw as many random non-edges as there
are directed training edges, over node ids 0..max_node. Every sampled pair
is printed in both orientations with its edge attributes.`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if cmd.Flags().Changed("seed") {
		cfg.Seed = sampleSeed
	}
	logger := mustNewLogger(cfg)
	defer logger.Sync()

	if sampleDay < dataset.InitDay {
		exitWithError(ExitError, "day must be >= %d", dataset.InitDay)
	}

	ds := mustNewDataset(cmd, cfg, logger)
	for ds.Day() < sampleDay {
		if !ds.HasNext() {
			exitWithError(ExitDataError, "day %d has no test day after it (%d days)", sampleDay, ds.NumOfGraphs())
		}
		if _, _, err := ds.GetDataset(cmd.Context()); err != nil {
			exitWithError(exitCode(err), "day %d: %v", ds.Day()+1, err)
		}
	}

	neg, err := ds.NegativeSampling(sampling.NewRand(cfg.Seed))
	if err != nil {
		exitWithError(exitCode(err), "sampling: %v", err)
	}

	if humanOutput {
		outputHuman("day %d: %d sampled pairs (seed %d)\n", ds.Day(), len(neg.Edges), cfg.Seed)
		for i, p := range neg.Edges {
			outputHuman("  %d %d %v\n", p.U, p.V, neg.Attributes[i])
		}
		return nil
	}
	return outputJSON(SampleResponse{
		Day:        ds.Day(),
		Seed:       cfg.Seed,
		Requested:  ds.NumTrainEdges(),
		Edges:      pairsToJSON(neg.Edges),
		Attributes: neg.Attributes,
	})
}

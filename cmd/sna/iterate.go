package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theodtasia/sna-recommendation-system/internal/config"
	"github.com/theodtasia/sna-recommendation-system/internal/dataset"
	"github.com/theodtasia/sna-recommendation-system/internal/edgecache"
	"github.com/theodtasia/sna-recommendation-system/internal/features"
	"github.com/theodtasia/sna-recommendation-system/internal/sampling"
	"github.com/theodtasia/sna-recommendation-system/internal/source"
	"github.com/theodtasia/sna-recommendation-system/internal/storage"
)

var (
	iterateNegativeSampling bool
	iterateOut              string
)

func init() {
	iterateCmd.Flags().BoolVar(&iterateNegativeSampling, "negative-sampling", false, "Draw training negatives for every day")
	iterateCmd.Flags().StringVar(&iterateOut, "out", "", "Also append each day summary to this JSONL file")
	rootCmd.AddCommand(iterateCmd)
}

var iterateCmd = &cobra.Command{
	Use:   "iterate",
	Short: "Walk the days and summarize each training/test split",
	Long: `Walk the day graphs in order, building the caches first if needed.

For every day d the training graph holds all edges of days 0..d and the test
edges come from day d+1. One JSON line is printed per day; --out appends
the same lines to a JSONL file so runs can be compared later.`,
	Args: cobra.NoArgs,
	RunE: runIterate,
}

// mustLoadFeatures loads node features when node_attributes is configured.
// Returns nil when it is not.
func mustLoadFeatures(cfg *config.Config, src source.Source) dataset.FeatureSource {
	if cfg.NodeAttributes == "" {
		return nil
	}
	e, err := features.Load(cfg.NodeAttributes, src, cfg.Features())
	if err != nil {
		exitWithError(ExitDataError, "loading node features: %v", err)
	}
	return e
}

// mustNewDataset builds the cache and returns a dataset positioned before day 0.
func mustNewDataset(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) *dataset.Dataset {
	src := mustOpenSource(cfg, logger)
	h := mustNewHandler(src, cfg, logger)
	mustBuildCache(cmd.Context(), h)
	feats := mustLoadFeatures(cfg, src)
	return dataset.New(src, h, feats, dataset.Options{ExtractTopologicalAttrs: cfg.ExtractTopologicalAttrs}, logger)
}

// summarize condenses one GetDataset result.
func summarize(ds *dataset.Dataset, train *dataset.TrainEdges, test *edgecache.TestEdgeSet) DaySummary {
	s := DaySummary{
		Day:           ds.Day(),
		TrainEdges:    len(train.Edges),
		TestPositives: test.NumPositives(),
		TestNegatives: test.Len() - test.NumPositives(),
		MaxNode:       ds.MaxNode(),
	}
	if train.Attributes != nil {
		s.TrainAttrEntries = train.Attributes.Len()
	}
	if x := ds.Features(); x != nil {
		s.FeatureRows, s.FeatureCols = x.Dims()
	}
	return s
}

func runIterate(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	logger := mustNewLogger(cfg)
	defer logger.Sync()

	ds := mustNewDataset(cmd, cfg, logger)
	rng := sampling.NewRand(cfg.Seed)

	for ds.HasNext() {
		train, test, err := ds.GetDataset(cmd.Context())
		if err != nil {
			exitWithError(exitCode(err), "day %d: %v", ds.Day()+1, err)
		}
		summary := summarize(ds, train, test)

		if iterateNegativeSampling {
			neg, err := ds.NegativeSampling(rng)
			if err != nil {
				exitWithError(exitCode(err), "sampling day %d: %v", ds.Day(), err)
			}
			summary.SampledNegatives = len(neg.Edges)
		}

		if iterateOut != "" {
			if err := storage.AppendJSONL(iterateOut, summary); err != nil {
				exitWithError(ExitError, "writing summary: %v", err)
			}
		}

		if humanOutput {
			outputHuman("day %d: train=%d test=+%d/-%d attrs=%d max_node=%d\n",
				summary.Day, summary.TrainEdges, summary.TestPositives, summary.TestNegatives,
				summary.TrainAttrEntries, summary.MaxNode)
			continue
		}
		if err := outputJSONCompact(summary); err != nil {
			return err
		}
	}
	return nil
}

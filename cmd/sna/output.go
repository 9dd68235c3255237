package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/theodtasia/sna-recommendation-system/internal/edge"
	"github.com/theodtasia/sna-recommendation-system/internal/storage"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputJSONCompact writes a value as compact JSON to stdout.
func outputJSONCompact(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DaySummary is one line of `sna iterate` output.
type DaySummary struct {
	Day              int   `json:"day"`
	TrainEdges       int   `json:"train_edges"`
	TrainAttrEntries int   `json:"train_attr_entries"`
	TestPositives    int   `json:"test_positives"`
	TestNegatives    int   `json:"test_negatives"`
	MaxNode          int64 `json:"max_node"`
	FeatureRows      int   `json:"feature_rows,omitempty"`
	FeatureCols      int   `json:"feature_cols,omitempty"`
	SampledNegatives int   `json:"sampled_negatives,omitempty"`
}

// SampleResponse is the response for `sna sample`.
type SampleResponse struct {
	Day        int         `json:"day"`
	Seed       uint64      `json:"seed"`
	Requested  int         `json:"requested"`
	Edges      [][2]int64  `json:"edges"`
	Attributes [][]float64 `json:"attributes,omitempty"`
}

// StatusResponse is the response for `sna status`.
type StatusResponse struct {
	DataDir   string              `json:"data_dir"`
	CacheDir  string              `json:"cache_dir"`
	IndexPath string              `json:"index_path"`
	Days      []storage.DayStatus `json:"days"`
	TestEdges int                 `json:"test_edges"`
}

// pairsToJSON converts pairs to [u,v] arrays, matching the cache file format.
func pairsToJSON(pairs []edge.Pair) [][2]int64 {
	out := make([][2]int64, len(pairs))
	for i, p := range pairs {
		out[i] = [2]int64{p.U, p.V}
	}
	return out
}

// yesNo renders a flag for human output.
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

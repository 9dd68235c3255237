package edgecache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodtasia/sna-recommendation-system/internal/edge"
	"github.com/theodtasia/sna-recommendation-system/internal/graph"
	"github.com/theodtasia/sna-recommendation-system/internal/source"
)

type dayFixture struct {
	nodes []int64
	pairs []edge.Pair
}

// threeDays: day 1 introduces (1,3), which must never be a negative again.
var threeDays = []dayFixture{
	{nodes: []int64{1, 2, 3}, pairs: []edge.Pair{{U: 1, V: 2}}},
	{nodes: []int64{1, 2, 3, 4}, pairs: []edge.Pair{{U: 3, V: 1}, {U: 2, V: 4}}},
	{nodes: []int64{1, 2, 3, 4}, pairs: []edge.Pair{{U: 1, V: 4}, {U: 3, V: 4}}},
}

func writeFixture(t *testing.T, days []dayFixture) (string, *source.Dir) {
	t.Helper()
	dataDir := t.TempDir()
	for day, f := range days {
		g, err := graph.FromPairs(f.nodes, f.pairs)
		require.NoError(t, err)
		require.NoError(t, source.SaveDayGraph(dataDir, day, g))
	}
	src, err := source.Open(dataDir, nil)
	require.NoError(t, err)
	return dataDir, src
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cacheDir := t.TempDir()
	return Config{
		TestEdgesDir: filepath.Join(cacheDir, "test_edges"),
		EdgeAttrsDir: filepath.Join(cacheDir, "edge_attributes"),
		UseEdgeAttrs: true,
		DayLimit:     NoDayLimit,
	}
}

func buildHandler(t *testing.T, src source.Source, cfg Config) (*Handler, *BuildReport) {
	t.Helper()
	h, err := New(src, cfg, nil)
	require.NoError(t, err)
	report, err := h.Build(context.Background())
	require.NoError(t, err)
	return h, report
}

func TestDayTestEdges_SingleDay(t *testing.T) {
	day, err := graph.FromPairs([]int64{1, 2, 3}, []edge.Pair{{U: 2, V: 1}})
	require.NoError(t, err)
	merged := graph.New()
	merged.Compose(day)

	set := DayTestEdges(day, merged)

	assert.Equal(t, []edge.Pair{{U: 1, V: 2}, {U: 1, V: 3}, {U: 2, V: 3}}, set.Edges)
	assert.Equal(t, []bool{true, false, false}, set.Targets)
	assert.Equal(t, []int64{1, 1, 2}, set.Indexes)
	assert.NoError(t, set.Validate())
}

func TestDayTestEdges_ExcludesEarlierEdges(t *testing.T) {
	merged := graph.New()
	old, err := graph.FromPairs(nil, []edge.Pair{{U: 1, V: 3}})
	require.NoError(t, err)
	merged.Compose(old)

	day, err := graph.FromPairs([]int64{1, 2, 3}, nil)
	require.NoError(t, err)
	merged.Compose(day)

	set := DayTestEdges(day, merged)

	assert.Equal(t, []edge.Pair{{U: 1, V: 2}, {U: 2, V: 3}}, set.Negatives())
	assert.Empty(t, set.Positives())
}

func TestBuild_Properties(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	h, report := buildHandler(t, src, testConfig(t))

	assert.False(t, report.Skipped)
	assert.Equal(t, []int{0, 1, 2}, report.TestEdgesWritten)
	assert.Equal(t, []int{0, 1, 2}, report.AttrsWritten)
	assert.NotEmpty(t, report.RunID)

	merged := graph.New()
	for day, f := range threeDays {
		dayGraph, err := graph.FromPairs(f.nodes, f.pairs)
		require.NoError(t, err)
		merged.Compose(dayGraph)

		set, err := h.LoadTestEdges(day)
		require.NoError(t, err)
		require.NoError(t, set.Validate())
		assert.Len(t, set.Targets, set.Len())
		assert.Len(t, set.Indexes, set.Len())

		for _, p := range set.Negatives() {
			assert.False(t, merged.HasEdge(p.U, p.V), "day %d negative %v is a merged edge", day, p)
			assert.Less(t, p.U, p.V)
		}
		for _, p := range set.Positives() {
			assert.True(t, dayGraph.HasEdge(p.U, p.V), "day %d positive %v not in day graph", day, p)
		}
		for i, p := range set.Edges {
			assert.Equal(t, p.U, set.Indexes[i])
		}
		if day >= 1 {
			assert.NotContains(t, set.Negatives(), edge.Pair{U: 1, V: 3})
		}
	}
}

func TestBuild_DayTwoNegatives(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	h, _ := buildHandler(t, src, testConfig(t))

	set, err := h.LoadTestEdges(2)
	require.NoError(t, err)

	// (1,2), (1,3), (2,4) are earlier edges; only (2,3) was never observed
	assert.Equal(t, []edge.Pair{{U: 1, V: 4}, {U: 3, V: 4}, {U: 2, V: 3}}, set.Edges)
	assert.Equal(t, []bool{true, true, false}, set.Targets)
	assert.Equal(t, []int64{1, 3, 2}, set.Indexes)
}

func TestBuild_Idempotent(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	cfg := testConfig(t)
	h, _ := buildHandler(t, src, cfg)

	before := readCacheFiles(t, h, len(threeDays))

	_, report := buildHandler(t, src, cfg)
	assert.True(t, report.Skipped)
	assert.Equal(t, before, readCacheFiles(t, h, len(threeDays)))
}

func TestBuild_ResumesMissingLastDay(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	cfg := testConfig(t)
	h, _ := buildHandler(t, src, cfg)

	before := readCacheFiles(t, h, len(threeDays))
	require.NoError(t, os.Remove(h.TestEdgesPath(2)))

	_, report := buildHandler(t, src, cfg)
	assert.False(t, report.Skipped)
	assert.Equal(t, []int{2}, report.TestEdgesWritten)
	assert.Empty(t, report.AttrsWritten)
	assert.Equal(t, before, readCacheFiles(t, h, len(threeDays)))
}

func TestBuild_ResumesMissingInteriorDay(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	cfg := testConfig(t)
	h, _ := buildHandler(t, src, cfg)

	before := readCacheFiles(t, h, len(threeDays))
	require.NoError(t, os.Remove(h.TestEdgesPath(1)))
	require.NoError(t, os.Remove(h.EdgeAttrsPath(1)))

	rebuilt, report := buildHandler(t, src, cfg)
	assert.False(t, report.Skipped)
	assert.Equal(t, []int{1}, report.TestEdgesWritten)
	assert.Equal(t, []int{1}, report.AttrsWritten)
	assert.Equal(t, before, readCacheFiles(t, h, len(threeDays)))

	set, err := rebuilt.LoadTestEdges(1)
	require.NoError(t, err)
	assert.Equal(t, 2, set.NumPositives())
}

func TestBuild_ForceRebuildIsDeterministic(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	cfg := testConfig(t)
	h, _ := buildHandler(t, src, cfg)
	before := readCacheFiles(t, h, len(threeDays))

	cfg.FindTestEdges = true
	cfg.RerunEdgeAttrs = true
	forced, report := buildHandler(t, src, cfg)
	assert.Equal(t, []int{0, 1, 2}, report.TestEdgesWritten)
	assert.Equal(t, []int{0, 1, 2}, report.AttrsWritten)
	assert.Equal(t, before, readCacheFiles(t, h, len(threeDays)))

	// force flags are consumed by the first build
	again, err := forced.Build(context.Background())
	require.NoError(t, err)
	assert.True(t, again.Skipped)
}

func TestBuild_DayLimit(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	cfg := testConfig(t)
	cfg.DayLimit = 0
	h, report := buildHandler(t, src, cfg)

	assert.Equal(t, []int{0}, report.AttrsWritten)

	table, err := h.LoadEdgeAttributes(1)
	require.NoError(t, err)
	assert.Nil(t, table)

	// attributes past the limit fall back to zero vectors
	set, err := h.LoadTestEdges(1)
	require.NoError(t, err)
	require.Len(t, set.Attributes, set.Len())
	for _, vec := range set.Attributes {
		assert.Equal(t, []float64{0, 0, 0}, vec)
	}

	_, report = buildHandler(t, src, cfg)
	assert.True(t, report.Skipped)
}

func TestBuild_WithoutEdgeAttrs(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	cfg := testConfig(t)
	cfg.UseEdgeAttrs = false
	h, report := buildHandler(t, src, cfg)

	assert.Empty(t, report.AttrsWritten)
	entries, err := os.ReadDir(cfg.EdgeAttrsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	set, err := h.LoadTestEdges(0)
	require.NoError(t, err)
	assert.Nil(t, set.Attributes)
}

func TestBuild_Canceled(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	h, err := New(src, testConfig(t), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadTestEdges_Missing(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	h, _ := buildHandler(t, src, testConfig(t))

	_, err := h.LoadTestEdges(7)
	assert.ErrorIs(t, err, ErrTestEdgesNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadTestEdges_Attributes(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	h, _ := buildHandler(t, src, testConfig(t))

	set, err := h.LoadTestEdges(1)
	require.NoError(t, err)
	require.Len(t, set.Attributes, set.Len())

	// merged through day 1: (1,2), (1,3), (2,4); deg(1)=2, deg(3)=1
	idx := -1
	for i, p := range set.Edges {
		if p == (edge.Pair{U: 1, V: 3}) {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	assert.InDeltaSlice(t, []float64{0, 0, 2}, set.Attributes[idx], 1e-12)

	for i, target := range set.Targets {
		if !target {
			assert.Equal(t, []float64{0, 0, 0}, set.Attributes[i])
		}
	}
}

func TestLoadEdgeAttributes(t *testing.T) {
	_, src := writeFixture(t, threeDays)
	h, _ := buildHandler(t, src, testConfig(t))

	table, err := h.LoadEdgeAttributes(1)
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, EdgeAttributesDim, table.Dim)
	assert.Equal(t, 3, table.Len())

	vals, ok := table.Get(3, 1)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0, 0, 2}, vals, 1e-12)

	missing, err := h.LoadEdgeAttributes(42)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNew_Validation(t *testing.T) {
	_, src := writeFixture(t, threeDays)

	_, err := New(src, Config{}, nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.DayLimit = -2
	_, err = New(src, cfg, nil)
	assert.Error(t, err)
}

func readCacheFiles(t *testing.T, h *Handler, days int) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	for day := 0; day < days; day++ {
		for _, path := range []string{h.TestEdgesPath(day), h.EdgeAttrsPath(day)} {
			data, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				continue
			}
			require.NoError(t, err)
			out[path] = data
		}
	}
	return out
}

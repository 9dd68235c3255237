// Package edgecache builds, persists and serves the per-day evaluation edges
// (positives plus exhaustive negatives) and the pairwise similarity attributes
// of the cumulative graph.
//
// Cache files live in two directories, one file per day:
//
//	<test edges dir>/negativeG_{day}
//	<edge attributes dir>/edge_attrsG_{day}
//
// The presence of a file means the day is already computed. Build skips such
// days, so re-running it is idempotent and resumes after a partial failure.
package edgecache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/theodtasia/sna-recommendation-system/internal/graph"
	"github.com/theodtasia/sna-recommendation-system/internal/logging"
	"github.com/theodtasia/sna-recommendation-system/internal/source"
)

// File name prefixes inside the cache directories.
const (
	TestEdgesFilePrefix = "negativeG_"
	EdgeAttrsFilePrefix = "edge_attrsG_"
)

// NoDayLimit disables the attribute day limit.
const NoDayLimit = -1

const defaultMemoSize = 16

// ErrTestEdgesNotFound is returned when the test edges of a day were never built.
var ErrTestEdgesNotFound = errors.New("test edges not cached")

// Config controls what Build computes and where it is stored.
type Config struct {
	TestEdgesDir string
	EdgeAttrsDir string

	// UseEdgeAttrs enables computing and serving similarity attributes.
	UseEdgeAttrs bool
	// DayLimit is the last day for which attributes are computed; NoDayLimit for all days.
	DayLimit int

	// FindTestEdges forces every test edge file to be rebuilt.
	FindTestEdges bool
	// RerunEdgeAttrs forces every attribute file up to DayLimit to be rebuilt.
	RerunEdgeAttrs bool

	// MemoSize is the number of days kept in memory per cache namespace.
	MemoSize int
}

// Handler produces, caches and serves test edges and edge attributes.
type Handler struct {
	src    source.Source
	cfg    Config
	logger *zap.Logger

	testMemo *lru.Cache[int, *TestEdgeSet]
	attrMemo *lru.Cache[int, *AttributeTable]
}

// BuildReport summarizes one Build call.
type BuildReport struct {
	RunID            string        `json:"run_id"`
	Days             int           `json:"days"`
	Skipped          bool          `json:"skipped"`
	TestEdgesWritten []int         `json:"test_edges_written"`
	AttrsWritten     []int         `json:"attrs_written"`
	Elapsed          time.Duration `json:"elapsed"`
}

// New returns a Handler. It does not touch the file system; call Build before loading.
func New(src source.Source, cfg Config, logger *zap.Logger) (*Handler, error) {
	if cfg.TestEdgesDir == "" || cfg.EdgeAttrsDir == "" {
		return nil, errors.New("cache directories are required")
	}
	if cfg.DayLimit < NoDayLimit {
		return nil, fmt.Errorf("invalid day limit %d", cfg.DayLimit)
	}
	logger = logging.OrNop(logger)
	size := cfg.MemoSize
	if size <= 0 {
		size = defaultMemoSize
	}

	testMemo, err := lru.New[int, *TestEdgeSet](size)
	if err != nil {
		return nil, fmt.Errorf("creating test edge memo: %w", err)
	}
	attrMemo, err := lru.New[int, *AttributeTable](size)
	if err != nil {
		return nil, fmt.Errorf("creating attribute memo: %w", err)
	}

	return &Handler{
		src:      src,
		cfg:      cfg,
		logger:   logger,
		testMemo: testMemo,
		attrMemo: attrMemo,
	}, nil
}

// Config returns the handler configuration.
func (h *Handler) Config() Config {
	return h.cfg
}

// TestEdgesPath returns the cache file of the test edges for day.
func (h *Handler) TestEdgesPath(day int) string {
	return filepath.Join(h.cfg.TestEdgesDir, fmt.Sprintf("%s%d", TestEdgesFilePrefix, day))
}

// EdgeAttrsPath returns the cache file of the edge attributes for day.
func (h *Handler) EdgeAttrsPath(day int) string {
	return filepath.Join(h.cfg.EdgeAttrsDir, fmt.Sprintf("%s%d", EdgeAttrsFilePrefix, day))
}

// attrsWanted reports whether attributes are computed for day.
func (h *Handler) attrsWanted(day int) bool {
	return h.cfg.UseEdgeAttrs && (h.cfg.DayLimit == NoDayLimit || day <= h.cfg.DayLimit)
}

// needsBuild reports whether any day is missing a cache file it should have.
func (h *Handler) needsBuild(n int) bool {
	if h.cfg.FindTestEdges || h.cfg.RerunEdgeAttrs {
		return true
	}
	for day := 0; day < n; day++ {
		if !exists(h.TestEdgesPath(day)) {
			return true
		}
		if h.attrsWanted(day) && !exists(h.EdgeAttrsPath(day)) {
			return true
		}
	}
	return false
}

// Build ensures both cache directories exist and computes every missing day.
// Force flags are consumed by the first Build.
func (h *Handler) Build(ctx context.Context) (*BuildReport, error) {
	start := time.Now()
	report := &BuildReport{RunID: uuid.NewString(), Days: h.src.NumOfGraphs()}
	logger := h.logger.With(zap.String("run_id", report.RunID))

	for _, dir := range []string{h.cfg.TestEdgesDir, h.cfg.EdgeAttrsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	if report.Days == 0 || !h.needsBuild(report.Days) {
		report.Skipped = true
		logger.Info("edge caches up to date", zap.Int("days", report.Days))
		return report, nil
	}

	logger.Info("preprocessing edge caches",
		zap.Int("days", report.Days),
		zap.Bool("use_edge_attrs", h.cfg.UseEdgeAttrs),
		zap.Int("day_limit", h.cfg.DayLimit))

	merged := graph.New()
	for day := 0; day < report.Days; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g, err := h.src.LoadDayGraph(day)
		if err != nil {
			return nil, fmt.Errorf("loading day %d: %w", day, err)
		}
		merged.Compose(g)

		fields := []zap.Field{zap.Int("day", day), zap.Int("merged_edges", merged.NumEdges())}

		if h.cfg.FindTestEdges || !exists(h.TestEdgesPath(day)) {
			set := DayTestEdges(g, merged)
			if err := writeJSON(h.TestEdgesPath(day), set); err != nil {
				return nil, fmt.Errorf("saving test edges for day %d: %w", day, err)
			}
			h.testMemo.Remove(day)
			report.TestEdgesWritten = append(report.TestEdgesWritten, day)
			fields = append(fields,
				zap.Int("positives", set.NumPositives()),
				zap.Int("negatives", set.Len()-set.NumPositives()))
		}

		if h.attrsWanted(day) && (h.cfg.RerunEdgeAttrs || !exists(h.EdgeAttrsPath(day))) {
			table := MergedEdgeAttributes(merged)
			if err := writeJSON(h.EdgeAttrsPath(day), table); err != nil {
				return nil, fmt.Errorf("saving edge attributes for day %d: %w", day, err)
			}
			h.attrMemo.Remove(day)
			report.AttrsWritten = append(report.AttrsWritten, day)
			fields = append(fields, zap.Int("attributed_edges", table.Len()))
		}

		logger.Debug("day processed", fields...)
	}

	h.cfg.FindTestEdges = false
	h.cfg.RerunEdgeAttrs = false
	report.Elapsed = time.Since(start)

	logger.Info("edge caches built",
		zap.Int("test_edge_days", len(report.TestEdgesWritten)),
		zap.Int("attr_days", len(report.AttrsWritten)),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

// LoadTestEdges returns the cached test edges for day. When edge attributes
// are enabled, Attributes is filled by looking up the day's attribute table;
// otherwise it is nil. A day that was never built is an error wrapping
// ErrTestEdgesNotFound.
//
// The returned slices are shared with the in-memory cache and must not be modified.
func (h *Handler) LoadTestEdges(day int) (*TestEdgeSet, error) {
	set, ok := h.testMemo.Get(day)
	if !ok {
		set = &TestEdgeSet{}
		if err := readJSON(h.TestEdgesPath(day), set); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: day %d: %w", ErrTestEdgesNotFound, day, err)
			}
			return nil, fmt.Errorf("loading test edges for day %d: %w", day, err)
		}
		h.testMemo.Add(day, set)
	}

	if !h.cfg.UseEdgeAttrs {
		return set.withAttributes(nil), nil
	}

	table, err := h.LoadEdgeAttributes(day)
	if err != nil {
		return nil, err
	}
	return set.withAttributes(LookupEdgeAttributes(table, set.Edges, EdgeAttributesDim)), nil
}

// LoadEdgeAttributes returns the cached attribute table for day, or nil
// without error when no table was built for that day.
func (h *Handler) LoadEdgeAttributes(day int) (*AttributeTable, error) {
	if table, ok := h.attrMemo.Get(day); ok {
		return table, nil
	}

	table := &AttributeTable{}
	if err := readJSON(h.EdgeAttrsPath(day), table); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading edge attributes for day %d: %w", day, err)
	}
	h.attrMemo.Add(day, table)
	return table, nil
}

// Package source reads the cleaned per-day interaction graphs.
//
// Each day is stored as one JSON file named Graph_{day} inside the data
// directory, holding {"nodes": [...], "edges": [[u, v], ...]}. Days are
// numbered contiguously from 0.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/theodtasia/sna-recommendation-system/internal/edge"
	"github.com/theodtasia/sna-recommendation-system/internal/graph"
	"github.com/theodtasia/sna-recommendation-system/internal/logging"
)

// GraphFilePrefix is the file name prefix of a day graph.
const GraphFilePrefix = "Graph_"

var (
	// ErrNoGraphs is returned when the data directory holds no Graph_0 file.
	ErrNoGraphs = errors.New("no day graphs found")
	// ErrDayOutOfRange is returned when a day beyond the last graph is requested.
	ErrDayOutOfRange = errors.New("day out of range")
)

// Source yields the ordered sequence of day graphs.
type Source interface {
	// NumOfGraphs returns N, the number of day graphs (days 0..N-1).
	NumOfGraphs() int
	// LoadDayGraphs returns every day graph in day order.
	LoadDayGraphs() ([]*graph.Graph, error)
	// LoadDayGraph returns the graph of a single day.
	LoadDayGraph(day int) (*graph.Graph, error)
}

// record is the on-disk form of a day graph.
type record struct {
	Nodes []int64    `json:"nodes"`
	Edges [][2]int64 `json:"edges"`
}

// Dir is a Source backed by a directory of Graph_{day} files.
type Dir struct {
	path   string
	count  int
	logger *zap.Logger
}

// Open scans path for contiguous Graph_{day} files starting at day 0.
func Open(path string, logger *zap.Logger) (*Dir, error) {
	logger = logging.OrNop(logger)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data dir is not a directory: %s", path)
	}

	count := 0
	for {
		if _, err := os.Stat(GraphPath(path, count)); err != nil {
			if os.IsNotExist(err) {
				break
			}
			return nil, fmt.Errorf("checking day %d: %w", count, err)
		}
		count++
	}
	if count == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoGraphs, path)
	}

	return &Dir{path: path, count: count, logger: logger}, nil
}

// GraphPath returns the file path of the graph for day.
func GraphPath(dir string, day int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%d", GraphFilePrefix, day))
}

// NumOfGraphs returns the number of day graphs found when the directory was opened.
func (d *Dir) NumOfGraphs() int {
	return d.count
}

// LoadDayGraphs loads every day graph in order.
func (d *Dir) LoadDayGraphs() ([]*graph.Graph, error) {
	graphs := make([]*graph.Graph, 0, d.count)
	for day := 0; day < d.count; day++ {
		g, err := d.LoadDayGraph(day)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}

// LoadDayGraph loads the graph for day. Self-loops are dropped.
func (d *Dir) LoadDayGraph(day int) (*graph.Graph, error) {
	if day < 0 || day >= d.count {
		return nil, fmt.Errorf("%w: %d (have %d days)", ErrDayOutOfRange, day, d.count)
	}

	data, err := os.ReadFile(GraphPath(d.path, day))
	if err != nil {
		return nil, fmt.Errorf("reading day %d: %w", day, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing day %d: %w", day, err)
	}

	g := graph.New()
	for _, id := range rec.Nodes {
		g.AddNode(id)
	}
	selfLoops := 0
	pairs := make([]edge.Pair, 0, len(rec.Edges))
	for i, e := range rec.Edges {
		if e[0] == e[1] {
			selfLoops++
			g.AddNode(e[0])
			continue
		}
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("day %d edge %d: %w", day, i, err)
		}
		pairs = append(pairs, edge.Pair{U: e[0], V: e[1]})
	}
	if selfLoops > 0 {
		d.logger.Debug("dropped self-loops", zap.Int("day", day), zap.Int("count", selfLoops))
	}
	if dups := edge.FindDuplicatePairs(pairs); len(dups) > 0 {
		d.logger.Debug("collapsed duplicate edges", zap.Int("day", day), zap.Int("edges", len(dups)))
	}

	return g, nil
}

// SaveDayGraph writes g as the graph for day in dir, replacing any existing file.
func SaveDayGraph(dir string, day int, g *graph.Graph) error {
	rec := record{Nodes: g.NodeIDs(), Edges: make([][2]int64, 0, g.NumEdges())}
	for _, p := range g.Pairs() {
		rec.Edges = append(rec.Edges, [2]int64{p.U, p.V})
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding day %d: %w", day, err)
	}
	if err := os.WriteFile(GraphPath(dir, day), data, 0644); err != nil {
		return fmt.Errorf("writing day %d: %w", day, err)
	}
	return nil
}

// WriteDays writes one graph file per element of days, built from edge pairs.
// Useful for seeding fixtures.
func WriteDays(dir string, days [][]edge.Pair) error {
	for day, pairs := range days {
		g, err := graph.FromPairs(nil, pairs)
		if err != nil {
			return fmt.Errorf("building day %d: %w", day, err)
		}
		if err := SaveDayGraph(dir, day, g); err != nil {
			return err
		}
	}
	return nil
}

// Package dataset walks the day graphs in order, accumulating the training
// graph and pairing each day's training edges with the next day's test edges.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/theodtasia/sna-recommendation-system/internal/edge"
	"github.com/theodtasia/sna-recommendation-system/internal/edgecache"
	"github.com/theodtasia/sna-recommendation-system/internal/features"
	"github.com/theodtasia/sna-recommendation-system/internal/logging"
	"github.com/theodtasia/sna-recommendation-system/internal/sampling"
	"github.com/theodtasia/sna-recommendation-system/internal/source"
)

// InitDay is the first day loaded by GetDataset.
const InitDay = 0

var (
	// ErrExhausted is returned by GetDataset once HasNext is false.
	ErrExhausted = errors.New("dataset exhausted")
	// ErrNotStarted is returned by operations that need a loaded day.
	ErrNotStarted = errors.New("no day loaded yet")
)

// EdgeSource serves the cached per-day edge data.
type EdgeSource interface {
	LoadTestEdges(day int) (*edgecache.TestEdgeSet, error)
	LoadEdgeAttributes(day int) (*edgecache.AttributeTable, error)
}

// FeatureSource serves per-day node feature tables.
type FeatureSource interface {
	AttrDim() int
	LoadDayAttributes(day int) (*features.Table, error)
}

// Options configures a Dataset.
type Options struct {
	// ExtractTopologicalAttrs refreshes node features every day instead of once.
	ExtractTopologicalAttrs bool
}

// TrainEdges is the undirected training edge set accumulated through the current day.
type TrainEdges struct {
	Edges []edge.Pair
	// Attributes is the current day's table, nil when none was cached.
	Attributes *edgecache.AttributeTable
}

// SampledEdges are random non-edges drawn for training supervision.
type SampledEdges struct {
	Edges      []edge.Pair
	Attributes [][]float64
}

// Dataset is a forward-only iterator over days.
// It starts before InitDay; each GetDataset call advances one day.
type Dataset struct {
	src    source.Source
	edges  EdgeSource
	feats  FeatureSource
	opts   Options
	logger *zap.Logger

	day         int
	numOfGraphs int

	// edgeIndex is append-only and directed; callers only see ToUndirected copies.
	edgeIndex      []edge.Pair
	maxNode        int64
	x              *mat.Dense
	edgeAttributes *edgecache.AttributeTable
}

// New returns a Dataset positioned before InitDay. feats may be nil, in which
// case no node features are attached.
func New(src source.Source, edges EdgeSource, feats FeatureSource, opts Options, logger *zap.Logger) *Dataset {
	logger = logging.OrNop(logger)
	return &Dataset{
		src:         src,
		edges:       edges,
		feats:       feats,
		opts:        opts,
		logger:      logger,
		day:         InitDay - 1,
		numOfGraphs: src.NumOfGraphs(),
		maxNode:     -1,
	}
}

// HasNext reports whether another GetDataset call can succeed. Advancing
// loads day+1 and its test edges come from day+2, so day+2 must exist.
func (d *Dataset) HasNext() bool {
	return d.day+2 < d.numOfGraphs
}

// Day returns the current day, InitDay-1 before the first GetDataset.
func (d *Dataset) Day() int {
	return d.day
}

// NumOfGraphs returns the number of days known to the dataset.
func (d *Dataset) NumOfGraphs() int {
	return d.numOfGraphs
}

// MaxNode returns the largest node id in the training graph, -1 when empty.
func (d *Dataset) MaxNode() int64 {
	return d.maxNode
}

// NumTrainEdges returns the number of directed edges appended so far.
func (d *Dataset) NumTrainEdges() int {
	return len(d.edgeIndex)
}

// Features returns the node feature matrix; row i holds node i.
// It is nil before the first day or when no feature source is configured.
func (d *Dataset) Features() *mat.Dense {
	return d.x
}

// GetDataset advances one day and returns the undirected training edges
// through that day together with the next day's test edges.
func (d *Dataset) GetDataset(ctx context.Context) (*TrainEdges, *edgecache.TestEdgeSet, error) {
	if !d.HasNext() {
		return nil, nil, ErrExhausted
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if err := d.setDay(d.day + 1); err != nil {
		return nil, nil, err
	}

	train := &TrainEdges{
		Edges:      edge.ToUndirected(d.edgeIndex),
		Attributes: d.edgeAttributes,
	}
	test, err := d.edges.LoadTestEdges(d.day + 1)
	if err != nil {
		return nil, nil, fmt.Errorf("loading test edges for day %d: %w", d.day+1, err)
	}

	d.logger.Info("dataset day",
		zap.Int("day", d.day),
		zap.Int("train_edges", len(train.Edges)),
		zap.Int("test_edges", test.Len()),
		zap.Int64("max_node", d.maxNode))
	return train, test, nil
}

// setDay loads everything for day before touching state, so a failed load
// leaves the dataset on the previous day.
func (d *Dataset) setDay(day int) error {
	g, err := d.src.LoadDayGraph(day)
	if err != nil {
		return fmt.Errorf("loading day %d graph: %w", day, err)
	}
	attrs, err := d.edges.LoadEdgeAttributes(day)
	if err != nil {
		return err
	}

	edgeIndex := append(d.edgeIndex, g.Pairs()...)
	maxNode := edge.MaxNode(edgeIndex)

	x := d.x
	if d.feats != nil && (day == InitDay || d.opts.ExtractTopologicalAttrs) {
		table, err := d.feats.LoadDayAttributes(day)
		if err != nil {
			return fmt.Errorf("loading day %d features: %w", day, err)
		}
		x = featureMatrix(table, maxNode)
	} else if x != nil {
		x = growRows(x, maxNode+1)
	}

	d.day = day
	d.edgeIndex = edgeIndex
	d.maxNode = maxNode
	d.edgeAttributes = attrs
	d.x = x
	return nil
}

// featureMatrix places each table row at its node id. Nodes without a
// feature record get a zero row.
func featureMatrix(table *features.Table, maxNode int64) *mat.Dense {
	rows := maxNode + 1
	if n := len(table.NodeIDs); n > 0 {
		rows = max(rows, table.NodeIDs[n-1]+1)
	}
	_, cols := table.Rows.Dims()
	if rows <= 0 || cols == 0 {
		return nil
	}

	x := mat.NewDense(int(rows), cols, nil)
	for i, id := range table.NodeIDs {
		if id < 0 {
			continue
		}
		x.SetRow(int(id), table.Rows.RawRowView(i))
	}
	return x
}

// growRows pads x with zero rows up to rows. x is returned as is when it is
// already large enough.
func growRows(x *mat.Dense, rows int64) *mat.Dense {
	r, c := x.Dims()
	if int64(r) >= rows {
		return x
	}
	grown := mat.NewDense(int(rows), c, nil)
	grown.Slice(0, r, 0, c).(*mat.Dense).Copy(x)
	return grown
}

// NegativeSampling draws as many random non-edges as there are directed
// training edges, over node ids 0..MaxNode, symmetrizes them and attaches the
// current day's edge attributes.
func (d *Dataset) NegativeSampling(rng *rand.Rand) (*SampledEdges, error) {
	if d.day < InitDay {
		return nil, ErrNotStarted
	}
	neg := sampling.Uniform(d.edgeIndex, int(d.maxNode+1), len(d.edgeIndex), rng)
	neg = edge.ToUndirected(neg)
	return &SampledEdges{
		Edges:      neg,
		Attributes: edgecache.LookupEdgeAttributes(d.edgeAttributes, neg, edgecache.EdgeAttributesDim),
	}, nil
}

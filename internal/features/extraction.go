// Package features turns raw node attributes into per-day node feature tables.
package features

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/theodtasia/sna-recommendation-system/internal/graph"
	"github.com/theodtasia/sna-recommendation-system/internal/source"
	"github.com/theodtasia/sna-recommendation-system/internal/storage"
)

// NodeAttributes is one node's raw attribute record as stored in the node attributes JSONL file.
type NodeAttributes struct {
	ID          int64   `json:"id"`
	Verified    bool    `json:"verified"`
	Party       string  `json:"party"`
	Followers   float64 `json:"followers"`
	Following   float64 `json:"following"`
	TotalTweets float64 `json:"total_tweets"`
	Lists       float64 `json:"lists"`
	TwitterAge  float64 `json:"twitter_age"`
}

// Options selects the feature engineering steps.
type Options struct {
	// ExtractAttrs adds ratio and per-party share features.
	ExtractAttrs bool
	// TurnToNumeric one-hot encodes party, dropping the first category.
	TurnToNumeric bool
	// Scale standardizes every column to mean 0 and unit population variance.
	Scale bool
	// ExtractTopologicalAttrs appends per-day degree centrality and average neighbor degree.
	ExtractTopologicalAttrs bool
}

// Topological column names.
const (
	ColDegreeCentrality      = "degree_centrality"
	ColAverageNeighborDegree = "average_neighbor_degree"
)

var (
	ErrNoNodes     = errors.New("no node attributes")
	ErrDuplicateID = errors.New("duplicate node id")
	ErrNoDaySource = errors.New("topological attributes need a day graph source")
	ErrNegativeDay = errors.New("day must be non-negative")
)

// Table is a node feature table: row i holds the features of NodeIDs[i].
type Table struct {
	NodeIDs []int64
	Columns []string
	Rows    *mat.Dense
}

// Row returns the feature vector of node id.
func (t *Table) Row(id int64) ([]float64, bool) {
	i, ok := slices.BinarySearch(t.NodeIDs, id)
	if !ok {
		return nil, false
	}
	return mat.Row(nil, i, t.Rows), true
}

// Extraction builds feature tables from node attributes and, optionally, day graphs.
type Extraction struct {
	opts    Options
	nodeIDs []int64
	columns []string
	base    [][]float64 // column-major, unscaled

	src       source.Source
	merged    *graph.Graph
	mergedDay int

	static *Table
}

// Load reads node attributes from a JSONL file and builds an Extraction.
func Load(path string, src source.Source, opts Options) (*Extraction, error) {
	records, err := storage.ReadJSONL[NodeAttributes](path)
	if err != nil {
		return nil, fmt.Errorf("reading node attributes: %w", err)
	}
	return New(records, src, opts)
}

// New builds an Extraction. src may be nil unless ExtractTopologicalAttrs is set.
func New(records []NodeAttributes, src source.Source, opts Options) (*Extraction, error) {
	if len(records) == 0 {
		return nil, ErrNoNodes
	}
	if opts.ExtractTopologicalAttrs && src == nil {
		return nil, ErrNoDaySource
	}

	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b NodeAttributes) int { return cmp.Compare(a.ID, b.ID) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ID == sorted[i-1].ID {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, sorted[i].ID)
		}
	}

	e := &Extraction{opts: opts, src: src, mergedDay: -1}
	for _, r := range sorted {
		e.nodeIDs = append(e.nodeIDs, r.ID)
	}
	e.buildBase(sorted)
	return e, nil
}

func (e *Extraction) addColumn(name string, values []float64) {
	e.columns = append(e.columns, name)
	e.base = append(e.base, values)
}

func (e *Extraction) buildBase(records []NodeAttributes) {
	column := func(f func(r NodeAttributes) float64) []float64 {
		out := make([]float64, len(records))
		for i, r := range records {
			out[i] = f(r)
		}
		return out
	}

	e.addColumn("verified", column(func(r NodeAttributes) float64 {
		if r.Verified {
			return 1
		}
		return 0
	}))
	e.addColumn("followers", column(func(r NodeAttributes) float64 { return r.Followers }))
	e.addColumn("following", column(func(r NodeAttributes) float64 { return r.Following }))
	e.addColumn("total_tweets", column(func(r NodeAttributes) float64 { return r.TotalTweets }))
	e.addColumn("lists", column(func(r NodeAttributes) float64 { return r.Lists }))
	e.addColumn("twitter_age", column(func(r NodeAttributes) float64 { return r.TwitterAge }))

	if e.opts.ExtractAttrs {
		e.extractFeatures(records, column)
	}
	if e.opts.TurnToNumeric {
		e.oneHotParty(records)
	}
}

func (e *Extraction) extractFeatures(records []NodeAttributes, column func(func(NodeAttributes) float64) []float64) {
	e.addColumn("followers_to_following", column(func(r NodeAttributes) float64 {
		return ratio(r.Followers, r.Following)
	}))
	e.addColumn("average_tweets_per_day", column(func(r NodeAttributes) float64 {
		return ratio(r.TotalTweets, r.TwitterAge)
	}))
	e.addColumn("average_list_per_day", column(func(r NodeAttributes) float64 {
		return ratio(r.Lists, r.TwitterAge)
	}))
	e.addColumn("followers_per_day", column(func(r NodeAttributes) float64 {
		return ratio(r.Followers, r.TwitterAge)
	}))
	e.addColumn("following_per_day", column(func(r NodeAttributes) float64 {
		return ratio(r.Following, r.TwitterAge)
	}))

	partyTweets := make(map[string]float64)
	partyLists := make(map[string]float64)
	for _, r := range records {
		partyTweets[r.Party] += r.TotalTweets
		partyLists[r.Party] += r.Lists
	}
	e.addColumn("percentage_tweets_of_party", column(func(r NodeAttributes) float64 {
		return ratio(r.TotalTweets, partyTweets[r.Party])
	}))
	e.addColumn("percentage_list_of_party", column(func(r NodeAttributes) float64 {
		return ratio(r.Lists, partyLists[r.Party])
	}))
}

// oneHotParty adds one indicator column per party except the alphabetically first.
func (e *Extraction) oneHotParty(records []NodeAttributes) {
	var parties []string
	for _, r := range records {
		if !slices.Contains(parties, r.Party) {
			parties = append(parties, r.Party)
		}
	}
	slices.Sort(parties)
	if len(parties) < 2 {
		return
	}

	for _, party := range parties[1:] {
		values := make([]float64, len(records))
		for i, r := range records {
			if r.Party == party {
				values[i] = 1
			}
		}
		e.addColumn("party_"+party, values)
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// AttrDim returns the number of feature columns of every day table.
func (e *Extraction) AttrDim() int {
	n := len(e.columns)
	if e.opts.ExtractTopologicalAttrs {
		n += 2
	}
	return n
}

// Columns returns the feature column names in table order.
func (e *Extraction) Columns() []string {
	cols := slices.Clone(e.columns)
	if e.opts.ExtractTopologicalAttrs {
		cols = append(cols, ColDegreeCentrality, ColAverageNeighborDegree)
	}
	return cols
}

// NodeIDs returns the ids of all attributed nodes in ascending order.
func (e *Extraction) NodeIDs() []int64 {
	return slices.Clone(e.nodeIDs)
}

// LoadDayAttributes returns the feature table for day. Without topological
// attributes every day shares the same table.
func (e *Extraction) LoadDayAttributes(day int) (*Table, error) {
	if day < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDay, day)
	}
	if !e.opts.ExtractTopologicalAttrs {
		if e.static == nil {
			e.static = e.assemble(e.base)
		}
		return e.static, nil
	}

	merged, err := e.mergedThrough(day)
	if err != nil {
		return nil, err
	}
	centrality := make([]float64, len(e.nodeIDs))
	neighborDegree := make([]float64, len(e.nodeIDs))
	for i, id := range e.nodeIDs {
		centrality[i] = merged.DegreeCentrality(id)
		neighborDegree[i] = merged.AverageNeighborDegree(id)
	}

	cols := make([][]float64, 0, len(e.base)+2)
	cols = append(cols, e.base...)
	cols = append(cols, centrality, neighborDegree)
	return e.assemble(cols), nil
}

// mergedThrough returns the union of day graphs 0..day, extending the
// previous union when days are requested in order.
func (e *Extraction) mergedThrough(day int) (*graph.Graph, error) {
	if e.merged == nil || day < e.mergedDay {
		e.merged = graph.New()
		e.mergedDay = -1
	}
	for d := e.mergedDay + 1; d <= day; d++ {
		g, err := e.src.LoadDayGraph(d)
		if err != nil {
			return nil, fmt.Errorf("loading day %d: %w", d, err)
		}
		e.merged.Compose(g)
		e.mergedDay = d
	}
	return e.merged, nil
}

// assemble lays out column-major values as a row-major matrix, scaling a copy if configured.
func (e *Extraction) assemble(cols [][]float64) *Table {
	rows, ncols := len(e.nodeIDs), len(cols)
	m := mat.NewDense(rows, ncols, nil)
	for j, col := range cols {
		if e.opts.Scale {
			col = standardize(col)
		}
		m.SetCol(j, col)
	}

	names := slices.Clone(e.columns)
	if ncols > len(names) {
		names = append(names, ColDegreeCentrality, ColAverageNeighborDegree)
	}
	return &Table{NodeIDs: slices.Clone(e.nodeIDs), Columns: names, Rows: m}
}

// standardize returns (x - mean) / std with the population standard deviation.
// Constant columns become all zeros.
func standardize(col []float64) []float64 {
	mean, std := stat.PopMeanStdDev(col, nil)
	out := make([]float64, len(col))
	for i, x := range col {
		if std == 0 {
			out[i] = 0
			continue
		}
		out[i] = (x - mean) / std
	}
	return out
}

package edgecache

import (
	"github.com/theodtasia/sna-recommendation-system/internal/edge"
	"github.com/theodtasia/sna-recommendation-system/internal/graph"
)

// DayTestEdges labels the edges of one day against the merged graph.
//
// Every edge of day is a positive, normalized to (min,max). Every pair (v,u)
// of day nodes with v < u that is not an edge of merged is a negative. merged
// must already contain day, so a pair observed on any day up to and including
// this one is never labeled negative. The enumeration is exhaustive over the
// day's node set and therefore quadratic in it.
func DayTestEdges(day, merged *graph.Graph) *TestEdgeSet {
	positives := day.Pairs()
	set := &TestEdgeSet{
		Edges:   make([]edge.Pair, 0, len(positives)),
		Targets: make([]bool, 0, len(positives)),
		Indexes: make([]int64, 0, len(positives)),
	}
	for _, p := range positives {
		set.add(p, true)
	}

	nodes := day.NodeIDs()
	for i, v := range nodes {
		for _, u := range nodes[i+1:] {
			if !merged.HasEdge(v, u) {
				set.add(edge.Pair{U: v, V: u}, false)
			}
		}
	}
	return set
}

func (s *TestEdgeSet) add(p edge.Pair, target bool) {
	s.Edges = append(s.Edges, p)
	s.Targets = append(s.Targets, target)
	s.Indexes = append(s.Indexes, p.U)
}

// MergedEdgeAttributes scores every existing edge of merged.
func MergedEdgeAttributes(merged *graph.Graph) *AttributeTable {
	scores := merged.EdgeSimilarities()
	table := NewAttributeTable(EdgeAttributesDim)
	for k, s := range scores {
		vals := make([]float64, EdgeAttributesDim)
		copy(vals, s[:])
		table.Values[k] = vals
	}
	return table
}

// LookupEdgeAttributes returns one vector per pair, in input order.
// Pairs absent from table, or every pair when table is nil, get a zero vector of length dim.
// The returned vectors are copies; table is not modified.
func LookupEdgeAttributes(table *AttributeTable, pairs []edge.Pair, dim int) [][]float64 {
	out := make([][]float64, len(pairs))
	for i, p := range pairs {
		vec := make([]float64, dim)
		if table != nil {
			if vals, ok := table.Get(p.U, p.V); ok {
				copy(vec, vals)
			}
		}
		out[i] = vec
	}
	return out
}

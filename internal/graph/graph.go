// Package graph provides the undirected day graphs and the cumulative merged
// graph used for negative sampling and similarity scores.
package graph

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/theodtasia/sna-recommendation-system/internal/edge"
)

// Graph is an undirected simple graph over integer node ids.
// A day graph is never mutated after it has been loaded; the merged graph grows through Compose.
type Graph struct {
	g *simple.UndirectedGraph
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{g: simple.NewUndirectedGraph()}
}

// FromPairs builds a graph holding the given nodes and edges.
// Edge endpoints missing from nodes are added implicitly.
func FromPairs(nodes []int64, pairs []edge.Pair) (*Graph, error) {
	g := New()
	for _, id := range nodes {
		g.AddNode(id)
	}
	for _, p := range pairs {
		if err := g.AddEdge(p.U, p.V); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddNode adds id if it is not already present.
func (g *Graph) AddNode(id int64) {
	if g.g.Node(id) == nil {
		g.g.AddNode(simple.Node(id))
	}
}

// AddEdge adds the undirected edge (u,v), adding missing endpoints.
func (g *Graph) AddEdge(u, v int64) error {
	if err := (edge.Pair{U: u, V: v}).Validate(); err != nil {
		return err
	}
	g.g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
	return nil
}

// HasNode reports whether id is a node of g.
func (g *Graph) HasNode(id int64) bool {
	return g.g.Node(id) != nil
}

// HasEdge reports whether (u,v) is an edge in either orientation.
func (g *Graph) HasEdge(u, v int64) bool {
	return g.g.HasEdgeBetween(u, v)
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return g.g.Nodes().Len()
}

// NumEdges returns the number of undirected edges.
func (g *Graph) NumEdges() int {
	return g.g.Edges().Len()
}

// Degree returns the number of neighbors of id, 0 for unknown nodes.
func (g *Graph) Degree(id int64) int {
	if !g.HasNode(id) {
		return 0
	}
	return g.g.From(id).Len()
}

// NodeIDs returns all node ids in ascending order.
func (g *Graph) NodeIDs() []int64 {
	return sortedIDs(g.g.Nodes())
}

// Neighbors returns the neighbors of id in ascending order.
func (g *Graph) Neighbors(id int64) []int64 {
	if !g.HasNode(id) {
		return nil
	}
	return sortedIDs(g.g.From(id))
}

// Edges returns every edge as a normalized key, in ascending key order.
func (g *Graph) Edges() []edge.Key {
	it := g.g.Edges()
	keys := make([]edge.Key, 0, it.Len())
	for it.Next() {
		e := it.Edge()
		keys = append(keys, edge.NewKey(e.From().ID(), e.To().ID()))
	}
	slices.SortFunc(keys, edge.Key.Compare)
	return keys
}

// Pairs returns the edges as (min,max) pairs in ascending order.
func (g *Graph) Pairs() []edge.Pair {
	keys := g.Edges()
	pairs := make([]edge.Pair, len(keys))
	for i, k := range keys {
		pairs[i] = k.Pair()
	}
	return pairs
}

// Compose adds every node and edge of other to g, leaving other unchanged.
func (g *Graph) Compose(other *Graph) {
	nodes := other.g.Nodes()
	for nodes.Next() {
		g.AddNode(nodes.Node().ID())
	}
	edges := other.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		g.g.SetEdge(simple.Edge{F: simple.Node(e.From().ID()), T: simple.Node(e.To().ID())})
	}
}

func sortedIDs(it graph.Nodes) []int64 {
	ids := make([]int64, 0, it.Len())
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	slices.Sort(ids)
	return ids
}

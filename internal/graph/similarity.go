package graph

import "github.com/theodtasia/sna-recommendation-system/internal/edge"

// NumScores is the length of a Scores vector.
const NumScores = 3

// Scores holds the topological similarity of a node pair:
// [jaccard, resource_allocation, preferential_attachment].
type Scores [NumScores]float64

// Jaccard returns |N(u) ∩ N(v)| / |N(u) ∪ N(v)|, or 0 when both neighborhoods are empty.
func (g *Graph) Jaccard(u, v int64) float64 {
	common := g.commonNeighbors(u, v)
	union := g.Degree(u) + g.Degree(v) - len(common)
	if union == 0 {
		return 0
	}
	return float64(len(common)) / float64(union)
}

// ResourceAllocation returns the sum of 1/degree(w) over the common neighbors w of u and v.
func (g *Graph) ResourceAllocation(u, v int64) float64 {
	var sum float64
	for _, w := range g.commonNeighbors(u, v) {
		sum += 1 / float64(g.Degree(w))
	}
	return sum
}

// PreferentialAttachment returns degree(u) * degree(v).
func (g *Graph) PreferentialAttachment(u, v int64) float64 {
	return float64(g.Degree(u) * g.Degree(v))
}

// Similarity computes all three scores for (u,v) with one common-neighbor pass.
func (g *Graph) Similarity(u, v int64) Scores {
	common := g.commonNeighbors(u, v)
	du, dv := g.Degree(u), g.Degree(v)

	var s Scores
	if union := du + dv - len(common); union > 0 {
		s[0] = float64(len(common)) / float64(union)
	}
	for _, w := range common {
		s[1] += 1 / float64(g.Degree(w))
	}
	s[2] = float64(du * dv)
	return s
}

// EdgeSimilarities scores every existing edge of g, keyed by normalized edge key.
func (g *Graph) EdgeSimilarities() map[edge.Key]Scores {
	keys := g.Edges()
	out := make(map[edge.Key]Scores, len(keys))
	for _, k := range keys {
		out[k] = g.Similarity(k.U, k.V)
	}
	return out
}

// commonNeighbors walks the smaller neighborhood and probes the larger one.
func (g *Graph) commonNeighbors(u, v int64) []int64 {
	if !g.HasNode(u) || !g.HasNode(v) {
		return nil
	}
	small, other := u, v
	if g.Degree(v) < g.Degree(u) {
		small, other = v, u
	}
	var common []int64
	for _, w := range g.Neighbors(small) {
		if w != other && g.HasEdge(w, other) {
			common = append(common, w)
		}
	}
	return common
}

// DegreeCentrality returns degree(id) / (n-1), or 0 for graphs with fewer than two nodes.
func (g *Graph) DegreeCentrality(id int64) float64 {
	n := g.NumNodes()
	if n < 2 {
		return 0
	}
	return float64(g.Degree(id)) / float64(n-1)
}

// AverageNeighborDegree returns the mean degree of the neighbors of id, 0 for isolated nodes.
func (g *Graph) AverageNeighborDegree(id int64) float64 {
	neighbors := g.Neighbors(id)
	if len(neighbors) == 0 {
		return 0
	}
	var sum int
	for _, w := range neighbors {
		sum += g.Degree(w)
	}
	return float64(sum) / float64(len(neighbors))
}

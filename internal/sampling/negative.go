// Package sampling draws random non-edges for training-time supervision.
package sampling

import (
	"math/rand/v2"

	"github.com/theodtasia/sna-recommendation-system/internal/edge"
)

// attemptsPerSample bounds rejection sampling on dense graphs.
const attemptsPerSample = 10

// Uniform draws up to num distinct node pairs uniformly from [0,numNodes)²,
// skipping self pairs and pairs present in existing in either orientation.
// No two returned pairs share an undirected key. On dense graphs fewer than
// num pairs may be returned.
func Uniform(existing []edge.Pair, numNodes, num int, rng *rand.Rand) []edge.Pair {
	if numNodes < 2 || num <= 0 {
		return nil
	}

	taken := make(map[edge.Key]struct{}, len(existing)+num)
	for _, p := range existing {
		taken[p.Key()] = struct{}{}
	}

	out := make([]edge.Pair, 0, num)
	for attempts := attemptsPerSample*num + 100; attempts > 0 && len(out) < num; attempts-- {
		p := edge.Pair{U: int64(rng.IntN(numNodes)), V: int64(rng.IntN(numNodes))}
		if p.U == p.V {
			continue
		}
		k := p.Key()
		if _, ok := taken[k]; ok {
			continue
		}
		taken[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

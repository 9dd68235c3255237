// Package edge defines the core domain types for interaction graph edges.
package edge

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Pair is an ordered pair of node identifiers as it appears in an edge list.
type Pair struct {
	U int64
	V int64
}

// Validation errors.
var (
	ErrNegativeNode = errors.New("node ids must be non-negative")
	ErrSelfEdge     = errors.New("u and v cannot be the same")
)

// Validate checks that a pair can be stored in a simple undirected graph.
func (p Pair) Validate() error {
	if p.U < 0 || p.V < 0 {
		return fmt.Errorf("%w: (%d,%d)", ErrNegativeNode, p.U, p.V)
	}
	if p.U == p.V {
		return ErrSelfEdge
	}
	return nil
}

// Reversed returns the pair with its endpoints swapped.
func (p Pair) Reversed() Pair {
	return Pair{U: p.V, V: p.U}
}

// Key returns the undirected identity of this pair.
func (p Pair) Key() Key {
	return NewKey(p.U, p.V)
}

// Key is the normalized identity of an undirected edge: U <= V.
type Key struct {
	U int64
	V int64
}

// NewKey normalizes (v, u) so that NewKey(v, u) == NewKey(u, v).
func NewKey(v, u int64) Key {
	return Key{U: min(v, u), V: max(v, u)}
}

// Pair returns the key as a (min, max) ordered pair.
func (k Key) Pair() Pair {
	return Pair{U: k.U, V: k.V}
}

// Compare orders keys by first endpoint, then second.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.U, other.U); c != 0 {
		return c
	}
	return cmp.Compare(k.V, other.V)
}

// ToUndirected concatenates the pairs with their reversed copies.
// The result has twice the input length: all originals first, then all reversals.
func ToUndirected(pairs []Pair) []Pair {
	out := make([]Pair, 0, 2*len(pairs))
	out = append(out, pairs...)
	for _, p := range pairs {
		out = append(out, p.Reversed())
	}
	return out
}

// MaxNode returns the largest node id referenced by pairs, or -1 if pairs is empty.
func MaxNode(pairs []Pair) int64 {
	maxID := int64(-1)
	for _, p := range pairs {
		maxID = max(maxID, p.U, p.V)
	}
	return maxID
}

// SortedKeys returns the keys of a set in ascending order.
func SortedKeys[V any](set map[Key]V) []Key {
	keys := make([]Key, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Key.Compare)
	return keys
}

// FindDuplicatePairs finds undirected edges that appear more than once in the list.
// Returns a map of Key to count for keys that appear more than once.
func FindDuplicatePairs(pairs []Pair) map[Key]int {
	counts := make(map[Key]int)
	for _, p := range pairs {
		counts[p.Key()]++
	}

	// Filter to only duplicates
	duplicates := make(map[Key]int)
	for key, count := range counts {
		if count > 1 {
			duplicates[key] = count
		}
	}
	return duplicates
}

package edgecache

import (
	"encoding/json"
	"fmt"

	"github.com/theodtasia/sna-recommendation-system/internal/edge"
	"github.com/theodtasia/sna-recommendation-system/internal/graph"
)

// EdgeAttributesDim is the length of every edge attribute vector:
// [jaccard, resource_allocation, preferential_attachment].
const EdgeAttributesDim = graph.NumScores

// TestEdgeSet is the labeled evaluation edge set of one day.
// Positives come first, then the sampled negatives.
// Edges, Targets and Indexes always have the same length.
type TestEdgeSet struct {
	Edges   []edge.Pair
	Targets []bool
	// Indexes holds the first endpoint of each pair, for per-node ranking metrics.
	Indexes []int64
	// Attributes is filled on load when edge attributes are enabled, nil otherwise.
	// It is never persisted.
	Attributes [][]float64
}

type testEdgesRecord struct {
	Edges   [][2]int64 `json:"edges"`
	Targets []bool     `json:"targets"`
	Indexes []int64    `json:"indexes"`
}

// Len returns the number of labeled pairs.
func (s *TestEdgeSet) Len() int {
	return len(s.Edges)
}

// NumPositives returns the number of pairs labeled true.
func (s *TestEdgeSet) NumPositives() int {
	n := 0
	for _, t := range s.Targets {
		if t {
			n++
		}
	}
	return n
}

// Positives returns the pairs labeled true.
func (s *TestEdgeSet) Positives() []edge.Pair {
	return s.filter(true)
}

// Negatives returns the pairs labeled false.
func (s *TestEdgeSet) Negatives() []edge.Pair {
	return s.filter(false)
}

func (s *TestEdgeSet) filter(target bool) []edge.Pair {
	var out []edge.Pair
	for i, p := range s.Edges {
		if s.Targets[i] == target {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the parallel-length invariant.
func (s *TestEdgeSet) Validate() error {
	if len(s.Targets) != len(s.Edges) || len(s.Indexes) != len(s.Edges) {
		return fmt.Errorf("test edge set lengths differ: edges=%d targets=%d indexes=%d",
			len(s.Edges), len(s.Targets), len(s.Indexes))
	}
	if s.Attributes != nil && len(s.Attributes) != len(s.Edges) {
		return fmt.Errorf("test edge set has %d attribute rows for %d edges", len(s.Attributes), len(s.Edges))
	}
	return nil
}

// MarshalJSON encodes the persisted fields only.
func (s *TestEdgeSet) MarshalJSON() ([]byte, error) {
	rec := testEdgesRecord{
		Edges:   make([][2]int64, len(s.Edges)),
		Targets: s.Targets,
		Indexes: s.Indexes,
	}
	for i, p := range s.Edges {
		rec.Edges[i] = [2]int64{p.U, p.V}
	}
	if rec.Targets == nil {
		rec.Targets = []bool{}
	}
	if rec.Indexes == nil {
		rec.Indexes = []int64{}
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes a persisted record and checks its invariant.
func (s *TestEdgeSet) UnmarshalJSON(data []byte) error {
	var rec testEdgesRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	s.Edges = make([]edge.Pair, len(rec.Edges))
	for i, e := range rec.Edges {
		s.Edges[i] = edge.Pair{U: e[0], V: e[1]}
	}
	s.Targets = rec.Targets
	s.Indexes = rec.Indexes
	s.Attributes = nil
	return s.Validate()
}

// withAttributes returns a shallow copy carrying attrs.
func (s *TestEdgeSet) withAttributes(attrs [][]float64) *TestEdgeSet {
	out := *s
	out.Attributes = attrs
	return &out
}

// AttributeTable maps a normalized edge key to its similarity vector.
type AttributeTable struct {
	Dim    int
	Values map[edge.Key][]float64
}

type attributeEntry struct {
	U      int64     `json:"u"`
	V      int64     `json:"v"`
	Values []float64 `json:"values"`
}

type attributeRecord struct {
	Dim     int              `json:"dim"`
	Entries []attributeEntry `json:"entries"`
}

// NewAttributeTable returns an empty table of the given dimensionality.
func NewAttributeTable(dim int) *AttributeTable {
	return &AttributeTable{Dim: dim, Values: make(map[edge.Key][]float64)}
}

// Len returns the number of attributed edges.
func (t *AttributeTable) Len() int {
	return len(t.Values)
}

// Get returns the vector stored for (v,u) in either orientation.
func (t *AttributeTable) Get(v, u int64) ([]float64, bool) {
	vals, ok := t.Values[edge.NewKey(v, u)]
	return vals, ok
}

// MarshalJSON encodes entries sorted by key so that equal tables encode to equal bytes.
func (t *AttributeTable) MarshalJSON() ([]byte, error) {
	rec := attributeRecord{Dim: t.Dim, Entries: make([]attributeEntry, 0, len(t.Values))}
	for _, k := range edge.SortedKeys(t.Values) {
		rec.Entries = append(rec.Entries, attributeEntry{U: k.U, V: k.V, Values: t.Values[k]})
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes a persisted table.
func (t *AttributeTable) UnmarshalJSON(data []byte) error {
	var rec attributeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	t.Dim = rec.Dim
	t.Values = make(map[edge.Key][]float64, len(rec.Entries))
	for i, e := range rec.Entries {
		if len(e.Values) != rec.Dim {
			return fmt.Errorf("entry %d has %d values, want %d", i, len(e.Values), rec.Dim)
		}
		t.Values[edge.NewKey(e.U, e.V)] = e.Values
	}
	return nil
}

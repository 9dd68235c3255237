package edge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPair_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pair    Pair
		wantErr error
	}{
		{name: "valid pair", pair: Pair{U: 1, V: 2}, wantErr: nil},
		{name: "reversed pair", pair: Pair{U: 9, V: 3}, wantErr: nil},
		{name: "self edge", pair: Pair{U: 4, V: 4}, wantErr: ErrSelfEdge},
		{name: "negative u", pair: Pair{U: -1, V: 4}, wantErr: ErrNegativeNode},
		{name: "negative v", pair: Pair{U: 1, V: -4}, wantErr: ErrNegativeNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pair.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewKey_Symmetric(t *testing.T) {
	for v := int64(0); v < 6; v++ {
		for u := int64(0); u < 6; u++ {
			assert.Equal(t, NewKey(u, v), NewKey(v, u))
			k := NewKey(v, u)
			assert.LessOrEqual(t, k.U, k.V, "NewKey(%d,%d)", v, u)
		}
	}
}

func TestToUndirected(t *testing.T) {
	got := ToUndirected([]Pair{{U: 1, V: 2}, {U: 3, V: 0}})
	assert.Equal(t, []Pair{{U: 1, V: 2}, {U: 3, V: 0}, {U: 2, V: 1}, {U: 0, V: 3}}, got)
}

func TestToUndirected_Empty(t *testing.T) {
	assert.Empty(t, ToUndirected(nil))
}

func TestMaxNode(t *testing.T) {
	assert.Equal(t, int64(-1), MaxNode(nil))
	assert.Equal(t, int64(7), MaxNode([]Pair{{U: 1, V: 7}, {U: 5, V: 2}}))
}

func TestSortedKeys(t *testing.T) {
	set := map[Key]bool{
		NewKey(3, 1): true,
		NewKey(0, 2): true,
		NewKey(1, 2): true,
	}
	assert.Equal(t, []Key{{U: 0, V: 2}, {U: 1, V: 2}, {U: 1, V: 3}}, SortedKeys(set))
}

func TestFindDuplicatePairs(t *testing.T) {
	pairs := []Pair{
		{U: 1, V: 2},
		{U: 2, V: 1}, // same undirected edge
		{U: 1, V: 3},
	}

	dups := FindDuplicatePairs(pairs)
	require.Len(t, dups, 1)
	assert.Equal(t, 2, dups[NewKey(1, 2)])
}

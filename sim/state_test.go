package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState_Validation(t *testing.T) {
	tests := []struct {
		name    string
		n, l    int
		j       float64
		want    State
		wantErr bool
	}{
		{"s state", 6, 0, 0.5, State{6, 0, 1}, false},
		{"p three-halves", 6, 1, 1.5, State{6, 1, 3}, false},
		{"d five-halves", 5, 2, 2.5, State{5, 2, 5}, false},
		{"j not half-integer", 6, 1, 1.2, State{}, true},
		{"j integer", 6, 1, 1.0, State{}, true},
		{"j too large for l", 6, 1, 2.5, State{}, true},
		{"l equals n", 6, 6, 5.5, State{}, true},
		{"l above n-1", 3, 3, 2.5, State{}, true},
		{"negative l", 6, -1, 0.5, State{}, true},
		{"zero n", 0, 0, 0.5, State{}, true},
		{"l zero wrong j", 6, 0, 1.5, State{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewState(tt.n, tt.l, tt.j)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestState_ExactJ(t *testing.T) {
	// Doubled-j storage must make fine-structure partners distinct under ==.
	a := State{N: 5, L: 2, J2: 3}
	b := State{N: 5, L: 2, J2: 5}
	assert.NotEqual(t, a, b)
	assert.Equal(t, 1.5, a.J())
	assert.Equal(t, 2.5, b.J())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "6S1/2", State{6, 0, 1}.String())
	assert.Equal(t, "6P3/2", State{6, 1, 3}.String())
	assert.Equal(t, "5D5/2", State{5, 2, 5}.String())
	assert.Equal(t, "40(l=12)25/2", State{40, 12, 25}.String())
}

func TestNewStateTable_RejectsDuplicates(t *testing.T) {
	_, err := NewStateTable([]State{{6, 0, 1}, {6, 1, 3}, {6, 0, 1}})
	assert.ErrorContains(t, err, "duplicate")
}

func TestNewStateTable_RejectsInvalidStates(t *testing.T) {
	_, err := NewStateTable([]State{{6, 0, 3}})
	assert.Error(t, err)
}

func TestStateTable_IndexIsExact(t *testing.T) {
	table, err := NewStateTable([]State{{5, 2, 5}, {5, 2, 3}, {6, 0, 1}})
	require.NoError(t, err)

	i, ok := table.Index(State{5, 2, 3})
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	// The other fine-structure partner must not alias.
	i, ok = table.Index(State{5, 2, 5})
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = table.Index(State{7, 2, 3})
	assert.False(t, ok)
}

func TestEnumerateStates_CaesiumOrder(t *testing.T) {
	species, err := LookupSpecies("Cs")
	require.NoError(t, err)

	table, err := EnumerateStates(species, 7, 3)
	require.NoError(t, err)

	// Extra levels first, then ground, then the (n, l, j) sweep with the
	// ground state deduplicated out of the n=6, l=0 slot.
	want := []State{
		// extra levels, then ground
		{5, 2, 5}, {5, 2, 3}, {6, 0, 1},
		// n=6 sweep (l=0 slot already taken by ground)
		{6, 1, 1}, {6, 1, 3}, {6, 2, 3}, {6, 2, 5},
		// n=7 sweep
		{7, 0, 1}, {7, 1, 1}, {7, 1, 3}, {7, 2, 3}, {7, 2, 5},
	}
	assert.Equal(t, want, table.States())

	// 5D3/2 must keep its extra-level index, not get re-added in the sweep.
	i, ok := table.Index(State{5, 2, 3})
	require.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestEnumerateStates_NoDuplicates(t *testing.T) {
	species, err := LookupSpecies("Rb87")
	require.NoError(t, err)

	table, err := EnumerateStates(species, 20, 5)
	require.NoError(t, err)

	seen := make(map[State]bool)
	for _, s := range table.States() {
		assert.False(t, seen[s], "duplicate state %v", s)
		seen[s] = true
	}
}

func TestEnumerateStates_Bounds(t *testing.T) {
	species, err := LookupSpecies("Cs")
	require.NoError(t, err)

	_, err = EnumerateStates(species, 5, 3)
	assert.Error(t, err, "nMax below ground n")

	_, err = EnumerateStates(species, 10, 0)
	assert.Error(t, err, "lMax below 1")
}

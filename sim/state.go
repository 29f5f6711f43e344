package sim

import (
	"fmt"
	"strings"
)

// spectroscopic letters for orbital angular momentum; l beyond this range
// falls back to a numeric label.
const spectroscopicLetters = "SPDFGHIK"

// State identifies an atomic level by its quantum numbers (n, l, j).
// The total angular momentum j is half-integer valued and must compare
// exactly, so it is stored doubled: J2 = 2j. Convert with J() only at the
// provider boundary.
type State struct {
	N  int // principal quantum number, >= 1
	L  int // orbital angular momentum, 0 <= L <= N-1
	J2 int // doubled total angular momentum, 2*l+1 or 2*l-1 (1 when L == 0)
}

// NewState validates the quantum numbers and returns the corresponding State.
// j is accepted as a float (e.g. 1.5 for j=3/2) and stored doubled.
func NewState(n, l int, j float64) (State, error) {
	j2 := int(2*j + 0.5)
	if float64(j2) != 2*j {
		return State{}, fmt.Errorf("j=%v is not a half-integer", j)
	}
	s := State{N: n, L: l, J2: j2}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// Validate checks the angular-momentum coupling constraints.
func (s State) Validate() error {
	if s.N < 1 {
		return fmt.Errorf("n=%d must be positive", s.N)
	}
	if s.L < 0 || s.L > s.N-1 {
		return fmt.Errorf("l=%d out of range for n=%d", s.L, s.N)
	}
	if s.L == 0 {
		if s.J2 != 1 {
			return fmt.Errorf("j=%d/2 invalid for l=0 (must be 1/2)", s.J2)
		}
		return nil
	}
	if s.J2 != 2*s.L-1 && s.J2 != 2*s.L+1 {
		return fmt.Errorf("j=%d/2 invalid for l=%d (must be l-1/2 or l+1/2)", s.J2, s.L)
	}
	return nil
}

// J returns the total angular momentum as a float, for provider boundaries
// and display only. Never compare J() values; compare J2.
func (s State) J() float64 {
	return float64(s.J2) / 2
}

// String renders the level in spectroscopic notation, e.g. "6P3/2".
func (s State) String() string {
	if s.L < len(spectroscopicLetters) {
		return fmt.Sprintf("%d%c%d/2", s.N, spectroscopicLetters[s.L], s.J2)
	}
	return fmt.Sprintf("%d(l=%d)%d/2", s.N, s.L, s.J2)
}

// StateTable is an ordered, duplicate-free list of states. The position of a
// state in the table is its canonical index in the rate matrix. The table is
// built once per (species, nMax, lMax) configuration and is immutable
// afterwards; it may be shared freely between goroutines.
type StateTable struct {
	states []State
	index  map[State]int
}

// NewStateTable builds a table from an ordered state list, rejecting
// duplicates and invalid quantum-number combinations.
func NewStateTable(states []State) (*StateTable, error) {
	t := &StateTable{index: make(map[State]int, len(states))}
	for _, s := range states {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("state %v: %w", s, err)
		}
		if !t.add(s) {
			return nil, fmt.Errorf("duplicate state %v", s)
		}
	}
	return t, nil
}

// add appends s unless it is already present. Reports whether s was added.
func (t *StateTable) add(s State) bool {
	if _, ok := t.index[s]; ok {
		return false
	}
	t.index[s] = len(t.states)
	t.states = append(t.states, s)
	return true
}

// Len returns the number of states in the table.
func (t *StateTable) Len() int {
	return len(t.states)
}

// At returns the state at index i.
func (t *StateTable) At(i int) State {
	return t.states[i]
}

// Index returns the table index of s and whether s is present. Lookup is by
// exact triple, not floating-point proximity.
func (t *StateTable) Index(s State) (int, bool) {
	i, ok := t.index[s]
	return i, ok
}

// States returns the table contents for iteration. The returned slice is the
// table's internal storage -- callers may iterate over it but MUST NOT modify it.
func (t *StateTable) States() []State {
	return t.states
}

func (t *StateTable) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, s := range t.states {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(s.String())
	}
	sb.WriteString("]")
	return sb.String()
}

// EnumerateStates lists every reachable level of a species within the given
// bounds: first the species' extra levels, then the ground state, then for
// each n from the ground n through nMax and each l below lMax the allowed
// fine-structure states (j = 1/2 for l=0, otherwise j = l-1/2 and l+1/2).
// States already present are skipped, so the extra levels and ground state
// keep the lowest indices. Order is enumeration order, not energy order.
func EnumerateStates(species SpeciesConfig, nMax, lMax int) (*StateTable, error) {
	if nMax < species.Ground.N {
		return nil, fmt.Errorf("nMax=%d below ground state n=%d for %s", nMax, species.Ground.N, species.Name)
	}
	if lMax < 1 {
		return nil, fmt.Errorf("lMax=%d must be at least 1", lMax)
	}
	t := &StateTable{index: make(map[State]int)}
	for _, s := range species.ExtraLevels {
		t.add(s)
	}
	t.add(species.Ground)
	for n := species.Ground.N; n <= nMax; n++ {
		for l := 0; l < lMax && l <= n-1; l++ {
			if l == 0 {
				t.add(State{N: n, L: 0, J2: 1})
				continue
			}
			t.add(State{N: n, L: l, J2: 2*l - 1})
			t.add(State{N: n, L: l, J2: 2*l + 1})
		}
	}
	return t, nil
}

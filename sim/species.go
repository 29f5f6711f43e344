package sim

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSpecies is returned when a species name is not in the registry.
var ErrUnknownSpecies = errors.New("unknown species")

// SpeciesConfig describes the species-specific inputs of a cascade: the
// ground level at which trajectories stop and the "extra levels" that sit
// below the ground state spectroscopically but above it energetically
// (e.g. the 5D fine-structure doublet in caesium).
type SpeciesConfig struct {
	Name        string
	Ground      State
	ExtraLevels []State
}

// speciesRegistry holds the supported species. Ground levels and extra
// levels follow the usual alkali level structure: Cs terminates at 6S1/2
// with the 5D doublet as extra levels, Rb87 at 5S1/2 with the 4D doublet.
var speciesRegistry = map[string]SpeciesConfig{
	"Cs": {
		Name:   "Cs",
		Ground: State{N: 6, L: 0, J2: 1},
		ExtraLevels: []State{
			{N: 5, L: 2, J2: 5},
			{N: 5, L: 2, J2: 3},
		},
	},
	"Rb87": {
		Name:   "Rb87",
		Ground: State{N: 5, L: 0, J2: 1},
		ExtraLevels: []State{
			{N: 4, L: 2, J2: 5},
			{N: 4, L: 2, J2: 3},
		},
	},
}

// LookupSpecies resolves a species name to its configuration. Unrecognized
// names fail here, before any computation is attempted.
func LookupSpecies(name string) (SpeciesConfig, error) {
	cfg, ok := speciesRegistry[name]
	if !ok {
		return SpeciesConfig{}, fmt.Errorf("%w %q (supported: %v)", ErrUnknownSpecies, name, SpeciesNames())
	}
	return cfg, nil
}

// SpeciesNames returns the registered species names in sorted order.
func SpeciesNames() []string {
	names := make([]string, 0, len(speciesRegistry))
	for name := range speciesRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

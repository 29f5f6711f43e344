// Package physics provides an approximate built-in sim.Provider based on
// quantum-defect energies and a hydrogenic dipole estimate. It lets the CLI
// run end to end without an external atomic-physics service; for
// publication-grade rates, inject a provider backed by a dedicated package
// such as ARC instead.
package physics

import (
	"fmt"
	"math"

	"github.com/LucyDownes/Fluorescence-Sim/sim"
)

// Physical constants (SI, CODATA 2018).
const (
	rydbergEnergy  = 2.1798723611030e-18 // J
	planck         = 6.62607015e-34      // J s
	hbar           = 1.054571817e-34     // J s
	lightSpeed     = 2.99792458e8        // m/s
	electronCharge = 1.602176634e-19     // C
	epsilon0       = 8.8541878128e-12    // F/m
	boltzmann      = 1.380649e-23        // J/K
	bohrRadius     = 5.29177210903e-11   // m
)

// fineStructureKey identifies a quantum-defect series by (l, 2j).
type fineStructureKey struct {
	l, j2 int
}

// Lowest-order quantum defects per species and series. Defects for l > 3 are
// negligible and treated as zero.
var quantumDefects = map[string]map[fineStructureKey]float64{
	"Cs": {
		{0, 1}: 4.0493532,
		{1, 1}: 3.5915871,
		{1, 3}: 3.5590676,
		{2, 3}: 2.4754562,
		{2, 5}: 2.4663144,
		{3, 5}: 0.0334759,
		{3, 7}: 0.0335646,
	},
	"Rb87": {
		{0, 1}: 3.1311804,
		{1, 1}: 2.6548849,
		{1, 3}: 2.6416737,
		{2, 3}: 1.34809171,
		{2, 5}: 1.34646572,
		{3, 5}: 0.0165192,
		{3, 7}: 0.0165437,
	},
}

// QuantumDefect is an approximate sim.Provider for a single species. Level
// energies come from the quantum-defect formula E = -Ry/(n - δ)²; rates use
// a hydrogenic estimate of the dipole moment with a Planck-factor
// blackbody-stimulated contribution. Like exact providers, it fails on
// dipole-forbidden pairs rather than returning zero.
type QuantumDefect struct {
	species string
	defects map[fineStructureKey]float64
}

// NewQuantumDefect creates a provider for the named species.
func NewQuantumDefect(species string) (*QuantumDefect, error) {
	if _, err := sim.LookupSpecies(species); err != nil {
		return nil, err
	}
	defects, ok := quantumDefects[species]
	if !ok {
		return nil, fmt.Errorf("%w %q: no quantum-defect data", sim.ErrUnknownSpecies, species)
	}
	return &QuantumDefect{species: species, defects: defects}, nil
}

// effectiveN returns n - δ(l, j) for the level.
func (q *QuantumDefect) effectiveN(s sim.State) (float64, error) {
	delta := 0.0
	if s.L <= 3 {
		delta = q.defects[fineStructureKey{s.L, s.J2}]
	}
	nEff := float64(s.N) - delta
	if nEff <= 0 {
		return 0, fmt.Errorf("state %v lies below the quantum-defect series (n* = %v)", s, nEff)
	}
	return nEff, nil
}

// energy returns the level energy in Joules, negative below the ionization
// threshold.
func (q *QuantumDefect) energy(s sim.State) (float64, error) {
	nEff, err := q.effectiveN(s)
	if err != nil {
		return 0, err
	}
	return -rydbergEnergy / (nEff * nEff), nil
}

// TransitionWavelength returns the wavelength in metres, signed by
// E(to) - E(from): positive for absorption, negative for emission.
func (q *QuantumDefect) TransitionWavelength(from, to sim.State) (float64, error) {
	if !sim.DipoleAllowed(from, to) {
		return 0, fmt.Errorf("transition %v -> %v is not dipole allowed", from, to)
	}
	ef, err := q.energy(from)
	if err != nil {
		return 0, err
	}
	et, err := q.energy(to)
	if err != nil {
		return 0, err
	}
	if et == ef {
		return 0, fmt.Errorf("transition %v -> %v is degenerate", from, to)
	}
	return planck * lightSpeed / (et - ef), nil
}

// TransitionRate returns the spontaneous plus blackbody-stimulated rate in
// s^-1 at the given temperature. Downward transitions get the spontaneous
// Einstein A coefficient times (1 + n̄); upward transitions are purely
// stimulated, scaled by the level degeneracy ratio per detailed balance.
func (q *QuantumDefect) TransitionRate(from, to sim.State, temperature float64) (float64, error) {
	if temperature < 0 {
		return 0, fmt.Errorf("temperature %vK must be non-negative", temperature)
	}
	if !sim.DipoleAllowed(from, to) {
		return 0, fmt.Errorf("transition %v -> %v is not dipole allowed", from, to)
	}
	ef, err := q.energy(from)
	if err != nil {
		return 0, err
	}
	et, err := q.energy(to)
	if err != nil {
		return 0, err
	}
	gap := math.Abs(et - ef)
	if gap == 0 {
		return 0, nil
	}

	// Hydrogenic estimate: dipole length ~ (3/2) n*² a0 of the lower level.
	lower := from
	if et < ef {
		lower = to
	}
	nEff, err := q.effectiveN(lower)
	if err != nil {
		return 0, err
	}
	dipole := electronCharge * 1.5 * nEff * nEff * bohrRadius
	omega := gap / hbar
	einsteinA := omega * omega * omega * dipole * dipole / (3 * math.Pi * epsilon0 * hbar * lightSpeed * lightSpeed * lightSpeed)

	occupation := 0.0
	if temperature > 0 {
		occupation = 1 / math.Expm1(gap/(boltzmann*temperature))
	}
	if et < ef {
		return einsteinA * (1 + occupation), nil
	}
	degeneracyRatio := float64(to.J2+1) / float64(from.J2+1)
	return einsteinA * occupation * degeneracyRatio, nil
}

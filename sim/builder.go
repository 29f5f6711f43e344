package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// BuildRateMatrix enumerates all states of a species reachable within
// (nMax, lMax) and fills the square matrix of transition rates between them.
// Entry (i, j) is the rate (s^-1) from state i to state j at the given
// temperature, or exactly zero when the dipole selection rule forbids the
// transition or i == j. The provider is only ever queried for allowed pairs;
// a provider failure on an allowed pair indicates inconsistent data and
// propagates unmodified.
func BuildRateMatrix(provider Provider, species string, nMax, lMax int, temperature float64) (*StateTable, *mat.Dense, error) {
	if temperature < 0 {
		return nil, nil, fmt.Errorf("temperature %vK must be non-negative", temperature)
	}
	cfg, err := LookupSpecies(species)
	if err != nil {
		return nil, nil, err
	}
	table, err := EnumerateStates(cfg, nMax, lMax)
	if err != nil {
		return nil, nil, err
	}
	logrus.Debugf("enumerated %d states for %s (nMax=%d, lMax=%d)", table.Len(), species, nMax, lMax)

	n := table.Len()
	rates := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		logrus.Debugf("computing transitions for state %d of %d (%v)", i+1, n, table.At(i))
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			from, to := table.At(i), table.At(j)
			if !DipoleAllowed(from, to) {
				continue
			}
			rate, err := provider.TransitionRate(from, to, temperature)
			if err != nil {
				return nil, nil, fmt.Errorf("transition rate %v -> %v: %w", from, to, err)
			}
			rates.Set(i, j, rate)
		}
	}
	return table, rates, nil
}

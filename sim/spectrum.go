package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Transition is a single decay pathway between two levels.
type Transition struct {
	From, To State
}

// String renders the pathway in spectroscopic notation, e.g. "6P3/2 -> 6S1/2".
func (t Transition) String() string {
	return fmt.Sprintf("%v -> %v", t.From, t.To)
}

// StateCount pairs a visited state with its visitation count.
type StateCount struct {
	State State
	Count int
}

// TransitionCount pairs a decay pathway with its occurrence count.
type TransitionCount struct {
	Transition Transition
	Count      int
}

// Result aggregates one simulation run. All fields are derived from the
// recorded trajectories; nothing in a Result is shared with later runs.
type Result struct {
	// BinEdges holds the left edge of each histogram bin, in nm.
	BinEdges []float64
	// Counts holds the raw number of in-window photons per bin.
	Counts []int
	// PerDecay is Counts divided by the iteration count: the average number
	// of photons per cascade in each bin. Its sum may exceed 1, since one
	// cascade typically emits several in-window photons.
	PerDecay []float64
	// Emissions is the total number of in-window photons recorded.
	Emissions int
	// DeadEnds counts trajectories that ended on a state with no allowed
	// outgoing transition, rather than at the ground level.
	DeadEnds int

	// States lists each visited state with its visitation count, sorted by
	// (n, l, j). Populated only when CascadeConfig.IncludePopulations is set.
	// A state is counted when it is the destination of an in-window emission
	// and when it terminates a trajectory.
	States []StateCount
	// Transitions lists each pathway that produced an in-window photon with
	// its occurrence count, sorted by (from, to). Populated only when
	// CascadeConfig.IncludePathways is set.
	Transitions []TransitionCount
}

// binWavelengths builds the spectrum histogram: equal-width bins spanning
// the window, with the upper window edge folded into the last bin. Callers
// guarantee every wavelength lies inside the window.
func binWavelengths(wavelengths []float64, cfg SpectrumConfig) (edges []float64, counts []int) {
	bins := cfg.Bins()
	allEdges := make([]float64, bins+1)
	floats.Span(allEdges, cfg.MinWavelength, cfg.MaxWavelength)
	width := (cfg.MaxWavelength - cfg.MinWavelength) / float64(bins)

	counts = make([]int, bins)
	for _, w := range wavelengths {
		idx := int((w - cfg.MinWavelength) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	return allEdges[:bins], counts
}

// sortStateCounts orders population statistics by quantum numbers so that
// results are reproducible across runs and worker counts.
func sortStateCounts(counts map[State]int) []StateCount {
	out := make([]StateCount, 0, len(counts))
	for s, c := range counts {
		out = append(out, StateCount{State: s, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		return stateLess(out[i].State, out[j].State)
	})
	return out
}

// sortTransitionCounts orders pathway statistics by (from, to).
func sortTransitionCounts(counts map[Transition]int) []TransitionCount {
	out := make([]TransitionCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TransitionCount{Transition: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Transition, out[j].Transition
		if a.From != b.From {
			return stateLess(a.From, b.From)
		}
		return stateLess(a.To, b.To)
	})
	return out
}

func stateLess(a, b State) bool {
	if a.N != b.N {
		return a.N < b.N
	}
	if a.L != b.L {
		return a.L < b.L
	}
	return a.J2 < b.J2
}

// WriteSpectrum writes the spectrum as a two-column CSV: bin left edge in
// nm, average photons per decay.
func (r *Result) WriteSpectrum(path string) error {
	return writeCSV(path, func(w *csv.Writer) error {
		for i, edge := range r.BinEdges {
			record := []string{
				strconv.FormatFloat(edge, 'g', -1, 64),
				strconv.FormatFloat(r.PerDecay[i], 'g', -1, 64),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WritePopulations writes the per-state visitation counts as a CSV with
// columns n, l, j, count.
func (r *Result) WritePopulations(path string) error {
	return writeCSV(path, func(w *csv.Writer) error {
		for _, sc := range r.States {
			record := []string{
				strconv.Itoa(sc.State.N),
				strconv.Itoa(sc.State.L),
				strconv.FormatFloat(sc.State.J(), 'g', -1, 64),
				strconv.Itoa(sc.Count),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WritePathways writes the per-transition occurrence counts as a CSV with
// columns pathway, n1, l1, j1, n2, l2, j2, count.
func (r *Result) WritePathways(path string) error {
	return writeCSV(path, func(w *csv.Writer) error {
		for _, tc := range r.Transitions {
			from, to := tc.Transition.From, tc.Transition.To
			record := []string{
				tc.Transition.String(),
				strconv.Itoa(from.N),
				strconv.Itoa(from.L),
				strconv.FormatFloat(from.J(), 'g', -1, 64),
				strconv.Itoa(to.N),
				strconv.Itoa(to.L),
				strconv.FormatFloat(to.J(), 'g', -1, 64),
				strconv.Itoa(tc.Count),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logrus.Errorf("closing %s: %v", path, closeErr)
		}
	}()
	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

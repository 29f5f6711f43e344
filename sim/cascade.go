package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrStateNotFound is returned when a requested starting state has no row in
// the state table. The simulator never falls back to an arbitrary state.
var ErrStateNotFound = errors.New("state not in table")

// CascadeSimulator runs stochastic decay cascades over a prebuilt state
// table and rate matrix. The table, matrix and derived sampling data are
// read-only after construction, so a single simulator may serve concurrent
// Run calls and its trajectory workers without locking.
type CascadeSimulator struct {
	provider Provider
	species  SpeciesConfig
	table    *StateTable

	// cumulative[i] is the cumulative probability distribution over the
	// normalized outgoing-rate row of state i, or nil when the row sums to
	// zero (a dead-end state with no allowed decay).
	cumulative [][]float64
}

// NewCascadeSimulator validates the table/matrix pair and precomputes the
// per-state cumulative sampling distributions.
func NewCascadeSimulator(provider Provider, species SpeciesConfig, table *StateTable, rates *mat.Dense) (*CascadeSimulator, error) {
	rows, cols := rates.Dims()
	if rows != table.Len() || cols != table.Len() {
		return nil, fmt.Errorf("rate matrix is %dx%d, want %dx%d", rows, cols, table.Len(), table.Len())
	}
	cumulative := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := rates.RawRowView(i)
		total := floats.Sum(row)
		if total == 0 {
			continue
		}
		cum := make([]float64, cols)
		for j, rate := range row {
			if rate < 0 {
				return nil, fmt.Errorf("negative rate %v for %v -> %v", rate, table.At(i), table.At(j))
			}
			cum[j] = rate / total
		}
		floats.CumSum(cum, cum)
		// The distribution must end at exactly 1 so a draw near 1 cannot
		// fall off the end after rounding; pin the tail from the last
		// nonzero-rate entry onward.
		for k := cols - 1; k >= 0; k-- {
			if row[k] > 0 {
				for m := k; m < cols; m++ {
					cum[m] = 1
				}
				break
			}
		}
		cumulative[i] = cum
	}
	return &CascadeSimulator{
		provider:   provider,
		species:    species,
		table:      table,
		cumulative: cumulative,
	}, nil
}

// trajectoryBatch holds one worker's partial results, merged after all
// workers complete.
type trajectoryBatch struct {
	wavelengths   []float64
	transitions   map[Transition]int
	states        map[State]int
	deadEnds      int
	deadEndStates map[State]struct{}
	err           error
}

// Run executes cfg.Iterations independent decay trajectories from the start
// state and aggregates the recorded photons into a spectrum. Trajectories
// are distributed across cfg.Workers goroutines, each drawing from its own
// deterministically-derived RNG stream; a fixed seed and worker count yields
// an identical Result.
//
// A trajectory that reaches a state with a zero outgoing-rate row terminates
// there without reaching ground; such events are counted in Result.DeadEnds
// rather than aborting the run.
func (cs *CascadeSimulator) Run(start State, spec SpectrumConfig, cfg CascadeConfig) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	startIdx, ok := cs.table.Index(start)
	if !ok {
		return nil, fmt.Errorf("starting state %v: %w", start, ErrStateNotFound)
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers > cfg.Iterations {
		workers = cfg.Iterations
	}

	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	batches := make([]trajectoryBatch, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		iters := cfg.Iterations / workers
		if w < cfg.Iterations%workers {
			iters++
		}
		wg.Add(1)
		go func(w, iters int, stream *rand.Rand) {
			defer wg.Done()
			batches[w] = cs.runBatch(startIdx, iters, stream, spec, cfg)
		}(w, iters, rng.ForWorker(w))
	}
	wg.Wait()

	return cs.merge(batches, spec, cfg)
}

// runBatch runs one worker's share of trajectories on its private RNG
// stream. Wavelengths returned by the provider are negated (the provider's
// frame is absorption-oriented) and converted to nm before the window test.
func (cs *CascadeSimulator) runBatch(startIdx, iters int, rng *rand.Rand, spec SpectrumConfig, cfg CascadeConfig) trajectoryBatch {
	batch := trajectoryBatch{
		transitions:   make(map[Transition]int),
		states:        make(map[State]int),
		deadEndStates: make(map[State]struct{}),
	}
	// Emission wavelengths repeat heavily within a table; cache the provider
	// answers per pathway.
	wavelengthCache := make(map[Transition]float64)

	for i := 0; i < iters; i++ {
		current := startIdx
		for {
			cum := cs.cumulative[current]
			if cum == nil {
				state := cs.table.At(current)
				batch.deadEnds++
				batch.deadEndStates[state] = struct{}{}
				if cfg.IncludePopulations {
					batch.states[state]++
				}
				break
			}
			next := sampleIndex(cum, rng.Float64())
			from, to := cs.table.At(current), cs.table.At(next)

			pathway := Transition{From: from, To: to}
			wavelength, ok := wavelengthCache[pathway]
			if !ok {
				absorption, err := cs.provider.TransitionWavelength(from, to)
				if err != nil {
					batch.err = fmt.Errorf("transition wavelength %v: %w", pathway, err)
					return batch
				}
				wavelength = -absorption * 1e9 // emission frame, metres to nm
				wavelengthCache[pathway] = wavelength
			}
			if wavelength >= spec.MinWavelength && wavelength <= spec.MaxWavelength {
				batch.wavelengths = append(batch.wavelengths, wavelength)
				if cfg.IncludePathways {
					batch.transitions[pathway]++
				}
				if cfg.IncludePopulations {
					batch.states[to]++
				}
			}

			current = next
			if to.N <= cs.species.Ground.N && to.L == cs.species.Ground.L {
				if cfg.IncludePopulations {
					batch.states[to]++
				}
				break
			}
		}
	}
	return batch
}

// sampleIndex draws from a discrete distribution by inverse CDF: the first
// index whose cumulative probability strictly exceeds u. The strict
// comparison skips zero-probability plateaus, so forbidden transitions are
// never selected.
func sampleIndex(cum []float64, u float64) int {
	return sort.Search(len(cum), func(i int) bool { return cum[i] > u })
}

// merge concatenates the worker partials, deduplicates the statistics with
// summed counts and bins the spectrum.
func (cs *CascadeSimulator) merge(batches []trajectoryBatch, spec SpectrumConfig, cfg CascadeConfig) (*Result, error) {
	var wavelengths []float64
	transitions := make(map[Transition]int)
	states := make(map[State]int)
	deadEndStates := make(map[State]struct{})
	deadEnds := 0
	for _, batch := range batches {
		if batch.err != nil {
			return nil, batch.err
		}
		wavelengths = append(wavelengths, batch.wavelengths...)
		for t, c := range batch.transitions {
			transitions[t] += c
		}
		for s, c := range batch.states {
			states[s] += c
		}
		for s := range batch.deadEndStates {
			deadEndStates[s] = struct{}{}
		}
		deadEnds += batch.deadEnds
	}
	for _, sc := range sortStateCounts(stateSetCounts(deadEndStates)) {
		logrus.Warnf("state %v has no allowed outgoing transition; trajectories ended there without reaching ground", sc.State)
	}

	edges, counts := binWavelengths(wavelengths, spec)
	result := &Result{
		BinEdges:  edges,
		Counts:    counts,
		PerDecay:  make([]float64, len(counts)),
		Emissions: len(wavelengths),
		DeadEnds:  deadEnds,
	}
	for i, c := range counts {
		result.PerDecay[i] = float64(c) / float64(cfg.Iterations)
	}
	if cfg.IncludePopulations {
		result.States = sortStateCounts(states)
	}
	if cfg.IncludePathways {
		result.Transitions = sortTransitionCounts(transitions)
	}
	return result, nil
}

func stateSetCounts(set map[State]struct{}) map[State]int {
	counts := make(map[State]int, len(set))
	for s := range set {
		counts[s] = 1
	}
	return counts
}

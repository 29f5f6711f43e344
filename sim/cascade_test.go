package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// threeLevelFixture is the canonical toy system: ground G, intermediate A
// that decays to G (5 s^-1, 500 nm), and start state B whose only exit is A
// (15 s^-1, 1000 nm). B -> G is dipole-forbidden (same l).
type threeLevelFixture struct {
	species  SpeciesConfig
	table    *StateTable
	rates    *mat.Dense
	provider *mockProvider
	g, a, b  State
}

func newThreeLevelFixture(t *testing.T) *threeLevelFixture {
	t.Helper()
	g := State{N: 6, L: 0, J2: 1}
	a := State{N: 7, L: 1, J2: 1}
	b := State{N: 8, L: 0, J2: 1}

	table, err := NewStateTable([]State{g, a, b})
	require.NoError(t, err)

	rates := mat.NewDense(3, 3, nil)
	rates.Set(1, 0, 5)  // A -> G
	rates.Set(2, 1, 15) // B -> A

	provider := newMockProvider()
	provider.addDecay(a, g, 5, 500)
	provider.addDecay(b, a, 15, 1000)

	return &threeLevelFixture{
		species:  SpeciesConfig{Name: "toy", Ground: g},
		table:    table,
		rates:    rates,
		provider: provider,
		g:        g,
		a:        a,
		b:        b,
	}
}

func visibleWindow() SpectrumConfig {
	return SpectrumConfig{MinWavelength: 400, MaxWavelength: 750, BinWidth: 0.5}
}

func TestCascade_ThreeLevelScenario(t *testing.T) {
	fix := newThreeLevelFixture(t)
	cs, err := NewCascadeSimulator(fix.provider, fix.species, fix.table, fix.rates)
	require.NoError(t, err)

	const iterations = 10000
	result, err := cs.Run(fix.b, visibleWindow(), CascadeConfig{
		Iterations:         iterations,
		Seed:               42,
		Workers:            4,
		IncludePopulations: true,
		IncludePathways:    true,
	})
	require.NoError(t, err)

	// B -> A emits at 1000 nm, outside the window; A -> G at 500 nm is the
	// only recorded emission and happens exactly once per cascade.
	assert.Equal(t, iterations, result.Emissions)
	assert.Zero(t, result.DeadEnds)

	bin := int((500 - 400) / 0.5)
	assert.Equal(t, 500.0, result.BinEdges[bin])
	assert.Equal(t, iterations, result.Counts[bin])
	assert.Equal(t, 1.0, result.PerDecay[bin])
	for i, c := range result.Counts {
		if i != bin {
			assert.Zero(t, c, "unexpected photons in bin %d (%.1f nm)", i, result.BinEdges[i])
		}
	}

	// Pathways: only A -> G produced in-window photons.
	require.Len(t, result.Transitions, 1)
	assert.Equal(t, Transition{From: fix.a, To: fix.g}, result.Transitions[0].Transition)
	assert.Equal(t, iterations, result.Transitions[0].Count)

	// Populations: G is recorded as the destination of each in-window
	// emission and again as every trajectory's terminal state.
	require.Len(t, result.States, 1)
	assert.Equal(t, fix.g, result.States[0].State)
	assert.Equal(t, 2*iterations, result.States[0].Count)
}

func TestCascade_DeterministicUnderFixedSeed(t *testing.T) {
	fix := newThreeLevelFixture(t)
	cs, err := NewCascadeSimulator(fix.provider, fix.species, fix.table, fix.rates)
	require.NoError(t, err)

	cfg := CascadeConfig{Iterations: 2000, Seed: 7, Workers: 3, IncludePopulations: true, IncludePathways: true}
	first, err := cs.Run(fix.b, visibleWindow(), cfg)
	require.NoError(t, err)
	second, err := cs.Run(fix.b, visibleWindow(), cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCascade_HistogramConservation(t *testing.T) {
	fix := newThreeLevelFixture(t)
	cs, err := NewCascadeSimulator(fix.provider, fix.species, fix.table, fix.rates)
	require.NoError(t, err)

	result, err := cs.Run(fix.b, visibleWindow(), CascadeConfig{Iterations: 500, Seed: 1, Workers: 2})
	require.NoError(t, err)

	total := 0
	for _, c := range result.Counts {
		require.GreaterOrEqual(t, c, 0)
		total += c
	}
	assert.Equal(t, result.Emissions, total)
}

func TestCascade_StartStateNotFound(t *testing.T) {
	fix := newThreeLevelFixture(t)
	cs, err := NewCascadeSimulator(fix.provider, fix.species, fix.table, fix.rates)
	require.NoError(t, err)

	_, err = cs.Run(State{N: 50, L: 0, J2: 1}, visibleWindow(), CascadeConfig{Iterations: 10, Seed: 1, Workers: 1})
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestCascade_DeadEndTerminatesTrajectory(t *testing.T) {
	// X decays only to Y; Y has no allowed exit and the ground level is
	// unreachable. Trajectories must end at Y in finite steps, flagged as
	// dead ends rather than looping or dividing by zero.
	x := State{N: 8, L: 0, J2: 1}
	y := State{N: 7, L: 1, J2: 1}
	table, err := NewStateTable([]State{x, y})
	require.NoError(t, err)
	rates := mat.NewDense(2, 2, nil)
	rates.Set(0, 1, 3)

	provider := newMockProvider()
	provider.addDecay(x, y, 3, 2000)

	cs, err := NewCascadeSimulator(provider, SpeciesConfig{Name: "toy", Ground: State{N: 2, L: 0, J2: 1}}, table, rates)
	require.NoError(t, err)

	const iterations = 100
	result, err := cs.Run(x, visibleWindow(), CascadeConfig{
		Iterations:         iterations,
		Seed:               3,
		Workers:            2,
		IncludePopulations: true,
	})
	require.NoError(t, err)

	assert.Equal(t, iterations, result.DeadEnds)
	assert.Zero(t, result.Emissions, "2000 nm photon is out of window")
	require.Len(t, result.States, 1)
	assert.Equal(t, y, result.States[0].State)
	assert.Equal(t, iterations, result.States[0].Count)
}

func TestCascade_TerminationIgnoresJ(t *testing.T) {
	// A destination with the ground level's n and l but a different j must
	// still terminate the trajectory.
	ground := State{N: 6, L: 2, J2: 3}
	start := State{N: 7, L: 1, J2: 3}
	dest := State{N: 5, L: 2, J2: 5}
	table, err := NewStateTable([]State{ground, start, dest})
	require.NoError(t, err)
	rates := mat.NewDense(3, 3, nil)
	rates.Set(1, 2, 10)

	provider := newMockProvider()
	provider.addDecay(start, dest, 10, 500)

	cs, err := NewCascadeSimulator(provider, SpeciesConfig{Name: "toy", Ground: ground}, table, rates)
	require.NoError(t, err)

	result, err := cs.Run(start, visibleWindow(), CascadeConfig{
		Iterations:         50,
		Seed:               9,
		Workers:            1,
		IncludePopulations: true,
	})
	require.NoError(t, err)

	assert.Zero(t, result.DeadEnds)
	assert.Equal(t, 50, result.Emissions)
	// dest is counted once as emission destination and once as terminal.
	require.Len(t, result.States, 1)
	assert.Equal(t, dest, result.States[0].State)
	assert.Equal(t, 100, result.States[0].Count)
}

func TestCascade_StatsOmittedWithoutFlags(t *testing.T) {
	fix := newThreeLevelFixture(t)
	cs, err := NewCascadeSimulator(fix.provider, fix.species, fix.table, fix.rates)
	require.NoError(t, err)

	result, err := cs.Run(fix.b, visibleWindow(), CascadeConfig{Iterations: 100, Seed: 1, Workers: 1})
	require.NoError(t, err)
	assert.Nil(t, result.States)
	assert.Nil(t, result.Transitions)
}

func TestCascade_WavelengthProviderErrorPropagates(t *testing.T) {
	fix := newThreeLevelFixture(t)
	delete(fix.provider.wavelengths, Transition{From: fix.a, To: fix.g})
	cs, err := NewCascadeSimulator(fix.provider, fix.species, fix.table, fix.rates)
	require.NoError(t, err)

	_, err = cs.Run(fix.b, visibleWindow(), CascadeConfig{Iterations: 10, Seed: 1, Workers: 1})
	require.Error(t, err)
	assert.ErrorContains(t, err, "transition wavelength")
}

func TestCascade_InvalidConfigs(t *testing.T) {
	fix := newThreeLevelFixture(t)
	cs, err := NewCascadeSimulator(fix.provider, fix.species, fix.table, fix.rates)
	require.NoError(t, err)

	_, err = cs.Run(fix.b, SpectrumConfig{MinWavelength: 750, MaxWavelength: 400, BinWidth: 0.5},
		CascadeConfig{Iterations: 10, Seed: 1, Workers: 1})
	assert.Error(t, err, "inverted window")

	_, err = cs.Run(fix.b, visibleWindow(), CascadeConfig{Iterations: 0, Seed: 1, Workers: 1})
	assert.Error(t, err, "zero iterations")
}

func TestNewCascadeSimulator_Validation(t *testing.T) {
	fix := newThreeLevelFixture(t)

	_, err := NewCascadeSimulator(fix.provider, fix.species, fix.table, mat.NewDense(2, 2, nil))
	assert.Error(t, err, "dimension mismatch")

	bad := mat.NewDense(3, 3, nil)
	bad.Set(1, 0, -4)
	_, err = NewCascadeSimulator(fix.provider, fix.species, fix.table, bad)
	assert.Error(t, err, "negative rate")
}

func TestCascade_MoreWorkersThanIterations(t *testing.T) {
	fix := newThreeLevelFixture(t)
	cs, err := NewCascadeSimulator(fix.provider, fix.species, fix.table, fix.rates)
	require.NoError(t, err)

	result, err := cs.Run(fix.b, visibleWindow(), CascadeConfig{Iterations: 3, Seed: 1, Workers: 64})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Emissions)
}

package sim

import (
	"fmt"
	"sync"
)

// mockProvider is a table-backed Provider for tests. It records every call
// and fails loudly when queried for a pair it has no entry for, mirroring
// real providers that error on dipole-forbidden transitions.
type mockProvider struct {
	mu          sync.Mutex
	rates       map[Transition]float64
	wavelengths map[Transition]float64 // absorption-signed, metres
	rateCalls   []Transition

	// defaultRate, when set, answers rate queries with no table entry
	// instead of failing. Wavelength queries always require an entry.
	defaultRate *float64
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		rates:       make(map[Transition]float64),
		wavelengths: make(map[Transition]float64),
	}
}

// addDecay registers a downward transition with the given rate (s^-1) and
// emission wavelength (nm). The stored wavelength is absorption-signed, as a
// real provider would return it.
func (m *mockProvider) addDecay(from, to State, rate, emissionNM float64) {
	t := Transition{From: from, To: to}
	m.rates[t] = rate
	m.wavelengths[t] = -emissionNM * 1e-9
}

func (m *mockProvider) TransitionRate(from, to State, temperature float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := Transition{From: from, To: to}
	m.rateCalls = append(m.rateCalls, t)
	rate, ok := m.rates[t]
	if !ok {
		if m.defaultRate != nil {
			return *m.defaultRate, nil
		}
		return 0, fmt.Errorf("no rate entry for %v", t)
	}
	return rate, nil
}

func (m *mockProvider) TransitionWavelength(from, to State) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wl, ok := m.wavelengths[Transition{From: from, To: to}]
	if !ok {
		return 0, fmt.Errorf("no wavelength entry for %v -> %v", from, to)
	}
	return wl, nil
}

package sim

import "fmt"

// SpectrumConfig groups the spectral window and binning parameters.
// Wavelengths are in nanometres; the window is inclusive at both edges.
type SpectrumConfig struct {
	MinWavelength float64 // lower window edge (must be >= 0)
	MaxWavelength float64 // upper window edge (must be > MinWavelength)
	BinWidth      float64 // histogram bin width (must be > 0)
}

// Validate checks the window and bin parameters.
func (c SpectrumConfig) Validate() error {
	if c.MinWavelength < 0 {
		return fmt.Errorf("window lower edge %vnm must be non-negative", c.MinWavelength)
	}
	if c.MaxWavelength <= c.MinWavelength {
		return fmt.Errorf("window (%v, %v)nm must have upper edge above lower", c.MinWavelength, c.MaxWavelength)
	}
	if c.BinWidth <= 0 {
		return fmt.Errorf("bin width %vnm must be positive", c.BinWidth)
	}
	if c.BinWidth > c.MaxWavelength-c.MinWavelength {
		return fmt.Errorf("bin width %vnm exceeds window span %vnm", c.BinWidth, c.MaxWavelength-c.MinWavelength)
	}
	return nil
}

// Bins returns the number of equal-width histogram bins over the window.
func (c SpectrumConfig) Bins() int {
	return int((c.MaxWavelength - c.MinWavelength) / c.BinWidth)
}

// CascadeConfig groups the Monte Carlo run parameters.
type CascadeConfig struct {
	Iterations int   // number of independent decay trajectories (must be > 0)
	Seed       int64 // master RNG seed
	Workers    int   // parallel trajectory workers (0 = runtime.NumCPU())

	IncludePopulations bool // collect per-state visitation counts
	IncludePathways    bool // collect per-transition occurrence counts
}

// Validate checks the run parameters.
func (c CascadeConfig) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations %d must be positive", c.Iterations)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d must be non-negative", c.Workers)
	}
	return nil
}

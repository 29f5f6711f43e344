package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunBundle holds a full simulation configuration, loadable from a YAML
// file. Nil pointer fields mean "not set in YAML" — they do not override CLI
// flag values. String fields use empty string for "not set".
type RunBundle struct {
	Species     string       `yaml:"species"`
	NMax        *int         `yaml:"n_max"`
	LMax        *int         `yaml:"l_max"`
	Temperature *float64     `yaml:"temperature"`
	Start       *StartConfig `yaml:"start"`

	Iterations *int     `yaml:"iterations"`
	Seed       *int64   `yaml:"seed"`
	Workers    *int     `yaml:"workers"`
	WindowMin  *float64 `yaml:"window_min"`
	WindowMax  *float64 `yaml:"window_max"`
	BinWidth   *float64 `yaml:"bin_width"`

	Populations *bool `yaml:"populations"`
	Pathways    *bool `yaml:"pathways"`
}

// StartConfig is the starting level in YAML form; j is a half-integer float
// (e.g. 2.5 for j=5/2).
type StartConfig struct {
	N int     `yaml:"n"`
	L int     `yaml:"l"`
	J float64 `yaml:"j"`
}

// State converts the YAML form to a validated State.
func (s StartConfig) State() (State, error) {
	return NewState(s.N, s.L, s.J)
}

// LoadRunBundle reads and parses a YAML run configuration file.
func LoadRunBundle(path string) (*RunBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var bundle RunBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing run config: %w", err)
	}
	return &bundle, nil
}

// Validate checks species names and parameter ranges in the bundle.
func (b *RunBundle) Validate() error {
	if b.Species != "" {
		if _, err := LookupSpecies(b.Species); err != nil {
			return err
		}
	}
	if b.NMax != nil && *b.NMax < 1 {
		return fmt.Errorf("n_max must be positive, got %d", *b.NMax)
	}
	if b.LMax != nil && *b.LMax < 1 {
		return fmt.Errorf("l_max must be at least 1, got %d", *b.LMax)
	}
	if b.Temperature != nil && *b.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative, got %f", *b.Temperature)
	}
	if b.Iterations != nil && *b.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", *b.Iterations)
	}
	if b.Workers != nil && *b.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *b.Workers)
	}
	if b.BinWidth != nil && *b.BinWidth <= 0 {
		return fmt.Errorf("bin_width must be positive, got %f", *b.BinWidth)
	}
	if b.WindowMin != nil && b.WindowMax != nil && *b.WindowMax <= *b.WindowMin {
		return fmt.Errorf("window (%f, %f) must have upper edge above lower", *b.WindowMin, *b.WindowMax)
	}
	if b.Start != nil {
		if _, err := b.Start.State(); err != nil {
			return fmt.Errorf("start state: %w", err)
		}
	}
	return nil
}

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LucyDownes/Fluorescence-Sim/sim"
	"github.com/LucyDownes/Fluorescence-Sim/sim/physics"
)

var (
	// CLI flags for the cascade simulation
	simSpecies string  // Atomic species (Cs or Rb87)
	simTemp    float64 // Temperature in Kelvin; must match the rate table
	simNMax    int     // Maximum n; must match the rate table
	simLutDir  string  // Directory holding the rate-table CSV
	simConfig  string  // Optional YAML run configuration

	startN int     // Starting state principal quantum number
	startL int     // Starting state orbital angular momentum
	startJ float64 // Starting state total angular momentum (half-integer)

	simIterations int     // Number of independent decay trajectories
	simSeed       int64   // Master RNG seed
	simWorkers    int     // Parallel trajectory workers (0 = all CPUs)
	simWindowMin  float64 // Spectral window lower edge (nm)
	simWindowMax  float64 // Spectral window upper edge (nm)
	simBinWidth   float64 // Histogram bin width (nm)

	simPopulations bool   // Also write per-state visitation counts
	simPathways    bool   // Also write per-transition occurrence counts
	simOut         string // Output path for the spectrum CSV
)

// simulateCmd runs the Monte Carlo cascade from a starting state against a
// previously built rate table and writes the binned spectrum.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the fluorescence cascade simulation",
	Run: func(cmd *cobra.Command, args []string) {
		if simConfig != "" {
			bundle, err := sim.LoadRunBundle(simConfig)
			if err != nil {
				logrus.Fatalf("Loading run config: %v", err)
			}
			if err := bundle.Validate(); err != nil {
				logrus.Fatalf("Invalid run config: %v", err)
			}
			applyBundle(cmd, bundle)
		}

		species, err := sim.LookupSpecies(simSpecies)
		if err != nil {
			logrus.Fatalf("Configuring species: %v", err)
		}
		start, err := sim.NewState(startN, startL, startJ)
		if err != nil {
			logrus.Fatalf("Invalid starting state: %v", err)
		}
		provider, err := physics.NewQuantumDefect(simSpecies)
		if err != nil {
			logrus.Fatalf("Configuring provider: %v", err)
		}

		table, rates, err := sim.LoadRateTable(simLutDir, simNMax, simTemp, simSpecies)
		if err != nil {
			logrus.Fatalf("Loading rate table (run `fluorsim build` first?): %v", err)
		}
		simulator, err := sim.NewCascadeSimulator(provider, species, table, rates)
		if err != nil {
			logrus.Fatalf("Initializing simulator: %v", err)
		}

		spectrum := sim.SpectrumConfig{
			MinWavelength: simWindowMin,
			MaxWavelength: simWindowMax,
			BinWidth:      simBinWidth,
		}
		cascade := sim.CascadeConfig{
			Iterations:         simIterations,
			Seed:               simSeed,
			Workers:            simWorkers,
			IncludePopulations: simPopulations,
			IncludePathways:    simPathways,
		}

		logrus.Infof("Simulating %d cascades of %s from %v (window %.4g-%.4gnm)",
			simIterations, simSpecies, start, simWindowMin, simWindowMax)
		startTime := time.Now()
		result, err := simulator.Run(start, spectrum, cascade)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Recorded %d in-window photons over %d cascades in %v",
			result.Emissions, simIterations, time.Since(startTime).Round(time.Millisecond))
		if result.DeadEnds > 0 {
			logrus.Warnf("%d trajectories ended on a state with no allowed decay", result.DeadEnds)
		}

		if err := result.WriteSpectrum(simOut); err != nil {
			logrus.Fatalf("Writing spectrum: %v", err)
		}
		logrus.Infof("Spectrum written to %s", simOut)
		if simPopulations {
			path := derivedPath(simOut, "populations")
			if err := result.WritePopulations(path); err != nil {
				logrus.Fatalf("Writing populations: %v", err)
			}
			logrus.Infof("Populations written to %s", path)
		}
		if simPathways {
			path := derivedPath(simOut, "pathways")
			if err := result.WritePathways(path); err != nil {
				logrus.Fatalf("Writing pathways: %v", err)
			}
			logrus.Infof("Pathways written to %s", path)
		}
	},
}

// applyBundle copies YAML run-config values into the flag variables, except
// where the flag was set explicitly on the command line (flags win).
func applyBundle(cmd *cobra.Command, b *sim.RunBundle) {
	flags := cmd.Flags()
	if b.Species != "" && !flags.Changed("species") {
		simSpecies = b.Species
	}
	if b.NMax != nil && !flags.Changed("nmax") {
		simNMax = *b.NMax
	}
	if b.Temperature != nil && !flags.Changed("temp") {
		simTemp = *b.Temperature
	}
	if b.Start != nil && !flags.Changed("n") && !flags.Changed("l") && !flags.Changed("j") {
		startN, startL, startJ = b.Start.N, b.Start.L, b.Start.J
	}
	if b.Iterations != nil && !flags.Changed("iters") {
		simIterations = *b.Iterations
	}
	if b.Seed != nil && !flags.Changed("seed") {
		simSeed = *b.Seed
	}
	if b.Workers != nil && !flags.Changed("workers") {
		simWorkers = *b.Workers
	}
	if b.WindowMin != nil && !flags.Changed("window-min") {
		simWindowMin = *b.WindowMin
	}
	if b.WindowMax != nil && !flags.Changed("window-max") {
		simWindowMax = *b.WindowMax
	}
	if b.BinWidth != nil && !flags.Changed("bin-width") {
		simBinWidth = *b.BinWidth
	}
	if b.Populations != nil && !flags.Changed("populations") {
		simPopulations = *b.Populations
	}
	if b.Pathways != nil && !flags.Changed("pathways") {
		simPathways = *b.Pathways
	}
}

// derivedPath turns "spectrum.csv" into "spectrum_<suffix>.csv".
func derivedPath(out, suffix string) string {
	base := strings.TrimSuffix(out, ".csv")
	return fmt.Sprintf("%s_%s.csv", base, suffix)
}

func init() {
	simulateCmd.Flags().StringVar(&simSpecies, "species", "Cs", "Atomic species (Cs, Rb87)")
	simulateCmd.Flags().Float64Var(&simTemp, "temp", 350, "Temperature in Kelvin (must match the rate table)")
	simulateCmd.Flags().IntVar(&simNMax, "nmax", 80, "Maximum n (must match the rate table)")
	simulateCmd.Flags().StringVar(&simLutDir, "lut-dir", ".", "Directory holding the rate-table CSV")
	simulateCmd.Flags().StringVar(&simConfig, "config", "", "YAML run configuration (flags override)")

	simulateCmd.Flags().IntVar(&startN, "n", 32, "Starting state n")
	simulateCmd.Flags().IntVar(&startL, "l", 0, "Starting state l")
	simulateCmd.Flags().Float64Var(&startJ, "j", 0.5, "Starting state j (half-integer, e.g. 1.5)")

	simulateCmd.Flags().IntVar(&simIterations, "iters", 50000, "Number of decay trajectories")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 42, "Master RNG seed")
	simulateCmd.Flags().IntVar(&simWorkers, "workers", 0, "Parallel trajectory workers (0 = all CPUs)")
	simulateCmd.Flags().Float64Var(&simWindowMin, "window-min", 400, "Spectral window lower edge (nm)")
	simulateCmd.Flags().Float64Var(&simWindowMax, "window-max", 750, "Spectral window upper edge (nm)")
	simulateCmd.Flags().Float64Var(&simBinWidth, "bin-width", 0.5, "Histogram bin width (nm)")

	simulateCmd.Flags().BoolVar(&simPopulations, "populations", false, "Also write per-state visitation counts")
	simulateCmd.Flags().BoolVar(&simPathways, "pathways", false, "Also write per-transition occurrence counts")
	simulateCmd.Flags().StringVar(&simOut, "out", "spectrum.csv", "Output path for the spectrum CSV")

	rootCmd.AddCommand(simulateCmd)
}

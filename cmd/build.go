package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LucyDownes/Fluorescence-Sim/sim"
	"github.com/LucyDownes/Fluorescence-Sim/sim/physics"
)

var (
	// CLI flags for the rate-table builder
	buildSpecies string  // Atomic species (Cs or Rb87)
	buildNMax    int     // Maximum principal quantum number n
	buildLMax    int     // Maximum orbital angular momentum l (exclusive)
	buildTemp    float64 // Temperature in Kelvin (blackbody contribution)
	buildOutDir  string  // Directory for the rate-table CSV
	buildSave    bool    // Whether to write the rate table to disk
)

// buildCmd constructs the state table and transition-rate matrix for a
// species and saves it as a look-up table for later simulate runs.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and save a transition-rate look-up table",
	Run: func(cmd *cobra.Command, args []string) {
		provider, err := physics.NewQuantumDefect(buildSpecies)
		if err != nil {
			logrus.Fatalf("Configuring provider: %v", err)
		}

		logrus.Infof("Building rate table for %s (nMax=%d, lMax=%d, T=%.0fK)",
			buildSpecies, buildNMax, buildLMax, buildTemp)
		startTime := time.Now()

		table, rates, err := sim.BuildRateMatrix(provider, buildSpecies, buildNMax, buildLMax, buildTemp)
		if err != nil {
			logrus.Fatalf("Building rate matrix: %v", err)
		}
		logrus.Infof("Computed %d states in %v", table.Len(), time.Since(startTime).Round(time.Millisecond))

		if !buildSave {
			return
		}
		path, err := sim.SaveRateTable(buildOutDir, buildNMax, buildTemp, buildSpecies, table, rates)
		if err != nil {
			logrus.Fatalf("Saving rate table: %v", err)
		}
		logrus.Infof("Rate table written to %s", path)
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildSpecies, "species", "Cs", "Atomic species (Cs, Rb87)")
	buildCmd.Flags().IntVar(&buildNMax, "nmax", 80, "Maximum principal quantum number n")
	buildCmd.Flags().IntVar(&buildLMax, "lmax", 5, "Generate states with l below this value")
	buildCmd.Flags().Float64Var(&buildTemp, "temp", 350, "Temperature in Kelvin")
	buildCmd.Flags().StringVar(&buildOutDir, "out-dir", ".", "Directory for the rate-table CSV")
	buildCmd.Flags().BoolVar(&buildSave, "save", true, "Write the rate table to disk")

	rootCmd.AddCommand(buildCmd)
}

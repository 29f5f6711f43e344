package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// RateTableFilename returns the canonical file name for a rate look-up table.
// The name is fully determined by (nMax, temperature, species), so builder
// output and simulator input are addressable without a separate catalog.
func RateTableFilename(nMax int, temperature float64, species string) string {
	return fmt.Sprintf("Transition_Rates_nmax=%d_temp=%dK_%s.csv", nMax, int(temperature), species)
}

// SaveRateTable writes the state table and rate matrix to a CSV file in dir,
// one row per state: the first three columns are the (n, l, j) triple, the
// remainder the state's outgoing-rate row. Returns the written path.
func SaveRateTable(dir string, nMax int, temperature float64, species string, table *StateTable, rates *mat.Dense) (string, error) {
	rows, cols := rates.Dims()
	if rows != table.Len() || cols != table.Len() {
		return "", fmt.Errorf("rate matrix is %dx%d, want %dx%d", rows, cols, table.Len(), table.Len())
	}
	path := filepath.Join(dir, RateTableFilename(nMax, temperature, species))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating rate table: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logrus.Errorf("closing rate table %s: %v", path, closeErr)
		}
	}()

	w := csv.NewWriter(f)
	record := make([]string, 3+cols)
	for i := 0; i < rows; i++ {
		s := table.At(i)
		record[0] = strconv.Itoa(s.N)
		record[1] = strconv.Itoa(s.L)
		record[2] = strconv.FormatFloat(s.J(), 'g', -1, 64)
		for j := 0; j < cols; j++ {
			record[3+j] = strconv.FormatFloat(rates.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("writing rate table: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("writing rate table: %w", err)
	}
	logrus.Debugf("saved %d-state rate table to %s", rows, path)
	return path, nil
}

// LoadRateTable reads a rate look-up table previously written by
// SaveRateTable, splitting the first three columns into the state table and
// the remainder into the rate matrix. Missing or malformed files are
// recoverable input errors surfaced to the caller.
func LoadRateTable(dir string, nMax int, temperature float64, species string) (*StateTable, *mat.Dense, error) {
	path := filepath.Join(dir, RateTableFilename(nMax, temperature, species))
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening rate table: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing rate table %s: %w", path, err)
	}
	n := len(records)
	if n == 0 {
		return nil, nil, fmt.Errorf("rate table %s is empty", path)
	}
	states := make([]State, 0, n)
	rates := mat.NewDense(n, n, nil)
	for i, record := range records {
		if len(record) != 3+n {
			return nil, nil, fmt.Errorf("rate table %s: row %d has %d columns, want %d", path, i, len(record), 3+n)
		}
		s, err := parseStateRecord(record[:3])
		if err != nil {
			return nil, nil, fmt.Errorf("rate table %s: row %d: %w", path, i, err)
		}
		states = append(states, s)
		for j, field := range record[3:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("rate table %s: row %d col %d: %w", path, i, j+3, err)
			}
			rates.Set(i, j, v)
		}
	}
	table, err := NewStateTable(states)
	if err != nil {
		return nil, nil, fmt.Errorf("rate table %s: %w", path, err)
	}
	return table, rates, nil
}

// parseStateRecord converts the leading (n, l, j) columns of a row. The
// columns are floats on disk (numpy heritage) but n and l must be integral.
func parseStateRecord(fields []string) (State, error) {
	nums := make([]float64, 3)
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return State{}, fmt.Errorf("state column %d: %w", i, err)
		}
		nums[i] = v
	}
	n, l := int(nums[0]), int(nums[1])
	if float64(n) != nums[0] || float64(l) != nums[1] {
		return State{}, fmt.Errorf("non-integral n=%v or l=%v", nums[0], nums[1])
	}
	return NewState(n, l, nums[2])
}

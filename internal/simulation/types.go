package simulation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHorizon     = errors.New("months_ahead must be >= 1")
	ErrInvalidSimulations = errors.New("num_simulations must be >= 1")
	ErrEmptyHistory       = errors.New("historical series is empty")
)

// Estimator selects how the volatility of the historical series is measured.
type Estimator int

const (
	// Sample uses the n-1 denominator.
	Sample Estimator = iota
	// Population uses the n denominator.
	Population
)

func (e Estimator) String() string {
	switch e {
	case Population:
		return "population"
	default:
		return "sample"
	}
}

// ParseEstimator maps a settings label to an Estimator. Empty means Sample.
func ParseEstimator(label string) (Estimator, error) {
	switch label {
	case "", "sample":
		return Sample, nil
	case "population":
		return Population, nil
	default:
		return Sample, fmt.Errorf("unknown volatility estimator %q", label)
	}
}

// SimulationConfig parameterises a single projection.
type SimulationConfig struct {
	MonthsAhead        int       `json:"months_ahead"`
	NumSimulations     int       `json:"num_simulations"`
	ScenarioMultiplier float64   `json:"scenario_multiplier"`
	Volatility         Estimator `json:"-"`
}

// Validate rejects configurations that cannot produce a projection.
func (c SimulationConfig) Validate() error {
	if c.MonthsAhead < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidHorizon, c.MonthsAhead)
	}
	if c.NumSimulations < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidSimulations, c.NumSimulations)
	}
	return nil
}

// ProjectionRow holds the reduced statistics for one future month.
type ProjectionRow struct {
	Month  int     `json:"month"`
	P10    float64 `json:"p10"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

// ProjectionSummary is one row per future month, ordered by Month.
type ProjectionSummary []ProjectionRow

// Last returns the final-horizon row. ok is false for an empty summary.
func (p ProjectionSummary) Last() (ProjectionRow, bool) {
	if len(p) == 0 {
		return ProjectionRow{}, false
	}
	return p[len(p)-1], true
}

// PathMatrix holds one simulated trajectory per row, one column per month.
type PathMatrix [][]float64

// Column copies the values of every path at month index col (0-based).
func (m PathMatrix) Column(col int) []float64 {
	out := make([]float64, len(m))
	for i, row := range m {
		out[i] = row[col]
	}
	return out
}

package scenario

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"ops-mcs/internal/simulation"
)

var (
	ErrNoScenarios       = errors.New("at least one scenario is required")
	ErrNoHorizons        = errors.New("at least one time horizon is required")
	ErrInvalidMultiplier = errors.New("scenario multiplier must be a finite number")
	// ErrWorkloadTooLarge is returned when a run would simulate more cells
	// (paths x months x projections) than Settings.MaxCells allows.
	ErrWorkloadTooLarge = errors.New("simulation workload exceeds the configured limit")
)

// MinObservations is the shortest series that gets projected. Shorter series
// are skipped, not reported as errors.
const MinObservations = 3

// Settings is the explicit configuration of a full orchestrator run.
type Settings struct {
	// Variations maps scenario name to the trend multiplier.
	Variations     map[string]float64
	NumSimulations int
	// Horizons are candidate projection lengths in months; the longest is used
	// for every scenario so results line up.
	Horizons   []int
	Seed       uint64
	Volatility simulation.Estimator
	// Workers caps concurrent group simulations. Zero or less means one per CPU.
	Workers int
	// MaxCells caps NumSimulations x MonthsAhead x projections for one run.
	// Zero means unlimited.
	MaxCells int
}

// Validate fails fast on configurations that cannot be simulated.
func (s Settings) Validate() error {
	if len(s.Variations) == 0 {
		return ErrNoScenarios
	}
	if len(s.Horizons) == 0 {
		return ErrNoHorizons
	}
	for _, h := range s.Horizons {
		if h < 1 {
			return fmt.Errorf("%w (horizon %d)", simulation.ErrInvalidHorizon, h)
		}
	}
	if s.NumSimulations < 1 {
		return fmt.Errorf("%w (got %d)", simulation.ErrInvalidSimulations, s.NumSimulations)
	}
	for name, m := range s.Variations {
		if name == "" {
			return fmt.Errorf("scenario name must not be empty")
		}
		if !finite(m) {
			return fmt.Errorf("%w: scenario %q has multiplier %v", ErrInvalidMultiplier, name, m)
		}
	}
	return s.checkWorkload(1)
}

// checkWorkload fails when projections runs of the configured size exceed MaxCells.
func (s Settings) checkWorkload(projections int) error {
	if s.MaxCells <= 0 || projections == 0 {
		return nil
	}
	cells := float64(s.NumSimulations) * float64(s.MonthsAhead()) * float64(projections)
	if cells > float64(s.MaxCells) {
		return fmt.Errorf("%w: %d simulations x %d months x %d projections > %d",
			ErrWorkloadTooLarge, s.NumSimulations, s.MonthsAhead(), projections, s.MaxCells)
	}
	return nil
}

// MonthsAhead returns the shared projection horizon.
func (s Settings) MonthsAhead() int {
	if len(s.Horizons) == 0 {
		return 0
	}
	return slices.Max(s.Horizons)
}

// ScenarioNames returns the configured scenario names sorted ascending.
func (s Settings) ScenarioNames() []string {
	names := make([]string, 0, len(s.Variations))
	for name := range s.Variations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

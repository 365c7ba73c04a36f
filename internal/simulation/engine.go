package simulation

import (
	"math/rand/v2"
	"slices"
)

// pcgStream is the fixed PCG increment paired with every seed.
const pcgStream uint64 = 0xda3e39cb94b95bdb

// Engine performs the Monte-Carlo projection of a single historical series.
// Every call reseeds from the engine's seed, so identical inputs always give
// identical paths. The seed is fixed at construction, so an Engine is safe
// for concurrent use.
type Engine struct {
	seed uint64
}

// NewEngine creates an engine with the given reproducibility seed.
func NewEngine(seed uint64) *Engine {
	return &Engine{seed: seed}
}

// Seed returns the reproducibility seed.
func (e *Engine) Seed() uint64 {
	return e.seed
}

// Simulate generates NumSimulations random-walk paths of MonthsAhead steps,
// each starting from the last historical value with drift
// trend*ScenarioMultiplier and Gaussian shocks of sd volatility*NoiseScale.
func (e *Engine) Simulate(history []float64, cfg SimulationConfig) (PathMatrix, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	rng := rand.New(rand.NewPCG(e.seed, pcgStream))
	sigma := EstimateVolatility(history, cfg.Volatility) * NoiseScale
	drift := EstimateTrend(history) * cfg.ScenarioMultiplier
	start := history[len(history)-1]

	paths := make(PathMatrix, cfg.NumSimulations)
	for sim := range paths {
		row := make([]float64, cfg.MonthsAhead)
		current := start
		for month := range row {
			noise := rng.NormFloat64() * sigma
			current = current + drift + noise
			row[month] = current
		}
		paths[sim] = row
	}
	return paths, nil
}

// Project simulates paths for history and reduces them into a summary.
func (e *Engine) Project(history []float64, cfg SimulationConfig) (ProjectionSummary, error) {
	paths, err := e.Simulate(history, cfg)
	if err != nil {
		return nil, err
	}
	return Summarize(paths), nil
}

// Summarize reduces a path matrix column-wise into percentile bands, mean and
// population standard deviation, all rounded to two decimals.
func Summarize(paths PathMatrix) ProjectionSummary {
	if len(paths) == 0 {
		return nil
	}
	months := len(paths[0])
	summary := make(ProjectionSummary, months)
	for m := 0; m < months; m++ {
		col := paths.Column(m)
		slices.Sort(col)
		summary[m] = ProjectionRow{
			Month:  m + 1,
			P10:    Round2(percentileSorted(col, 10)),
			P25:    Round2(percentileSorted(col, 25)),
			Median: Round2(percentileSorted(col, 50)),
			P75:    Round2(percentileSorted(col, 75)),
			P90:    Round2(percentileSorted(col, 90)),
			Mean:   Round2(Mean(col)),
			Std:    Round2(StdDev(col, Population)),
		}
	}
	return summary
}

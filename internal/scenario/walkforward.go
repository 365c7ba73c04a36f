package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ops-mcs/internal/dataset"
	"ops-mcs/internal/simulation"
	"ops-mcs/internal/stats"
)

// ErrInvalidHoldout is returned when the walk-forward holdout is not positive.
var ErrInvalidHoldout = errors.New("holdout must be at least 1 month")

// WalkForwardScenario labels the sub-seed of backtest projections; they always
// run with a trend multiplier of 1.0.
const WalkForwardScenario = "walk_forward"

// ValidationCheckpoint compares one held-out observation with its projection.
type ValidationCheckpoint struct {
	Facility      string  `json:"facility"`
	Metric        string  `json:"metric"`
	Date          string  `json:"date"`
	Month         int     `json:"month"`
	ActualValue   float64 `json:"actual_value"`
	PredictedP10  float64 `json:"predicted_p10"`
	PredictedP50  float64 `json:"predicted_p50"`
	PredictedP90  float64 `json:"predicted_p90"`
	IsWithinCone  bool    `json:"is_within_cone"`  // P10 <= actual <= P90
	DriftDetected bool    `json:"drift_detected"` // the training history shows a shift
}

// WalkForwardResult holds the aggregate results of the backtest.
type WalkForwardResult struct {
	Holdout           int                    `json:"holdout_months"`
	AccuracyScore     float64                `json:"accuracy_score"` // share of checkpoints within cone
	Checkpoints       []ValidationCheckpoint `json:"checkpoints,omitempty"`
	Skipped           []SkippedSeries        `json:"skipped,omitempty"`
	DriftWarning      string                 `json:"drift_warning,omitempty"`
	ValidationMessage string                 `json:"validation_message"`
}

// WalkForward hides the last holdout months of every series, projects them
// from the remaining history and reports how often the actual value fell in
// the P10-P90 band. Series with fewer than MinObservations+holdout points
// are skipped.
func WalkForward(ctx context.Context, store *dataset.Store, s Settings, holdout int) (WalkForwardResult, error) {
	if holdout < 1 {
		return WalkForwardResult{}, ErrInvalidHoldout
	}
	cfg := simulation.SimulationConfig{
		MonthsAhead:        holdout,
		NumSimulations:     s.NumSimulations,
		ScenarioMultiplier: 1.0,
		Volatility:         s.Volatility,
	}
	if err := cfg.Validate(); err != nil {
		return WalkForwardResult{}, err
	}

	result := WalkForwardResult{Holdout: holdout}
	hits, drifting := 0, 0

	for _, k := range store.Keys() {
		if err := ctx.Err(); err != nil {
			return WalkForwardResult{}, err
		}

		recs := store.Records(k.Facility, k.Metric)
		if len(recs) < MinObservations+holdout {
			result.Skipped = append(result.Skipped, SkippedSeries{Facility: k.Facility, Metric: k.Metric, Observations: len(recs)})
			continue
		}

		cut := len(recs) - holdout
		history := make([]float64, cut)
		keys := make([]string, cut)
		for i, r := range recs[:cut] {
			history[i] = r.Value
			keys[i] = r.Date.Format(time.DateOnly)
		}

		drift := false
		for _, sig := range stats.CalculateXmRWithKeys(history, keys).Signals {
			if sig.Type == "shift" {
				drift = true
				break
			}
		}
		if drift {
			drifting++
		}

		engine := simulation.NewEngine(simulation.DeriveSeed(s.Seed, k.Facility, k.Metric, WalkForwardScenario))
		summary, err := engine.Project(history, cfg)
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("project %s: %w", k, err)
		}

		for i, row := range summary {
			actual := recs[cut+i]
			cp := ValidationCheckpoint{
				Facility:      k.Facility,
				Metric:        k.Metric,
				Date:          actual.Date.Format(time.DateOnly),
				Month:         row.Month,
				ActualValue:   actual.Value,
				PredictedP10:  row.P10,
				PredictedP50:  row.Median,
				PredictedP90:  row.P90,
				DriftDetected: drift,
			}
			if actual.Value >= row.P10 && actual.Value <= row.P90 {
				cp.IsWithinCone = true
				hits++
			}
			result.Checkpoints = append(result.Checkpoints, cp)
		}
	}

	total := len(result.Checkpoints)
	if total > 0 {
		result.AccuracyScore = simulation.Round2(float64(hits) / float64(total))
		result.ValidationMessage = fmt.Sprintf("Walk-Forward Analysis: %d/%d (%.0f%%) of held-out observations fell within the projected P10-P90 band.", hits, total, float64(hits)/float64(total)*100)
	} else {
		result.ValidationMessage = "Insufficient history to hold out observations for backtesting."
	}
	if result.AccuracyScore < 0.7 && total > 3 {
		result.ValidationMessage += " Warning: Low projection reliability detected."
	}
	if drifting > 0 {
		result.DriftWarning = fmt.Sprintf("%d series show a process shift before the holdout; their checkpoints are flagged.", drifting)
	}
	return result, nil
}

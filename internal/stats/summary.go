// Package stats is the descriptive statistics pipeline run over the raw
// metric table alongside the projections: per-series summaries,
// month-over-month trends, z-score anomalies, cross-metric correlations and
// process behaviour limits.
package stats

import (
	"math"
	"slices"

	"ops-mcs/internal/dataset"
	"ops-mcs/internal/simulation"
)

// SeriesSummary describes one (facility, metric, unit) group.
type SeriesSummary struct {
	Facility string  `json:"facility"`
	Metric   string  `json:"metric"`
	Unit     string  `json:"unit"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Count    int     `json:"count"`
}

type groupKey struct {
	facility, metric, unit string
}

// Summarize computes mean, sample standard deviation, min, max and count per
// (facility, metric, unit), in first-appearance order.
func Summarize(records []dataset.Record) []SeriesSummary {
	groups := make(map[groupKey][]float64)
	var order []groupKey
	for _, r := range records {
		k := groupKey{r.Facility, r.Metric, r.Unit}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r.Value)
	}

	out := make([]SeriesSummary, 0, len(order))
	for _, k := range order {
		values := groups[k]
		out = append(out, SeriesSummary{
			Facility: k.facility,
			Metric:   k.metric,
			Unit:     k.unit,
			Mean:     simulation.Round2(simulation.Mean(values)),
			Std:      simulation.Round2(simulation.StdDev(values, simulation.Sample)),
			Min:      simulation.Round2(slices.Min(values)),
			Max:      simulation.Round2(slices.Max(values)),
			Count:    len(values),
		})
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

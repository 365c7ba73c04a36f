package scenario

import (
	"slices"

	"ops-mcs/internal/simulation"
)

// Key identifies one projection.
type Key struct {
	Facility string
	Metric   string
	Scenario string
}

// Results is the read-only outcome of a run: one ProjectionSummary per
// (facility, metric, scenario). Iteration order is facility and metric in
// input order, then scenario name ascending.
type Results struct {
	RunID       string
	Seed        uint64
	MonthsAhead int

	entries   map[Key]simulation.ProjectionSummary
	order     []Key
	skipped   []SkippedSeries
	scenarios []string
}

// SkippedSeries records a series left out for having too few observations.
type SkippedSeries struct {
	Facility     string `json:"facility"`
	Metric       string `json:"metric"`
	Observations int    `json:"observations"`
}

// Lookup returns the projection for a (facility, metric, scenario).
func (r *Results) Lookup(facility, metric, scenario string) (simulation.ProjectionSummary, bool) {
	p, ok := r.entries[Key{Facility: facility, Metric: metric, Scenario: scenario}]
	return p, ok
}

// ForMetric returns every scenario's projection for one (facility, metric).
func (r *Results) ForMetric(facility, metric string) map[string]simulation.ProjectionSummary {
	out := make(map[string]simulation.ProjectionSummary)
	for _, k := range r.order {
		if k.Facility == facility && k.Metric == metric {
			out[k.Scenario] = r.entries[k]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Keys returns every projection key in iteration order.
func (r *Results) Keys() []Key {
	return slices.Clone(r.order)
}

// Facilities lists facilities with at least one projection.
func (r *Results) Facilities() []string {
	var out []string
	for _, k := range r.order {
		if !slices.Contains(out, k.Facility) {
			out = append(out, k.Facility)
		}
	}
	return out
}

// Metrics lists the projected metrics of a facility.
func (r *Results) Metrics(facility string) []string {
	var out []string
	for _, k := range r.order {
		if k.Facility == facility && !slices.Contains(out, k.Metric) {
			out = append(out, k.Metric)
		}
	}
	return out
}

// Scenarios lists the scenario names of the run, sorted ascending.
func (r *Results) Scenarios() []string {
	return slices.Clone(r.scenarios)
}

// Skipped lists series excluded for having fewer than MinObservations points.
func (r *Results) Skipped() []SkippedSeries {
	return slices.Clone(r.skipped)
}

// Len returns the number of projections.
func (r *Results) Len() int {
	return len(r.order)
}

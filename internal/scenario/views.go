package scenario

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"

	"ops-mcs/internal/simulation"

	"github.com/shopspring/decimal"
)

// FlatRow is one (facility, metric, scenario, month) line of the long-format view.
type FlatRow struct {
	Facility string  `json:"facility"`
	Metric   string  `json:"metric"`
	Scenario string  `json:"scenario"`
	Month    int     `json:"month"`
	P10      float64 `json:"p10"`
	Median   float64 `json:"median"`
	P90      float64 `json:"p90"`
	Mean     float64 `json:"mean"`
}

// EndpointRow captures the final-horizon statistics of one projection.
type EndpointRow struct {
	Facility         string  `json:"facility"`
	Metric           string  `json:"metric"`
	Scenario         string  `json:"scenario"`
	ProjectedMedian  float64 `json:"projected_median"`
	ProjectedP10     float64 `json:"projected_p10"`
	ProjectedP90     float64 `json:"projected_p90"`
	UncertaintyRange float64 `json:"uncertainty_range"`
	ProjectionMonths int     `json:"projection_months"`
}

// ScenarioRollup averages the endpoint view per scenario.
type ScenarioRollup struct {
	Scenario             string  `json:"scenario"`
	Projections          int     `json:"projections"`
	MeanProjectedMedian  float64 `json:"mean_projected_median"`
	MeanUncertaintyRange float64 `json:"mean_uncertainty_range"`
}

// Flat expands every projection into one row per month.
func (r *Results) Flat() []FlatRow {
	var rows []FlatRow
	for _, k := range r.order {
		for _, p := range r.entries[k] {
			rows = append(rows, FlatRow{
				Facility: k.Facility,
				Metric:   k.Metric,
				Scenario: k.Scenario,
				Month:    p.Month,
				P10:      p.P10,
				Median:   p.Median,
				P90:      p.P90,
				Mean:     p.Mean,
			})
		}
	}
	return rows
}

// EndpointSummary keeps only the last month of every projection.
func (r *Results) EndpointSummary() []EndpointRow {
	var rows []EndpointRow
	for _, k := range r.order {
		summary := r.entries[k]
		last, ok := summary.Last()
		if !ok {
			continue
		}
		rows = append(rows, EndpointRow{
			Facility:         k.Facility,
			Metric:           k.Metric,
			Scenario:         k.Scenario,
			ProjectedMedian:  last.Median,
			ProjectedP10:     last.P10,
			ProjectedP90:     last.P90,
			UncertaintyRange: simulation.Round2(last.P90 - last.P10),
			ProjectionMonths: len(summary),
		})
	}
	return rows
}

// SummarizeByScenario averages projected median and uncertainty range per
// scenario, sorted by scenario name. Sums are exact so the mean of rounded
// endpoints carries no accumulation error before the final rounding.
func SummarizeByScenario(rows []EndpointRow) []ScenarioRollup {
	type sums struct {
		n                int64
		median, interval decimal.Decimal
	}
	acc := make(map[string]*sums)
	for _, row := range rows {
		if !finite(row.ProjectedMedian) || !finite(row.UncertaintyRange) {
			continue
		}
		a, ok := acc[row.Scenario]
		if !ok {
			a = &sums{}
			acc[row.Scenario] = a
		}
		a.n++
		a.median = a.median.Add(decimal.NewFromFloat(row.ProjectedMedian))
		a.interval = a.interval.Add(decimal.NewFromFloat(row.UncertaintyRange))
	}

	out := make([]ScenarioRollup, 0, len(acc))
	for name, a := range acc {
		n := decimal.NewFromInt(a.n)
		out = append(out, ScenarioRollup{
			Scenario:             name,
			Projections:          int(a.n),
			MeanProjectedMedian:  simulation.Round2(a.median.Div(n).InexactFloat64()),
			MeanUncertaintyRange: simulation.Round2(a.interval.Div(n).InexactFloat64()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scenario < out[j].Scenario })
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteFlatCSV serialises the flat view.
func WriteFlatCSV(w io.Writer, rows []FlatRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"facility", "metric", "scenario", "month", "p10", "median", "p90", "mean"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Facility, r.Metric, r.Scenario, strconv.Itoa(r.Month),
			formatFloat(r.P10), formatFloat(r.Median), formatFloat(r.P90), formatFloat(r.Mean),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEndpointCSV serialises the endpoint view.
func WriteEndpointCSV(w io.Writer, rows []EndpointRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"facility", "metric", "scenario", "projected_median", "projected_p10", "projected_p90", "uncertainty_range", "projection_months"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Facility, r.Metric, r.Scenario,
			formatFloat(r.ProjectedMedian), formatFloat(r.ProjectedP10), formatFloat(r.ProjectedP90),
			formatFloat(r.UncertaintyRange), strconv.Itoa(r.ProjectionMonths),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

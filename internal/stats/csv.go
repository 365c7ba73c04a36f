package stats

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"ops-mcs/internal/dataset"
)

// StrongThreshold is the |r| a correlation must exceed to count as strong.
const StrongThreshold = 0.5

// StrongCorrelations keeps the pairs with |r| above threshold.
func StrongCorrelations(corr []Correlation, threshold float64) []Correlation {
	var out []Correlation
	for _, c := range corr {
		if math.Abs(c.Correlation) > threshold {
			out = append(out, c)
		}
	}
	return out
}

// WriteSummaryCSV serialises per-series summaries.
func WriteSummaryCSV(w io.Writer, rows []SeriesSummary) error {
	return writeTable(w, []string{"facility", "metric", "unit", "mean", "std", "min", "max", "count"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Facility, r.Metric, r.Unit, num(r.Mean), num(r.Std), num(r.Min), num(r.Max), strconv.Itoa(r.Count)}
	})
}

// WriteTrendsCSV serialises month-over-month changes.
func WriteTrendsCSV(w io.Writer, rows []MonthlyTrend) error {
	return writeTable(w, []string{"date", "facility", "metric", "unit", "value", "prev_value", "mom_change", "mom_abs_change"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Date.Format(dataset.DateLayout), r.Facility, r.Metric, r.Unit, num(r.Value), num(r.PrevValue), num(r.MoMChange), num(r.MoMAbsolute)}
	})
}

// WriteAnomaliesCSV serialises flagged points.
func WriteAnomaliesCSV(w io.Writer, rows []Anomaly) error {
	return writeTable(w, []string{"date", "facility", "metric", "value", "unit", "z_score"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Date.Format(dataset.DateLayout), r.Facility, r.Metric, num(r.Value), r.Unit, num(r.ZScore)}
	})
}

// WriteCorrelationsCSV serialises metric pairs.
func WriteCorrelationsCSV(w io.Writer, rows []Correlation) error {
	return writeTable(w, []string{"facility", "metric_1", "metric_2", "correlation"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Facility, r.Metric1, r.Metric2, num(r.Correlation)}
	})
}

func writeTable(w io.Writer, header []string, n int, row func(int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range n {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

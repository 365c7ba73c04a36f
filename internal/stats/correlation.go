package stats

import (
	"math"
	"sort"

	"ops-mcs/internal/dataset"
)

// Correlation is the Pearson correlation of two metrics at one facility.
type Correlation struct {
	Facility    string  `json:"facility"`
	Metric1     string  `json:"metric_1"`
	Metric2     string  `json:"metric_2"`
	Correlation float64 `json:"correlation"`
}

// CalculateCorrelation returns the Pearson correlation of two equally long
// series, or 0 when it is undefined.
func CalculateCorrelation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	n := float64(len(a))
	sumA, sumB := 0.0, 0.0
	sumA2, sumB2 := 0.0, 0.0
	sumAB := 0.0

	for i := range a {
		sumA += a[i]
		sumB += b[i]
		sumA2 += a[i] * a[i]
		sumB2 += b[i] * b[i]
		sumAB += a[i] * b[i]
	}

	num := (n * sumAB) - (sumA * sumB)
	den := math.Sqrt((n*sumA2 - sumA*sumA) * (n*sumB2 - sumB*sumB))

	if den == 0 || math.IsNaN(den) {
		return 0
	}

	return num / den
}

// Correlations computes pairwise metric correlations per facility, aligning
// observations by date and using only dates both metrics share. Metric pairs
// are ordered alphabetically; pairs with fewer than three shared dates or no
// variance are omitted.
func Correlations(store *dataset.Store) []Correlation {
	var out []Correlation
	for _, facility := range store.Facilities() {
		metrics := store.Metrics(facility)
		sort.Strings(metrics)

		byDate := make(map[string]map[int64]float64, len(metrics))
		for _, m := range metrics {
			points := make(map[int64]float64)
			for _, r := range store.Records(facility, m) {
				points[r.Date.Unix()] = r.Value
			}
			byDate[m] = points
		}

		for i := 0; i < len(metrics); i++ {
			for j := i + 1; j < len(metrics); j++ {
				a, b := aligned(byDate[metrics[i]], byDate[metrics[j]])
				if len(a) < 3 {
					continue
				}
				if spread(a) == 0 || spread(b) == 0 {
					continue
				}
				out = append(out, Correlation{
					Facility:    facility,
					Metric1:     metrics[i],
					Metric2:     metrics[j],
					Correlation: round3(CalculateCorrelation(a, b)),
				})
			}
		}
	}
	return out
}

func aligned(x, y map[int64]float64) ([]float64, []float64) {
	dates := make([]int64, 0, len(x))
	for d := range x {
		if _, ok := y[d]; ok {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	a := make([]float64, len(dates))
	b := make([]float64, len(dates))
	for i, d := range dates {
		a[i], b[i] = x[d], y[d]
	}
	return a, b
}

func spread(values []float64) float64 {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return hi - lo
}

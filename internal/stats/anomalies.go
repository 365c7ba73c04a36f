package stats

import (
	"math"
	"time"

	"ops-mcs/internal/dataset"
	"ops-mcs/internal/simulation"
)

// DefaultZThreshold is the |z| above which a point is flagged.
const DefaultZThreshold = 2.0

// Anomaly is a point far from its series mean.
type Anomaly struct {
	Date     time.Time `json:"date"`
	Facility string    `json:"facility"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
	Unit     string    `json:"unit,omitempty"`
	ZScore   float64   `json:"z_score"`
}

// DetectAnomalies flags points whose z-score against their (facility, metric)
// mean and sample standard deviation exceeds threshold in magnitude. Series
// with zero spread never produce anomalies.
func DetectAnomalies(store *dataset.Store, threshold float64) []Anomaly {
	var out []Anomaly
	for _, k := range store.Keys() {
		recs := store.Records(k.Facility, k.Metric)
		values := store.Series(k.Facility, k.Metric)
		mean := simulation.Mean(values)
		std := simulation.StdDev(values, simulation.Sample)
		if std == 0 {
			continue
		}
		for _, r := range recs {
			z := simulation.Round2((r.Value - mean) / std)
			if math.Abs(z) > threshold {
				out = append(out, Anomaly{
					Date:     r.Date,
					Facility: r.Facility,
					Metric:   r.Metric,
					Value:    r.Value,
					Unit:     r.Unit,
					ZScore:   z,
				})
			}
		}
	}
	return out
}

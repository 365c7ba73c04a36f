package stats

import (
	"math"
	"time"

	"ops-mcs/internal/dataset"
	"ops-mcs/internal/simulation"
)

// XmRResult represents the output of a Process Behavior Chart analysis.
type XmRResult struct {
	Average     float64   `json:"average"`
	AmR         float64   `json:"average_moving_range"`
	UNPL        float64   `json:"upper_natural_process_limit"`
	LNPL        float64   `json:"lower_natural_process_limit"`
	Values      []float64 `json:"values"`
	MovingRange []float64 `json:"moving_ranges"`
	Signals     []Signal  `json:"signals"`
}

// Signal represents a detected special cause variation.
type Signal struct {
	Index       int    `json:"index"`
	Key         string `json:"key"`
	Type        string `json:"type"` // "outlier", "shift"
	Description string `json:"description"`
}

// SeriesBehavior binds an XmR chart to the series it was computed for.
type SeriesBehavior struct {
	Facility string    `json:"facility"`
	Metric   string    `json:"metric"`
	Status   string    `json:"status"` // "stable", "volatile", "shifting"
	XmR      XmRResult `json:"xmr"`
}

// CalculateXmR performs the math for an Individuals and Moving Range chart.
func CalculateXmR(values []float64) XmRResult {
	return CalculateXmRWithKeys(values, nil)
}

// CalculateXmRWithKeys computes an XmR chart and labels each signal with the
// key at the same index.
func CalculateXmRWithKeys(values []float64, keys []string) XmRResult {
	if len(values) == 0 {
		return XmRResult{}
	}

	result := XmRResult{
		Values:  values,
		Average: simulation.Mean(values),
	}

	if len(values) > 1 {
		mrSum := 0.0
		result.MovingRange = make([]float64, len(values)-1)
		for i := 0; i < len(values)-1; i++ {
			mr := math.Abs(values[i+1] - values[i])
			result.MovingRange[i] = mr
			mrSum += mr
		}
		result.AmR = mrSum / float64(len(values)-1)
	}

	// Wheeler's scaling constant for Individuals is 2.66.
	result.UNPL = result.Average + (2.66 * result.AmR)
	result.LNPL = result.Average - (2.66 * result.AmR)

	result.Signals = detectSignals(values, result.Average, result.UNPL, result.LNPL, keys)
	return result
}

// ProcessBehavior charts every series in the store.
func ProcessBehavior(store *dataset.Store) []SeriesBehavior {
	var out []SeriesBehavior
	for _, k := range store.Keys() {
		recs := store.Records(k.Facility, k.Metric)
		keys := make([]string, len(recs))
		for i, r := range recs {
			keys[i] = r.Date.Format(time.DateOnly)
		}
		xmr := CalculateXmRWithKeys(store.Series(k.Facility, k.Metric), keys)

		status := "stable"
		for _, s := range xmr.Signals {
			if s.Type == "shift" {
				status = "shifting"
				break
			}
			status = "volatile"
		}
		out = append(out, SeriesBehavior{Facility: k.Facility, Metric: k.Metric, Status: status, XmR: xmr})
	}
	return out
}

func detectSignals(values []float64, avg, unpl, lnpl float64, keys []string) []Signal {
	var signals []Signal
	keyAt := func(i int) string {
		if i < len(keys) {
			return keys[i]
		}
		return ""
	}

	for i, v := range values {
		if v > unpl {
			signals = append(signals, Signal{
				Index:       i,
				Key:         keyAt(i),
				Type:        "outlier",
				Description: "Point above Upper Natural Process Limit (UNPL)",
			})
		} else if v < lnpl {
			signals = append(signals, Signal{
				Index:       i,
				Key:         keyAt(i),
				Type:        "outlier",
				Description: "Point below Lower Natural Process Limit (LNPL)",
			})
		}
	}

	if len(values) >= 8 {
		side := 0
		count := 0
		for i, v := range values {
			currentSide := 0
			if v > avg {
				currentSide = 1
			} else if v < avg {
				currentSide = -1
			}

			if currentSide == side && currentSide != 0 {
				count++
			} else {
				side = currentSide
				count = 1
			}

			if count == 8 {
				signals = append(signals, Signal{
					Index:       i,
					Key:         keyAt(i),
					Type:        "shift",
					Description: "8 consecutive points on one side of the average (level shift)",
				})
			}
		}
	}

	return signals
}

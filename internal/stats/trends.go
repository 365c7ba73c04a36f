package stats

import (
	"time"

	"ops-mcs/internal/dataset"
	"ops-mcs/internal/simulation"
)

// MonthlyTrend is one observation compared with the previous one in its series.
type MonthlyTrend struct {
	Date        time.Time `json:"date"`
	Facility    string    `json:"facility"`
	Metric      string    `json:"metric"`
	Unit        string    `json:"unit,omitempty"`
	Value       float64   `json:"value"`
	PrevValue   float64   `json:"prev_value"`
	MoMChange   float64   `json:"mom_change"`
	MoMAbsolute float64   `json:"mom_abs_change"`
}

// MonthlyTrends computes month-over-month percentage and absolute change per
// series. The first point of a series and points following a zero value have
// no defined percentage change and are omitted.
func MonthlyTrends(store *dataset.Store) []MonthlyTrend {
	var out []MonthlyTrend
	for _, k := range store.Keys() {
		recs := store.Records(k.Facility, k.Metric)
		for i := 1; i < len(recs); i++ {
			prev, cur := recs[i-1], recs[i]
			if prev.Value == 0 {
				continue
			}
			out = append(out, MonthlyTrend{
				Date:        cur.Date,
				Facility:    cur.Facility,
				Metric:      cur.Metric,
				Unit:        cur.Unit,
				Value:       cur.Value,
				PrevValue:   prev.Value,
				MoMChange:   simulation.Round2((cur.Value - prev.Value) / prev.Value * 100),
				MoMAbsolute: simulation.Round2(cur.Value - prev.Value),
			})
		}
	}
	return out
}

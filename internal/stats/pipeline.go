package stats

import "ops-mcs/internal/dataset"

// Report bundles every output of the statistics pipeline.
type Report struct {
	Summary      []SeriesSummary  `json:"summary"`
	Trends       []MonthlyTrend   `json:"trends"`
	Anomalies    []Anomaly        `json:"anomalies"`
	Correlations []Correlation    `json:"correlations"`
	Behavior     []SeriesBehavior `json:"behavior"`
}

// Run executes the full statistics pipeline over store.
func Run(store *dataset.Store) Report {
	return Report{
		Summary:      Summarize(store.All()),
		Trends:       MonthlyTrends(store),
		Anomalies:    DetectAnomalies(store, DefaultZThreshold),
		Correlations: Correlations(store),
		Behavior:     ProcessBehavior(store),
	}
}

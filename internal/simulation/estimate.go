package simulation

// TrendWindow is the number of trailing observations used for the trend.
const TrendWindow = 6

// NoiseScale scales the historical volatility into the per-step shock size.
const NoiseScale = 0.3

// EstimateTrend returns the endpoint slope over the last TrendWindow
// observations. A window of one point (or none) has zero trend.
func EstimateTrend(history []float64) float64 {
	window := history
	if len(window) > TrendWindow {
		window = window[len(window)-TrendWindow:]
	}
	if len(window) <= 1 {
		return 0
	}
	return (window[len(window)-1] - window[0]) / float64(max(len(window)-1, 1))
}

// EstimateVolatility measures the spread of the full history.
func EstimateVolatility(history []float64, est Estimator) float64 {
	return StdDev(history, est)
}

package visuals

import (
	"strings"
	"testing"

	"ops-mcs/internal/scenario"
	"ops-mcs/internal/simulation"
	"ops-mcs/internal/stats"

	"github.com/stretchr/testify/assert"
)

func TestFanChart(t *testing.T) {
	summary := simulation.ProjectionSummary{
		{Month: 1, P10: 90, Median: 100, P90: 110},
		{Month: 2, P10: 85, Median: 102, P90: 120},
	}

	out := FanChart("Plant Alpha", "production_output", "baseline", summary)

	assert.True(t, strings.HasPrefix(out, "```mermaid\nxychart-beta\n"))
	assert.Contains(t, out, `title "Plant Alpha production_output (baseline)"`)
	assert.Contains(t, out, `x-axis "Month" [1, 2]`)
	assert.Contains(t, out, "line [90.00, 85.00]")
	assert.Contains(t, out, "line [100.00, 102.00]")
	assert.Contains(t, out, "line [110.00, 120.00]")
	// span 35, pad 3.5
	assert.Contains(t, out, `y-axis "production_output" 81 --> 124`)

	assert.Empty(t, FanChart("Plant Alpha", "production_output", "baseline", nil))
}

func TestEndpointChart(t *testing.T) {
	rows := []scenario.EndpointRow{
		{Facility: "Plant Alpha", Metric: "oee", Scenario: "baseline", ProjectedMedian: 80},
		{Facility: "Plant Alpha", Metric: "oee", Scenario: "worst_case", ProjectedMedian: 70},
		{Facility: "Plant Beta", Metric: "oee", Scenario: "baseline", ProjectedMedian: 50},
	}

	out := EndpointChart("Plant Alpha", "oee", rows)
	assert.Contains(t, out, `x-axis ["baseline", "worst_case"]`)
	assert.Contains(t, out, "bar [80.00, 70.00]")
	assert.Contains(t, out, `y-axis "Projected median" -8 --> 88`)

	assert.Empty(t, EndpointChart("Plant Omega", "oee", rows))
}

func TestXmRChart(t *testing.T) {
	b := stats.SeriesBehavior{
		Facility: "Plant Alpha",
		Metric:   "downtime_hours",
		Status:   "stable",
		XmR:      stats.CalculateXmR([]float64{10, 12, 11, 13}),
	}

	out := XmRChart(b)
	assert.Contains(t, out, `title "Process Behavior: Plant Alpha downtime_hours (stable)"`)
	assert.Contains(t, out, "line [10.00, 12.00, 11.00, 13.00]")
	assert.Equal(t, 4, strings.Count(out, "    line ["))

	assert.Empty(t, XmRChart(stats.SeriesBehavior{}))
}

func TestAxisRange_Flat(t *testing.T) {
	lo, hi := axisRange(50, 50)
	assert.Equal(t, 45, lo)
	assert.Equal(t, 55, hi)
}

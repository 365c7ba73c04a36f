package visuals

import (
	"fmt"
	"math"
	"strings"

	"ops-mcs/internal/scenario"
	"ops-mcs/internal/simulation"
	"ops-mcs/internal/stats"
)

// maxCategories caps the x-axis of bar charts; mermaid overlaps labels past this.
const maxCategories = 20

// FanChart creates a Mermaid xychart-beta of the p10, median and p90 paths of one projection.
func FanChart(facility, metric, scenarioName string, summary simulation.ProjectionSummary) string {
	if len(summary) == 0 {
		return ""
	}

	var labels, p10s, medians, p90s []string
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range summary {
		labels = append(labels, fmt.Sprintf("%d", row.Month))
		p10s = append(p10s, fmt.Sprintf("%.2f", row.P10))
		medians = append(medians, fmt.Sprintf("%.2f", row.Median))
		p90s = append(p90s, fmt.Sprintf("%.2f", row.P90))
		lo = math.Min(lo, row.P10)
		hi = math.Max(hi, row.P90)
	}
	yMin, yMax := axisRange(lo, hi)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s %s (%s)\"\n", facility, metric, scenarioName))
	sb.WriteString(fmt.Sprintf("    x-axis \"Month\" [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\" %d --> %d\n", metric, yMin, yMax))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p10s, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(medians, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p90s, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// EndpointChart creates a Mermaid bar chart of projected medians across scenarios
// for one facility and metric.
func EndpointChart(facility, metric string, rows []scenario.EndpointRow) string {
	var labels, values []string
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		if r.Facility != facility || r.Metric != metric {
			continue
		}
		if len(labels) == maxCategories {
			break
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", r.Scenario))
		values = append(values, fmt.Sprintf("%.2f", r.ProjectedMedian))
		lo = math.Min(lo, r.ProjectedMedian)
		hi = math.Max(hi, r.ProjectedMedian)
	}
	if len(labels) == 0 {
		return ""
	}
	yMin, yMax := axisRange(math.Min(lo, 0), hi)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s %s at horizon\"\n", facility, metric))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Projected median\" %d --> %d\n", yMin, yMax))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// XmRChart creates a Mermaid xychart-beta of a series with its natural process limits.
func XmRChart(b stats.SeriesBehavior) string {
	if len(b.XmR.Values) == 0 {
		return ""
	}

	var labels, values, averages, unpls, lnpls []string
	average := fmt.Sprintf("%.2f", b.XmR.Average)
	unpl := fmt.Sprintf("%.2f", b.XmR.UNPL)
	lnpl := fmt.Sprintf("%.2f", b.XmR.LNPL)

	lo, hi := b.XmR.LNPL, b.XmR.UNPL
	for i, v := range b.XmR.Values {
		labels = append(labels, fmt.Sprintf("%d", i+1))
		values = append(values, fmt.Sprintf("%.2f", v))
		averages = append(averages, average)
		unpls = append(unpls, unpl)
		lnpls = append(lnpls, lnpl)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	yMin, yMax := axisRange(lo, hi)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Process Behavior: %s %s (%s)\"\n", b.Facility, b.Metric, b.Status))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\" %d --> %d\n", b.Metric, yMin, yMax))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(averages, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(unpls, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(lnpls, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// axisRange pads [lo, hi] by 10% of the span so lines do not touch the frame.
func axisRange(lo, hi float64) (int, int) {
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(1, math.Abs(hi)*0.1)
	}
	return int(math.Floor(lo - pad)), int(math.Ceil(hi + pad))
}

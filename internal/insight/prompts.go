// Package insight builds the prompts handed to the text-generation
// collaborator. Each prompt carries its data as CSV context; the model that
// answers it is not part of this module.
package insight

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"ops-mcs/internal/scenario"
	"ops-mcs/internal/stats"
)

// Generator answers a prompt given a data context.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Prompt is an instruction plus the serialized data it refers to.
type Prompt struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
	Context     string `json:"context"`
}

// Text joins instruction and context into a single message.
func (p Prompt) Text() string {
	return p.Instruction + "\n\nDATA (CSV):\n" + p.Context
}

const scenarioAnalysisInstruction = `Analyze these scenario projections for operational metrics. For each facility:
1. Which metrics show the widest uncertainty bands (highest risk)?
2. Where is the gap between optimistic and pessimistic scenarios largest?
3. Which facility is most resilient under pessimistic conditions?
4. What contingency plans should be prepared for worst-case scenarios?
5. Where should management invest to narrow the uncertainty?
6. Rank the top 5 strategic priorities based on scenario outcomes.`

const comparePathsInstruction = `Analyze the scenario projection paths for %s at %s.
1. At what month do the scenarios begin to diverge significantly?
2. What is the expected value and range at 3, 6, and 12 months?
3. What early warning indicators should management watch?
4. What actions could shift outcomes from pessimistic toward baseline?`

const narrativeInstruction = `Write a 2-page executive briefing on these scenario projections. Structure it as:
1. SITUATION: Current state of operations across facilities
2. SCENARIOS: Key findings from optimistic through worst-case modeling
3. RISKS: Top 3 risks with likelihood and impact
4. OPPORTUNITIES: Where upside potential is greatest
5. RECOMMENDATIONS: 5 prioritized actions with expected ROI

Use confident, executive-level language. Be specific with numbers.`

// ScenarioAnalysis asks for a cross-facility risk reading of the endpoint view.
func ScenarioAnalysis(rows []scenario.EndpointRow) (Prompt, error) {
	var buf bytes.Buffer
	if err := scenario.WriteEndpointCSV(&buf, rows); err != nil {
		return Prompt{}, fmt.Errorf("serialize endpoint summary: %w", err)
	}
	return Prompt{Name: "scenario_analysis", Instruction: scenarioAnalysisInstruction, Context: buf.String()}, nil
}

// ComparePaths asks for a month-by-month reading of one metric's paths. Only
// the rows of that (facility, metric) are sent as context.
func ComparePaths(rows []scenario.FlatRow, facility, metric string) (Prompt, error) {
	var selected []scenario.FlatRow
	for _, r := range rows {
		if r.Facility == facility && r.Metric == metric {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 {
		return Prompt{}, fmt.Errorf("no projections for %s at %s", metric, facility)
	}

	var buf bytes.Buffer
	if err := scenario.WriteFlatCSV(&buf, selected); err != nil {
		return Prompt{}, fmt.Errorf("serialize scenario paths: %w", err)
	}
	return Prompt{
		Name:        "scenario_paths",
		Instruction: fmt.Sprintf(comparePathsInstruction, metric, facility),
		Context:     buf.String(),
	}, nil
}

// Narrative asks for a board-ready briefing of the endpoint view.
func Narrative(rows []scenario.EndpointRow) (Prompt, error) {
	var buf bytes.Buffer
	if err := scenario.WriteEndpointCSV(&buf, rows); err != nil {
		return Prompt{}, fmt.Errorf("serialize endpoint summary: %w", err)
	}
	return Prompt{Name: "scenario_narrative", Instruction: narrativeInstruction, Context: buf.String()}, nil
}

// TrendRows is how many of the most recent trend rows are sent as context.
const TrendRows = 200

const trendsInstruction = `Analyze these operational metric trends across facilities.
1. What are the most significant improvements over the period?
2. Which metrics are deteriorating and need attention?
3. Are there seasonal patterns visible?
4. Which facility shows the strongest overall trajectory?
5. What actions should be taken based on these trends?`

const anomaliesInstruction = `These data points were flagged as statistical anomalies (z-score > %.1f).
1. Which anomalies represent real operational issues vs normal variation?
2. Are there clusters of anomalies that suggest systemic problems?
3. Prioritize by business impact (high/medium/low)
4. Recommend investigation steps for the top 3 anomalies
5. What monitoring thresholds would catch these earlier?`

const correlationsInstruction = `Analyze these cross-metric correlations for operational insights.
1. Which correlations reveal likely causal relationships?
2. Which are spurious or coincidental?
3. What operational levers could management pull based on these?
4. Are there unexpected correlations that warrant investigation?
5. How do correlation patterns differ across facilities?`

const facilityComparisonInstruction = `Compare operational performance across these facilities.
1. Rank facilities by overall operational excellence
2. Which facility is best-in-class for each metric?
3. Where are the largest performance gaps between best and worst?
4. What specific practices should transfer from top to bottom performers?
5. Which facility has the most improvement potential?`

const riskInstruction = `Generate an operational risk assessment.
1. Top 5 operational risks ranked by likelihood and impact
2. Leading indicators that could predict deterioration
3. Risk mitigation strategies for each identified risk
4. Metrics that serve as early warning signals
5. Recommended monitoring thresholds and alert triggers`

const executiveInstruction = `Generate an executive summary of operational performance:
1. Overall health assessment (Red/Yellow/Green per facility)
2. Top 3 wins and top 3 concerns
3. Key metrics trending in the wrong direction
4. Recommended immediate actions (next 30 days)
5. Strategic recommendations (next quarter)`

// ErrNothingToAnalyze is returned when a statistics prompt has no rows to send.
var ErrNothingToAnalyze = errors.New("no rows to analyze")

// Trends asks for a reading of the most recent month-over-month changes.
func Trends(rows []stats.MonthlyTrend) (Prompt, error) {
	csv, err := trendsCSV(rows)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Name: "metric_trends", Instruction: trendsInstruction, Context: csv}, nil
}

// Anomalies asks which flagged points matter. An empty list yields
// ErrNothingToAnalyze.
func Anomalies(rows []stats.Anomaly) (Prompt, error) {
	if len(rows) == 0 {
		return Prompt{}, fmt.Errorf("anomalies: %w", ErrNothingToAnalyze)
	}
	csv, err := anomaliesCSV(rows)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		Name:        "metric_anomalies",
		Instruction: fmt.Sprintf(anomaliesInstruction, stats.DefaultZThreshold),
		Context:     csv,
	}, nil
}

// Correlations asks for an operational reading of the strong metric pairs.
// Pairs with |r| at or below stats.StrongThreshold are dropped; when none
// remain the result is ErrNothingToAnalyze.
func Correlations(rows []stats.Correlation) (Prompt, error) {
	strong := stats.StrongCorrelations(rows, stats.StrongThreshold)
	if len(strong) == 0 {
		return Prompt{}, fmt.Errorf("strong correlations: %w", ErrNothingToAnalyze)
	}
	var buf bytes.Buffer
	if err := stats.WriteCorrelationsCSV(&buf, strong); err != nil {
		return Prompt{}, fmt.Errorf("serialize correlations: %w", err)
	}
	return Prompt{Name: "metric_correlations", Instruction: correlationsInstruction, Context: buf.String()}, nil
}

// FacilityComparison asks for a ranking of facilities from the series summaries.
func FacilityComparison(rows []stats.SeriesSummary) (Prompt, error) {
	csv, err := summaryCSV(rows)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Name: "facility_comparison", Instruction: facilityComparisonInstruction, Context: csv}, nil
}

// RiskAssessment combines anomalies and recent trends into one context.
func RiskAssessment(anomalies []stats.Anomaly, trends []stats.MonthlyTrend) (Prompt, error) {
	a, err := anomaliesCSV(anomalies)
	if err != nil {
		return Prompt{}, err
	}
	t, err := trendsCSV(trends)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		Name:        "risk_assessment",
		Instruction: riskInstruction,
		Context:     "ANOMALIES:\n" + a + "\nTRENDS:\n" + t,
	}, nil
}

// ExecutiveSummary combines summaries, recent trends and anomalies.
func ExecutiveSummary(r stats.Report) (Prompt, error) {
	summary, err := summaryCSV(r.Summary)
	if err != nil {
		return Prompt{}, err
	}
	t, err := trendsCSV(r.Trends)
	if err != nil {
		return Prompt{}, err
	}
	a, err := anomaliesCSV(r.Anomalies)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		Name:        "executive_summary",
		Instruction: executiveInstruction,
		Context:     "SUMMARY STATISTICS:\n" + summary + "\nRECENT TRENDS:\n" + t + "\nANOMALIES DETECTED:\n" + a,
	}, nil
}

// StatisticsPrompts builds every statistics prompt that has data to send.
func StatisticsPrompts(r stats.Report) ([]Prompt, error) {
	builders := []func() (Prompt, error){
		func() (Prompt, error) { return Trends(r.Trends) },
		func() (Prompt, error) { return Anomalies(r.Anomalies) },
		func() (Prompt, error) { return Correlations(r.Correlations) },
		func() (Prompt, error) { return FacilityComparison(r.Summary) },
		func() (Prompt, error) { return RiskAssessment(r.Anomalies, r.Trends) },
		func() (Prompt, error) { return ExecutiveSummary(r) },
	}
	var out []Prompt
	for _, build := range builders {
		p, err := build()
		if errors.Is(err, ErrNothingToAnalyze) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func trendsCSV(rows []stats.MonthlyTrend) (string, error) {
	if len(rows) > TrendRows {
		rows = rows[len(rows)-TrendRows:]
	}
	var buf bytes.Buffer
	if err := stats.WriteTrendsCSV(&buf, rows); err != nil {
		return "", fmt.Errorf("serialize trends: %w", err)
	}
	return buf.String(), nil
}

func anomaliesCSV(rows []stats.Anomaly) (string, error) {
	var buf bytes.Buffer
	if err := stats.WriteAnomaliesCSV(&buf, rows); err != nil {
		return "", fmt.Errorf("serialize anomalies: %w", err)
	}
	return buf.String(), nil
}

func summaryCSV(rows []stats.SeriesSummary) (string, error) {
	var buf bytes.Buffer
	if err := stats.WriteSummaryCSV(&buf, rows); err != nil {
		return "", fmt.Errorf("serialize summary: %w", err)
	}
	return buf.String(), nil
}

// Answer runs every prompt through g and returns the responses keyed by prompt name.
func Answer(ctx context.Context, g Generator, prompts ...Prompt) (map[string]string, error) {
	out := make(map[string]string, len(prompts))
	for _, p := range prompts {
		text, err := g.Generate(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", p.Name, err)
		}
		out[p.Name] = text
	}
	return out, nil
}

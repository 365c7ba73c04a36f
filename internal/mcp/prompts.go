package mcp

import (
	"context"

	"ops-mcs/internal/insight"
	"ops-mcs/internal/stats"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "scenario_analysis",
		Description: "Risk and resilience analysis of the endpoint projections across facilities.",
	}, s.handleScenarioAnalysisPrompt)

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "scenario_paths",
		Description: "Month-by-month reading of the projection paths of one facility and metric.",
		Arguments: []*mcp.PromptArgument{
			{Name: "facility", Description: "facility name", Required: true},
			{Name: "metric", Description: "metric name", Required: true},
		},
	}, s.handleScenarioPathsPrompt)

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "scenario_narrative",
		Description: "Executive briefing built on the endpoint projections.",
	}, s.handleNarrativePrompt)

	statistics := []struct {
		name, description, title string
		build                    func(stats.Report) (insight.Prompt, error)
	}{
		{"metric_trends", "Reading of the most recent month-over-month metric changes.", "Metric trend analysis",
			func(r stats.Report) (insight.Prompt, error) { return insight.Trends(r.Trends) }},
		{"metric_anomalies", "Triage of the points flagged as z-score anomalies.", "Anomaly triage",
			func(r stats.Report) (insight.Prompt, error) { return insight.Anomalies(r.Anomalies) }},
		{"metric_correlations", "Operational reading of the strong cross-metric correlations.", "Correlation analysis",
			func(r stats.Report) (insight.Prompt, error) { return insight.Correlations(r.Correlations) }},
		{"facility_comparison", "Ranking of facilities from the per-series summaries.", "Facility comparison",
			func(r stats.Report) (insight.Prompt, error) { return insight.FacilityComparison(r.Summary) }},
		{"risk_assessment", "Operational risk assessment from anomalies and recent trends.", "Operational risk assessment",
			func(r stats.Report) (insight.Prompt, error) { return insight.RiskAssessment(r.Anomalies, r.Trends) }},
		{"executive_summary", "Executive summary of summaries, trends and anomalies.", "Executive performance summary",
			insight.ExecutiveSummary},
	}
	for _, p := range statistics {
		s.mcp.AddPrompt(&mcp.Prompt{Name: p.name, Description: p.description}, s.statisticsPrompt(p.build, p.title))
	}
}

// statisticsPrompt serves a prompt built from the statistics of the loaded history.
func (s *Server) statisticsPrompt(build func(stats.Report) (insight.Prompt, error), title string) mcp.PromptHandler {
	return func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		if s.store.Len() == 0 {
			return nil, ErrNoData
		}
		p, err := build(stats.Run(s.store))
		if err != nil {
			return nil, err
		}
		return promptResult(p, title), nil
	}
}

func (s *Server) handleScenarioAnalysisPrompt(ctx context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	res, err := s.results(ctx)
	if err != nil {
		return nil, err
	}
	p, err := insight.ScenarioAnalysis(res.EndpointSummary())
	if err != nil {
		return nil, err
	}
	return promptResult(p, "Scenario risk analysis"), nil
}

func (s *Server) handleScenarioPathsPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	res, err := s.results(ctx)
	if err != nil {
		return nil, err
	}
	args := req.Params.Arguments
	p, err := insight.ComparePaths(res.Flat(), args["facility"], args["metric"])
	if err != nil {
		return nil, err
	}
	return promptResult(p, "Scenario path comparison"), nil
}

func (s *Server) handleNarrativePrompt(ctx context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	res, err := s.results(ctx)
	if err != nil {
		return nil, err
	}
	p, err := insight.Narrative(res.EndpointSummary())
	if err != nil {
		return nil, err
	}
	return promptResult(p, "Executive scenario briefing"), nil
}

func promptResult(p insight.Prompt, description string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: p.Text()}},
		},
	}
}

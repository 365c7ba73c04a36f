package mcp

import (
	"context"
	"fmt"
	"maps"

	"ops-mcs/internal/config"
	"ops-mcs/internal/scenario"
	"ops-mcs/internal/simulation"
	"ops-mcs/internal/stats"
	"ops-mcs/internal/visuals"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// DefaultHoldout is the walk-forward holdout used when none is given.
const DefaultHoldout = 3

// Limits on caller-supplied run sizes. DefaultMaxCells applies when the
// settings file sets no max_simulation_cells.
const (
	MaxSimulations   = 100_000
	MaxHorizonMonths = 120
	DefaultMaxCells  = 50_000_000
)

// ListSeriesInput takes no arguments.
type ListSeriesInput struct{}

// SeriesInfo describes one loaded (facility, metric) series.
type SeriesInfo struct {
	Facility     string `json:"facility" jsonschema:"facility name"`
	Metric       string `json:"metric" jsonschema:"metric name"`
	Observations int    `json:"observations" jsonschema:"number of monthly observations"`
}

// ListSeriesResult is the output of list_series.
type ListSeriesResult struct {
	Records int          `json:"records" jsonschema:"total observations loaded"`
	Series  []SeriesInfo `json:"series,omitempty" jsonschema:"series in first-appearance order"`
}

// RunScenariosInput overrides the configured run settings. Omitted fields keep their configured value.
type RunScenariosInput struct {
	Scenarios      map[string]float64 `json:"scenarios,omitempty" jsonschema:"scenario name to trend multiplier, e.g. {\"baseline\": 1.0}"`
	NumSimulations int                `json:"num_simulations,omitempty" jsonschema:"number of simulated paths per projection"`
	Horizons       []int              `json:"horizons,omitempty" jsonschema:"reporting horizons in months; paths run to the largest"`
	Seed           *uint64            `json:"seed,omitempty" jsonschema:"base random seed"`
	Volatility     string             `json:"volatility,omitempty" jsonschema:"volatility estimator: sample or population"`
}

// RunScenariosResult is the output of run_scenarios.
type RunScenariosResult struct {
	RunID       string                    `json:"run_id" jsonschema:"identifier of this run"`
	Seed        uint64                    `json:"seed" jsonschema:"base seed used"`
	MonthsAhead int                       `json:"months_ahead" jsonschema:"projection length in months"`
	Projections int                       `json:"projections" jsonschema:"number of (facility, metric, scenario) projections"`
	Rollup      []scenario.ScenarioRollup `json:"rollup,omitempty" jsonschema:"endpoint averages per scenario"`
	Skipped     []scenario.SkippedSeries  `json:"skipped,omitempty" jsonschema:"series with too few observations to project"`
}

// ScenarioPathsInput selects the projection paths to return.
type ScenarioPathsInput struct {
	Facility string `json:"facility" jsonschema:"facility name"`
	Metric   string `json:"metric" jsonschema:"metric name"`
	Scenario string `json:"scenario,omitempty" jsonschema:"optional scenario name; all scenarios when omitted"`
}

// ScenarioPathsResult is the output of get_scenario_paths.
type ScenarioPathsResult struct {
	Rows   []scenario.FlatRow `json:"rows,omitempty" jsonschema:"monthly percentiles per scenario"`
	Charts []string           `json:"charts,omitempty" jsonschema:"mermaid fan charts, one per scenario"`
}

// EndpointSummaryInput filters the endpoint view.
type EndpointSummaryInput struct {
	Facility string `json:"facility,omitempty" jsonschema:"optional facility filter"`
	Metric   string `json:"metric,omitempty" jsonschema:"optional metric filter"`
}

// EndpointSummaryResult is the output of get_endpoint_summary.
type EndpointSummaryResult struct {
	Rows   []scenario.EndpointRow    `json:"rows,omitempty" jsonschema:"final-month statistics per projection"`
	Rollup []scenario.ScenarioRollup `json:"rollup,omitempty" jsonschema:"endpoint averages per scenario"`
	Chart  string                    `json:"chart,omitempty" jsonschema:"mermaid bar chart when both filters are set"`
}

// ValidateProjectionsInput configures the walk-forward backtest.
type ValidateProjectionsInput struct {
	HoldoutMonths int `json:"holdout_months,omitempty" jsonschema:"months hidden from each series and projected back (default 3)"`
}

// MetricStatsInput filters the statistics report.
type MetricStatsInput struct {
	Facility string `json:"facility,omitempty" jsonschema:"optional facility filter"`
	Metric   string `json:"metric,omitempty" jsonschema:"optional metric filter"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_series",
		Description: "List the loaded facilities and metrics with their observation counts.",
		InputSchema: inputSchema[ListSeriesInput](nil),
	}, s.handleListSeries)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "run_scenarios",
		Description: "Run Monte Carlo scenario projections for every facility and metric. " +
			"Series with fewer than 3 observations are skipped.",
		InputSchema: inputSchema[RunScenariosInput](func(schema *jsonschema.Schema) {
			minimum(schema, "num_simulations", 1)
			maximum(schema, "num_simulations", MaxSimulations)
			if p, ok := schema.Properties["horizons"]; ok && p.Items != nil {
				lo, hi := 1.0, float64(MaxHorizonMonths)
				p.Items.Minimum, p.Items.Maximum = &lo, &hi
			}
			schema.Properties["volatility"].Enum = []any{"sample", "population"}
		}),
	}, s.handleRunScenarios)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_scenario_paths",
		Description: "Return month-by-month p10/median/p90/mean paths of one facility and metric.",
		InputSchema: inputSchema[ScenarioPathsInput](nil),
	}, s.handleScenarioPaths)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_endpoint_summary",
		Description: "Return final-horizon median, p10, p90 and uncertainty range of each projection.",
		InputSchema: inputSchema[EndpointSummaryInput](nil),
	}, s.handleEndpointSummary)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "validate_projections",
		Description: "Walk-forward backtest: hide the last months of each series, project them from the rest " +
			"and report how often the actual value fell inside the P10-P90 band.",
		InputSchema: inputSchema[ValidateProjectionsInput](func(schema *jsonschema.Schema) {
			minimum(schema, "holdout_months", 1)
		}),
	}, s.handleValidateProjections)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_metric_stats",
		Description: "Descriptive statistics, month-over-month trends, anomalies, correlations and process behavior of the loaded history.",
		InputSchema: inputSchema[MetricStatsInput](nil),
	}, s.handleMetricStats)
}

// inputSchema infers the schema of T and lets the caller tighten it.
func inputSchema[T any](refine func(*jsonschema.Schema)) *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("infer input schema for %T: %v", *new(T), err))
	}
	if refine != nil {
		refine(schema)
	}
	return schema
}

func minimum(schema *jsonschema.Schema, property string, v float64) {
	if p, ok := schema.Properties[property]; ok {
		p.Minimum = &v
	}
}

func maximum(schema *jsonschema.Schema, property string, v float64) {
	if p, ok := schema.Properties[property]; ok {
		p.Maximum = &v
	}
}

func (s *Server) handleListSeries(_ context.Context, _ *mcp.CallToolRequest, _ ListSeriesInput) (*mcp.CallToolResult, ListSeriesResult, error) {
	out := ListSeriesResult{Records: s.store.Len()}
	for _, k := range s.store.Keys() {
		out.Series = append(out.Series, SeriesInfo{
			Facility:     k.Facility,
			Metric:       k.Metric,
			Observations: len(s.store.Records(k.Facility, k.Metric)),
		})
	}
	return nil, out, nil
}

func (s *Server) handleRunScenarios(ctx context.Context, _ *mcp.CallToolRequest, in RunScenariosInput) (*mcp.CallToolResult, RunScenariosResult, error) {
	settings, err := s.runSettings(in)
	if err != nil {
		return nil, RunScenariosResult{}, err
	}

	res, err := s.run(ctx, settings)
	if err != nil {
		return nil, RunScenariosResult{}, fmt.Errorf("run scenarios: %w", err)
	}
	log.Info().Str("run_id", res.RunID).Int("projections", res.Len()).Msg("Scenario run completed via MCP")

	return nil, RunScenariosResult{
		RunID:       res.RunID,
		Seed:        res.Seed,
		MonthsAhead: res.MonthsAhead,
		Projections: res.Len(),
		Rollup:      scenario.SummarizeByScenario(res.EndpointSummary()),
		Skipped:     res.Skipped(),
	}, nil
}

// runSettings overlays tool arguments on the configured scenario settings.
func (s *Server) runSettings(in RunScenariosInput) (scenario.Settings, error) {
	cfg := s.cfg.Settings.Scenarios
	cfg.Variation = maps.Clone(cfg.Variation)
	if len(in.Scenarios) > 0 {
		cfg.Variation = in.Scenarios
	}
	if in.NumSimulations > 0 {
		cfg.NumSimulations = in.NumSimulations
	}
	if len(in.Horizons) > 0 {
		cfg.TimeHorizons = in.Horizons
	}
	if in.Seed != nil {
		cfg.Seed = in.Seed
	}
	if in.Volatility != "" {
		cfg.Volatility = in.Volatility
	}
	return capped(cfg)
}

// capped converts scenario settings for a tool call, bounding the run size
// with DefaultMaxCells unless the settings file chose a limit.
func capped(cfg config.ScenarioSettings) (scenario.Settings, error) {
	if cfg.MaxCells == 0 {
		cfg.MaxCells = DefaultMaxCells
	}
	return cfg.Run()
}

func (s *Server) handleScenarioPaths(ctx context.Context, _ *mcp.CallToolRequest, in ScenarioPathsInput) (*mcp.CallToolResult, ScenarioPathsResult, error) {
	res, err := s.results(ctx)
	if err != nil {
		return nil, ScenarioPathsResult{}, err
	}

	paths := res.ForMetric(in.Facility, in.Metric)
	if len(paths) == 0 {
		return nil, ScenarioPathsResult{}, fmt.Errorf("no projections for %s at %s", in.Metric, in.Facility)
	}

	var out ScenarioPathsResult
	for _, name := range res.Scenarios() {
		summary, ok := paths[name]
		if !ok || (in.Scenario != "" && in.Scenario != name) {
			continue
		}
		for _, row := range summary {
			out.Rows = append(out.Rows, flatRow(in.Facility, in.Metric, name, row))
		}
		if s.cfg.EnableMermaidCharts {
			out.Charts = append(out.Charts, visuals.FanChart(in.Facility, in.Metric, name, summary))
		}
	}
	if len(out.Rows) == 0 {
		return nil, ScenarioPathsResult{}, fmt.Errorf("unknown scenario %q", in.Scenario)
	}
	return nil, out, nil
}

func flatRow(facility, metric, name string, row simulation.ProjectionRow) scenario.FlatRow {
	return scenario.FlatRow{
		Facility: facility,
		Metric:   metric,
		Scenario: name,
		Month:    row.Month,
		P10:      row.P10,
		Median:   row.Median,
		P90:      row.P90,
		Mean:     row.Mean,
	}
}

func (s *Server) handleEndpointSummary(ctx context.Context, _ *mcp.CallToolRequest, in EndpointSummaryInput) (*mcp.CallToolResult, EndpointSummaryResult, error) {
	res, err := s.results(ctx)
	if err != nil {
		return nil, EndpointSummaryResult{}, err
	}

	var out EndpointSummaryResult
	for _, row := range res.EndpointSummary() {
		if in.Facility != "" && row.Facility != in.Facility {
			continue
		}
		if in.Metric != "" && row.Metric != in.Metric {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	out.Rollup = scenario.SummarizeByScenario(out.Rows)
	if s.cfg.EnableMermaidCharts && in.Facility != "" && in.Metric != "" {
		out.Chart = visuals.EndpointChart(in.Facility, in.Metric, out.Rows)
	}
	return nil, out, nil
}

func (s *Server) handleValidateProjections(ctx context.Context, _ *mcp.CallToolRequest, in ValidateProjectionsInput) (*mcp.CallToolResult, scenario.WalkForwardResult, error) {
	if s.store.Len() == 0 {
		return nil, scenario.WalkForwardResult{}, ErrNoData
	}
	settings, err := capped(s.cfg.Settings.Scenarios)
	if err != nil {
		return nil, scenario.WalkForwardResult{}, err
	}
	holdout := in.HoldoutMonths
	if holdout == 0 {
		holdout = DefaultHoldout
	}
	res, err := scenario.WalkForward(ctx, s.store, settings, holdout)
	if err != nil {
		return nil, scenario.WalkForwardResult{}, err
	}
	log.Info().Int("holdout", holdout).Float64("accuracy", res.AccuracyScore).Msg("Walk-forward validation completed")
	return nil, res, nil
}

// handleMetricStats returns the report untyped: its time fields have no
// useful inferred output schema.
func (s *Server) handleMetricStats(_ context.Context, _ *mcp.CallToolRequest, in MetricStatsInput) (*mcp.CallToolResult, any, error) {
	store := s.subset(in.Facility, in.Metric)
	if store.Len() == 0 {
		return nil, nil, ErrNoData
	}
	return nil, stats.Run(store), nil
}

package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ops-mcs/internal/config"
	"ops-mcs/internal/dataset"
	"ops-mcs/internal/scenario"
	"ops-mcs/internal/stats"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureStore() *dataset.Store {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []dataset.Record
	add := func(facility, metric string, values ...float64) {
		for i, v := range values {
			records = append(records, dataset.Record{
				Date:     start.AddDate(0, i, 0),
				Facility: facility,
				Metric:   metric,
				Value:    v,
			})
		}
	}
	add("Plant Alpha", "production_output", 1000, 1020, 1015, 1040, 1055, 1050, 1070, 1090)
	add("Plant Alpha", "quality_rate", 96, 97)
	add("Plant Beta", "production_output", 800, 790, 805)
	return dataset.NewStoreFrom(records)
}

func newTestServer(store *dataset.Store) *Server {
	settings := config.DefaultSettings()
	settings.Scenarios.NumSimulations = 50
	cfg := &config.AppConfig{EnableMermaidCharts: true, Settings: settings}
	return NewServer(cfg, store, "test")
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := s.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func textOf(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decode(t *testing.T, res *mcp.CallToolResult, out any) {
	t.Helper()
	require.False(t, res.IsError, "tool error: %s", textOf(res))

	raw := []byte(textOf(res))
	if res.StructuredContent != nil {
		var err error
		raw, err = json.Marshal(res.StructuredContent)
		require.NoError(t, err)
	}
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestListTools(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_series", "run_scenarios", "get_scenario_paths", "get_endpoint_summary",
		"validate_projections", "get_metric_stats",
	}, names)
}

func TestListSeries(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	var out ListSeriesResult
	decode(t, call(t, cs, "list_series", map[string]any{}), &out)

	assert.Equal(t, 13, out.Records)
	require.Len(t, out.Series, 3)
	assert.Equal(t, SeriesInfo{Facility: "Plant Alpha", Metric: "quality_rate", Observations: 2}, out.Series[1])
}

func TestRunScenarios(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	var out RunScenariosResult
	decode(t, call(t, cs, "run_scenarios", map[string]any{
		"scenarios":       map[string]any{"baseline": 1.0, "worst_case": -0.5},
		"num_simulations": 40,
		"horizons":        []int{3},
	}), &out)

	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, uint64(42), out.Seed)
	assert.Equal(t, 3, out.MonthsAhead)
	assert.Equal(t, 4, out.Projections)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, scenario.SkippedSeries{Facility: "Plant Alpha", Metric: "quality_rate", Observations: 2}, out.Skipped[0])
	require.Len(t, out.Rollup, 2)
	assert.Equal(t, "baseline", out.Rollup[0].Scenario)

	// Later queries read the run just made.
	var paths ScenarioPathsResult
	decode(t, call(t, cs, "get_scenario_paths", map[string]any{
		"facility": "Plant Beta",
		"metric":   "production_output",
	}), &paths)
	assert.Len(t, paths.Rows, 6)
	assert.Len(t, paths.Charts, 2)
	assert.True(t, strings.HasPrefix(paths.Charts[0], "```mermaid"))
}

func TestRunScenarios_InvalidSettings(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "run_scenarios",
		Arguments: map[string]any{"volatility": "bogus"},
	})
	// Rejected either by schema validation or by the handler.
	assert.True(t, err != nil || res.IsError)
}

func TestRunScenarios_RejectsOversizedRuns(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "TooManySimulations", args: map[string]any{"num_simulations": MaxSimulations * 10}},
		{name: "HorizonTooLong", args: map[string]any{"horizons": []int{MaxHorizonMonths + 1}}},
		// Each bound alone is allowed; together they exceed DefaultMaxCells.
		{name: "TooManyCells", args: map[string]any{"num_simulations": MaxSimulations, "horizons": []int{MaxHorizonMonths}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "run_scenarios", Arguments: tt.args})
			assert.True(t, err != nil || res.IsError)
		})
	}
}

func TestRunSettings_AppliesDefaultCellLimit(t *testing.T) {
	s := newTestServer(fixtureStore())

	settings, err := s.runSettings(RunScenariosInput{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxCells, settings.MaxCells)

	s.cfg.Settings.Scenarios.MaxCells = 10
	_, err = s.runSettings(RunScenariosInput{})
	assert.ErrorIs(t, err, scenario.ErrWorkloadTooLarge)
}

func TestRunScenarios_EmptyStore(t *testing.T) {
	cs := connect(t, newTestServer(dataset.NewStore()))

	res := call(t, cs, "run_scenarios", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(res), ErrNoData.Error())
}

func TestScenarioPaths_SingleScenario(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	var out ScenarioPathsResult
	decode(t, call(t, cs, "get_scenario_paths", map[string]any{
		"facility": "Plant Alpha",
		"metric":   "production_output",
		"scenario": "pessimistic",
	}), &out)

	require.Len(t, out.Rows, 12)
	for i, row := range out.Rows {
		assert.Equal(t, "pessimistic", row.Scenario)
		assert.Equal(t, i+1, row.Month)
		assert.LessOrEqual(t, row.P10, row.Median)
		assert.LessOrEqual(t, row.Median, row.P90)
	}
	assert.Len(t, out.Charts, 1)
}

func TestScenarioPaths_Unknown(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	res := call(t, cs, "get_scenario_paths", map[string]any{"facility": "Plant Alpha", "metric": "quality_rate"})
	assert.True(t, res.IsError)

	res = call(t, cs, "get_scenario_paths", map[string]any{
		"facility": "Plant Alpha", "metric": "production_output", "scenario": "apocalypse",
	})
	assert.True(t, res.IsError)
}

func TestEndpointSummary(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	var all EndpointSummaryResult
	decode(t, call(t, cs, "get_endpoint_summary", map[string]any{}), &all)
	assert.Len(t, all.Rows, 8)
	assert.Empty(t, all.Chart)

	var one EndpointSummaryResult
	decode(t, call(t, cs, "get_endpoint_summary", map[string]any{
		"facility": "Plant Alpha",
		"metric":   "production_output",
	}), &one)
	require.Len(t, one.Rows, 4)
	for _, row := range one.Rows {
		assert.Equal(t, 12, row.ProjectionMonths)
		assert.InDelta(t, row.ProjectedP90-row.ProjectedP10, row.UncertaintyRange, 0.011)
	}
	assert.Len(t, one.Rollup, 4)
	assert.Contains(t, one.Chart, "bar [")
}

func TestMetricStats(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	var report stats.Report
	decode(t, call(t, cs, "get_metric_stats", map[string]any{"facility": "Plant Alpha"}), &report)
	require.Len(t, report.Summary, 2)
	assert.Equal(t, "Plant Alpha", report.Summary[0].Facility)
	assert.Len(t, report.Trends, 8)

	res := call(t, cs, "get_metric_stats", map[string]any{"facility": "Plant Omega"})
	assert.True(t, res.IsError)
}

func TestValidateProjections(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))

	var out scenario.WalkForwardResult
	decode(t, call(t, cs, "validate_projections", map[string]any{"holdout_months": 2}), &out)

	assert.Equal(t, 2, out.Holdout)
	// Only the 8-point series is long enough to hold out 2 months.
	assert.Len(t, out.Checkpoints, 2)
	assert.Len(t, out.Skipped, 2)
	assert.NotEmpty(t, out.ValidationMessage)
}

func TestPrompts(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))
	ctx := context.Background()

	list, err := cs.ListPrompts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Prompts, 9)

	res, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      "scenario_paths",
		Arguments: map[string]string{"facility": "Plant Beta", "metric": "production_output"},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "production_output at Plant Beta")
	assert.Contains(t, text.Text, "DATA (CSV):\nfacility,metric,scenario,month")

	res, err = cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: "scenario_narrative"})
	require.NoError(t, err)
	text, ok = res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "projected_median")
}

func TestStatisticsPrompts(t *testing.T) {
	cs := connect(t, newTestServer(fixtureStore()))
	ctx := context.Background()

	res, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: "facility_comparison"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "Rank facilities by overall operational excellence")
	assert.Contains(t, text.Text, "DATA (CSV):\nfacility,metric,unit,mean,std,min,max,count")
	assert.Contains(t, text.Text, "Plant Alpha,production_output,,1042.5,30,1000,1090,8")

	res, err = cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: "executive_summary"})
	require.NoError(t, err)
	text, ok = res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "RECENT TRENDS:\ndate,facility,metric")

	// No point in the fixture is more than two standard deviations out.
	_, err = cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: "metric_anomalies"})
	assert.Error(t, err)
}

func TestStatisticsPrompts_EmptyStore(t *testing.T) {
	cs := connect(t, newTestServer(dataset.NewStore()))

	_, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: "metric_trends"})
	assert.Error(t, err)
}

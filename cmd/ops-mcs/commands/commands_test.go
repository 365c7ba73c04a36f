package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ops-mcs/cmd/mockgen/engine"
	"ops-mcs/internal/config"
	"ops-mcs/internal/dataset"
	"ops-mcs/internal/scenario"
	"ops-mcs/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults(t *testing.T) (*scenario.Results, *dataset.Store) {
	t.Helper()
	records := engine.Generate(engine.GeneratorConfig{
		Months:     12,
		Facilities: []string{"Plant Alpha"},
		Seed:       42,
		Now:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	store := dataset.NewStoreFrom(records)

	settings := config.DefaultSettings()
	settings.Scenarios.NumSimulations = 30
	run, err := settings.Scenarios.Run()
	require.NoError(t, err)

	res, err := scenario.Run(context.Background(), store, run)
	require.NoError(t, err)
	return res, store
}

func TestWriteViews(t *testing.T) {
	res, _ := sampleResults(t)
	dir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, writeViews(dir, res.Flat(), res.EndpointSummary()))

	flat, err := os.ReadFile(filepath.Join(dir, FlatCSV))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(flat)), "\n")
	assert.Equal(t, "facility,metric,scenario,month,p10,median,p90,mean", lines[0])
	// 10 metrics x 4 scenarios x 12 months
	assert.Len(t, lines, 1+10*4*12)

	endpoint, err := os.ReadFile(filepath.Join(dir, EndpointCSV))
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(endpoint)), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "facility,metric,scenario,projected_median"))
	assert.Len(t, lines, 1+10*4)
}

func TestWriteViews_Errors(t *testing.T) {
	res, _ := sampleResults(t)

	t.Run("OutputIsFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		assert.Error(t, writeViews(path, res.Flat(), res.EndpointSummary()))
	})

	t.Run("EndpointPathIsDirectory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, EndpointCSV), 0755))
		err := writeViews(dir, res.Flat(), res.EndpointSummary())
		assert.Error(t, err)
		_, statErr := os.Stat(filepath.Join(dir, FlatCSV))
		assert.NoError(t, statErr, "flat view is written before the failure")
	})
}

func TestWriteFile_ReportsWriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "views.csv")
	boom := errors.New("disk full")

	err := writeFile(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), path)

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "a,b\n")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestWriteReport(t *testing.T) {
	res, store := sampleResults(t)
	reportScenario = "baseline"

	var buf bytes.Buffer
	writeReport(&buf, res, stats.ProcessBehavior(store), true)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Scenario Projection Report"))
	assert.Contains(t, out, "| baseline | 10 |")
	assert.Contains(t, out, "## Plant Alpha")
	assert.Contains(t, out, "### production_output")
	assert.Contains(t, out, `title "Plant Alpha production_output (baseline)"`)

	buf.Reset()
	writeReport(&buf, res, nil, false)
	assert.NotContains(t, buf.String(), "```mermaid")
}

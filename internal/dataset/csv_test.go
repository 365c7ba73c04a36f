package dataset

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_HeaderOrderAndMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"Value,Facility,Date,Metric,Unit,extra",
		"1000.5,Plant Alpha,2024-01-01,production_output,units,x",
		"not-a-number,Plant Alpha,2024-02-01,production_output,units,x",
		"1010,Plant Alpha,2024-13-45,production_output,units,x",
		"96.5,Plant Beta,2024-02-01T00:00:00Z,quality_rate,%,x",
		"5,,2024-03-01,quality_rate,%,x",
	}, "\n")

	records, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Plant Alpha", records[0].Facility)
	assert.Equal(t, "production_output", records[0].Metric)
	assert.Equal(t, 1000.5, records[0].Value)
	assert.Equal(t, "units", records[0].Unit)
	assert.Equal(t, month(1), records[0].Date)

	assert.Equal(t, "%", records[1].Unit)
	assert.Equal(t, month(2), records[1].Date.UTC())
}

func TestReadCSV_SkipsNonFiniteValues(t *testing.T) {
	input := strings.Join([]string{
		"date,facility,metric,value",
		"2024-01-01,Plant Alpha,oee,10",
		"2024-02-01,Plant Alpha,oee,NaN",
		"2024-03-01,Plant Alpha,oee,12",
		"2024-04-01,Plant Alpha,oee,+Inf",
		"2024-05-01,Plant Alpha,oee,-inf",
		"2024-06-01,Plant Alpha,oee,13",
	}, "\n")

	records, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.False(t, math.IsNaN(r.Value) || math.IsInf(r.Value, 0))
	}
	assert.Equal(t, []float64{10, 12, 13}, NewStoreFrom(records).Series("Plant Alpha", "oee"))
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("date,facility,value\n2024-01-01,A,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metric")
}

func TestReadCSV_UnitOptional(t *testing.T) {
	records, err := ReadCSV(strings.NewReader("date,facility,metric,value\n2024-01-01,A,m,1.5\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Unit)
}

func TestWriteCSV_ReadBack(t *testing.T) {
	in := []Record{
		{Date: month(1), Facility: "Plant Alpha", Metric: "cycle_time_hours", Value: 4.21, Unit: "hours"},
		{Date: month(2), Facility: "Plant Alpha", Metric: "cycle_time_hours", Value: 4.05, Unit: "hours"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "date,facility,metric,value,unit\n"))

	out, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSQLite_WriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	in := []Record{
		{Date: month(1), Facility: "Plant Gamma", Metric: "defect_rate_ppm", Value: 1180, Unit: "ppm"},
		{Date: month(2), Facility: "Plant Gamma", Metric: "defect_rate_ppm", Value: 1175.25, Unit: "ppm"},
	}
	ctx := context.Background()

	require.NoError(t, WriteSQLite(ctx, path, "", in))
	out, err := LoadSQLite(ctx, path, DefaultTable)
	require.NoError(t, err)
	assert.ElementsMatch(t, in, out)
}

func TestSQLite_SkipsInfiniteValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.db")
	in := []Record{
		{Date: month(1), Facility: "Plant Gamma", Metric: "oee", Value: 81},
		{Date: month(2), Facility: "Plant Gamma", Metric: "oee", Value: math.Inf(1)},
		{Date: month(3), Facility: "Plant Gamma", Metric: "oee", Value: 83},
	}
	ctx := context.Background()

	require.NoError(t, WriteSQLite(ctx, path, "", in))
	out, err := LoadSQLite(ctx, path, DefaultTable)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Record{in[0], in[2]}, out)
}

func TestSQLite_RejectsUnsafeTableName(t *testing.T) {
	_, err := LoadSQLite(context.Background(), filepath.Join(t.TempDir(), "x.db"), "metrics; DROP TABLE x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

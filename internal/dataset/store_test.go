package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(m int) time.Time {
	return time.Date(2024, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
}

func TestStore_SortsAndGroups(t *testing.T) {
	s := NewStoreFrom([]Record{
		{Date: month(3), Facility: "Plant Beta", Metric: "quality_rate", Value: 3},
		{Date: month(1), Facility: "Plant Alpha", Metric: "production_output", Value: 10},
		{Date: month(2), Facility: "Plant Beta", Metric: "quality_rate", Value: 2},
		{Date: month(1), Facility: "Plant Beta", Metric: "quality_rate", Value: 1},
		{Date: month(2), Facility: "Plant Alpha", Metric: "production_output", Value: 20},
		{Date: month(1), Facility: "Plant Alpha", Metric: "quality_rate", Value: 95},
	})

	assert.Equal(t, []string{"Plant Beta", "Plant Alpha"}, s.Facilities())
	assert.Equal(t, []string{"production_output", "quality_rate"}, s.Metrics("Plant Alpha"))
	assert.Equal(t, []float64{1, 2, 3}, s.Series("Plant Beta", "quality_rate"))
	assert.Equal(t, []float64{10, 20}, s.Series("Plant Alpha", "production_output"))
	assert.Empty(t, s.Series("Plant Gamma", "quality_rate"))
	assert.Equal(t, 6, s.Len())

	keys := s.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, Key{Facility: "Plant Beta", Metric: "quality_rate"}, keys[0])
	assert.Len(t, s.All(), 6)
}

func TestStore_DeduplicatesByDate(t *testing.T) {
	s := NewStore()
	added := s.Append([]Record{
		{Date: month(1), Facility: "A", Metric: "m", Value: 1},
		{Date: month(1), Facility: "A", Metric: "m", Value: 99},
	})
	assert.Equal(t, 1, added)

	added = s.Append([]Record{
		{Date: month(1), Facility: "A", Metric: "m", Value: 5},
		{Date: month(2), Facility: "A", Metric: "m", Value: 2},
	})
	assert.Equal(t, 1, added)
	assert.Equal(t, []float64{1, 2}, s.Series("A", "m"))
	assert.Equal(t, 2, s.Len())
}

func TestStore_RecordsAreCopies(t *testing.T) {
	s := NewStoreFrom([]Record{{Date: month(1), Facility: "A", Metric: "m", Value: 1}})
	recs := s.Records("A", "m")
	recs[0].Value = 42
	assert.Equal(t, []float64{1}, s.Series("A", "m"))
}

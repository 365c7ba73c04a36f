package dataset

import (
	"slices"
	"sync"
)

// Store provides thread-safe, chronological storage of records partitioned
// by (facility, metric). Facility and metric listings keep first-appearance
// order so downstream output is stable.
type Store struct {
	mu         sync.RWMutex
	series     map[Key][]Record
	facilities []string
	metrics    map[string][]string
	count      int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		series:  make(map[Key][]Record),
		metrics: make(map[string][]string),
	}
}

// NewStoreFrom creates a Store holding records.
func NewStoreFrom(records []Record) *Store {
	s := NewStore()
	s.Append(records)
	return s
}

// Append adds records, dropping any whose (facility, metric, date) is already
// present, and keeps each series sorted by date. It returns how many were added.
func (s *Store) Append(records []Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[Key]bool)
	added := 0
	for _, r := range records {
		k := Key{Facility: r.Facility, Metric: r.Metric}
		existing, known := s.series[k]
		if !known {
			if _, ok := s.metrics[r.Facility]; !ok {
				s.facilities = append(s.facilities, r.Facility)
			}
			s.metrics[r.Facility] = append(s.metrics[r.Facility], r.Metric)
		}
		if slices.ContainsFunc(existing, func(e Record) bool { return e.Date.Equal(r.Date) }) {
			continue
		}
		s.series[k] = append(existing, r)
		touched[k] = true
		added++
	}

	for k := range touched {
		slices.SortStableFunc(s.series[k], func(a, b Record) int {
			return a.Date.Compare(b.Date)
		})
	}
	s.count += added
	return added
}

// Facilities lists facility names in first-appearance order.
func (s *Store) Facilities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.facilities)
}

// Metrics lists the metrics recorded for facility in first-appearance order.
func (s *Store) Metrics(facility string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.metrics[facility])
}

// Keys lists every (facility, metric) pair, grouped by facility.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []Key
	for _, f := range s.facilities {
		for _, m := range s.metrics[f] {
			keys = append(keys, Key{Facility: f, Metric: m})
		}
	}
	return keys
}

// Records returns a copy of the chronologically sorted records for a series.
func (s *Store) Records(facility, metric string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.series[Key{Facility: facility, Metric: metric}])
}

// Series returns the values of a series ordered by date ascending.
func (s *Store) Series(facility, metric string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.series[Key{Facility: facility, Metric: metric}]
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = r.Value
	}
	return out
}

// All returns every record, grouped by series in Keys order.
func (s *Store) All() []Record {
	var out []Record
	for _, k := range s.Keys() {
		out = append(out, s.Records(k.Facility, k.Metric)...)
	}
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

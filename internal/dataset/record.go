// Package dataset holds the tabular input contract of the projection engine:
// one observation per (date, facility, metric).
package dataset

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Record is a single observation of one metric at one facility.
type Record struct {
	Date     time.Time `json:"date"`
	Facility string    `json:"facility"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
	Unit     string    `json:"unit,omitempty"`
}

// Key identifies a (facility, metric) series.
type Key struct {
	Facility string
	Metric   string
}

func (k Key) String() string {
	return k.Facility + "/" + k.Metric
}

// DateLayout is the canonical on-disk date format.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01",
}

// ParseDate accepts the date formats found in exported metric tables.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

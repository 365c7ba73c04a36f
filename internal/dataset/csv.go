package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Columns is the header written by WriteCSV.
var Columns = []string{"date", "facility", "metric", "value", "unit"}

var requiredColumns = []string{"date", "facility", "metric", "value"}

// ReadCSV parses a metric table. Columns are matched by header name (case
// insensitive, any order); unknown columns are ignored and "unit" is optional.
// Malformed rows are skipped with a warning.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("CSV is missing required column %q", col)
		}
	}
	unitIdx, hasUnit := idx["unit"]

	var records []Record
	skipped := 0
	line := 1
	for {
		row, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			log.Warn().Err(err).Int("line", line).Msg("Skipping unreadable CSV row")
			continue
		}

		field := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		date, err := ParseDate(field("date"))
		if err != nil {
			skipped++
			log.Warn().Err(err).Int("line", line).Msg("Skipping CSV row with invalid date")
			continue
		}
		value, err := strconv.ParseFloat(field("value"), 64)
		if err != nil {
			skipped++
			log.Warn().Err(err).Int("line", line).Msg("Skipping CSV row with invalid value")
			continue
		}
		if !finite(value) {
			skipped++
			log.Warn().Int("line", line).Float64("value", value).Msg("Skipping CSV row with non-finite value")
			continue
		}
		rec := Record{
			Date:     date,
			Facility: field("facility"),
			Metric:   field("metric"),
			Value:    value,
		}
		if rec.Facility == "" || rec.Metric == "" {
			skipped++
			log.Warn().Int("line", line).Msg("Skipping CSV row without facility or metric")
			continue
		}
		if hasUnit && unitIdx < len(row) {
			rec.Unit = strings.TrimSpace(row[unitIdx])
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("loaded", len(records)).Msg("CSV contained malformed rows")
	}
	return records, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes records with the canonical header.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Date.Format(DateLayout),
			r.Facility,
			r.Metric,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			r.Unit,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

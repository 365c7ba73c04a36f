package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"ops-mcs/internal/dataset"
	"ops-mcs/internal/simulation"
)

// Output file names written by Save.
const (
	CSVFile    = "operational_metrics.csv"
	SQLiteFile = "operational_metrics.db"
)

type GeneratorConfig struct {
	Scenario   string // "mild", "chaos" or "drift"
	Months     int
	Facilities []string
	Seed       uint64
	Now        time.Time
}

// MetricProfile describes the baseline shape of one KPI.
type MetricProfile struct {
	Name  string
	Base  float64
	Std   float64
	Unit  string
	Trend float64 // per month
}

// FacilityProfile scales a facility's level and noise.
type FacilityProfile struct {
	Multiplier float64
	Volatility float64
}

var Metrics = []MetricProfile{
	{"production_output", 1000, 80, "units", 5.0},
	{"quality_rate", 96.5, 1.2, "%", 0.05},
	{"equipment_uptime", 92.0, 3.0, "%", 0.10},
	{"labor_efficiency", 85.0, 4.0, "%", 0.15},
	{"inventory_turnover", 8.5, 0.8, "turns", 0.02},
	{"order_fulfillment_rate", 94.0, 2.5, "%", 0.08},
	{"cycle_time_hours", 4.2, 0.5, "hours", -0.02},
	{"defect_rate_ppm", 1200, 150, "ppm", -8.0},
	{"energy_cost_per_unit", 2.30, 0.25, "$/unit", 0.01},
	{"on_time_delivery_pct", 91.0, 3.0, "%", 0.10},
}

var Facilities = map[string]FacilityProfile{
	"Plant Alpha": {Multiplier: 1.00, Volatility: 1.0},
	"Plant Beta":  {Multiplier: 0.92, Volatility: 1.2},  // underperformer, noisier
	"Plant Gamma": {Multiplier: 1.06, Volatility: 0.85}, // top performer, stable
}

var defaultFacility = FacilityProfile{Multiplier: 1.0, Volatility: 1.0}

// Generate produces one record per facility, metric and month. The last month
// is the month containing cfg.Now.
func Generate(cfg GeneratorConfig) []dataset.Record {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Months <= 0 {
		cfg.Months = 24
	}
	if len(cfg.Facilities) == 0 {
		cfg.Facilities = []string{"Plant Alpha", "Plant Beta", "Plant Gamma"}
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0))
	last := time.Date(cfg.Now.Year(), cfg.Now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := last.AddDate(0, -(cfg.Months - 1), 0)

	// Mild: ~3% anomalies of 3 sigma
	anomalyRate, anomalySize := 0.03, 3.0
	if cfg.Scenario == "chaos" {
		anomalyRate, anomalySize = 0.15, 5.0
	}

	records := make([]dataset.Record, 0, len(cfg.Facilities)*len(Metrics)*cfg.Months)
	for _, facility := range cfg.Facilities {
		profile, ok := Facilities[facility]
		if !ok {
			profile = defaultFacility
		}

		for _, m := range Metrics {
			for i := 0; i < cfg.Months; i++ {
				trend := m.Trend * float64(i)
				if cfg.Scenario == "drift" && i > cfg.Months/2 {
					// Trend doubles for the second half of the history
					trend += m.Trend * float64(i-cfg.Months/2)
				}
				seasonal := math.Sin(2*math.Pi*float64(i)/12) * m.Std * 0.3
				noise := rng.NormFloat64() * m.Std * profile.Volatility

				if rng.Float64() < anomalyRate {
					sign := 1.0
					if rng.IntN(2) == 0 {
						sign = -1.0
					}
					noise += sign * m.Std * anomalySize
				}

				value := (m.Base + trend + seasonal + noise) * profile.Multiplier
				switch m.Unit {
				case "%":
					value = math.Min(math.Max(value, 0), 100)
				case "$/unit":
				default:
					value = math.Max(value, 0)
				}

				records = append(records, dataset.Record{
					Date:     first.AddDate(0, i, 0),
					Facility: facility,
					Metric:   m.Name,
					Value:    simulation.Round2(value),
					Unit:     m.Unit,
				})
			}
		}
	}
	return records
}

// Save writes records to outDir as CSV, or as a SQLite database when format
// is "sqlite". It returns the written path.
func Save(ctx context.Context, outDir, format string, records []dataset.Record) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	switch format {
	case "", "csv":
		path := filepath.Join(outDir, CSVFile)
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := dataset.WriteCSV(f, records); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		return path, f.Close()
	case "sqlite":
		path := filepath.Join(outDir, SQLiteFile)
		if err := dataset.WriteSQLite(ctx, path, dataset.DefaultTable, records); err != nil {
			return "", err
		}
		return path, nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

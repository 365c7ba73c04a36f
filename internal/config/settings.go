package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"ops-mcs/internal/scenario"
	"ops-mcs/internal/simulation"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Settings mirrors settings.yaml.
type Settings struct {
	Data      DataSettings     `yaml:"data"`
	Scenarios ScenarioSettings `yaml:"scenarios"`
}

// DataSettings configures the synthetic data generator.
type DataSettings struct {
	Sample SampleSettings `yaml:"sample"`
}

// SampleSettings sizes the generated sample.
type SampleSettings struct {
	NumMonths     int      `yaml:"num_months"`
	FacilityNames []string `yaml:"facility_names"`
}

// ScenarioSettings configures the projection run.
type ScenarioSettings struct {
	Variation      map[string]float64 `yaml:"variation"`
	NumSimulations int                `yaml:"num_simulations"`
	TimeHorizons   []int              `yaml:"time_horizons"`
	Seed           *uint64            `yaml:"seed,omitempty"`
	Volatility     string             `yaml:"volatility,omitempty"`
	Workers        int                `yaml:"workers,omitempty"`
	MaxCells       int                `yaml:"max_simulation_cells,omitempty"`
}

// DefaultSettings returns the built-in configuration used when no settings
// file exists.
func DefaultSettings() Settings {
	seed := simulation.DefaultSeed
	return Settings{
		Data: DataSettings{
			Sample: SampleSettings{
				NumMonths:     24,
				FacilityNames: []string{"Plant Alpha", "Plant Beta", "Plant Gamma"},
			},
		},
		Scenarios: ScenarioSettings{
			Variation: map[string]float64{
				"optimistic":  1.5,
				"baseline":    1.0,
				"pessimistic": 0.5,
				"worst_case":  -0.5,
			},
			NumSimulations: 200,
			TimeHorizons:   []int{3, 6, 12},
			Seed:           &seed,
		},
	}
}

// LoadSettings reads a YAML settings file. A missing file yields
// DefaultSettings; keys absent from the file keep their default values.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("path", path).Msg("No settings file found, using defaults")
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return settings, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	merge(&settings, parsed)

	log.Debug().Str("path", path).Msg("Loaded settings file")
	return settings, nil
}

func merge(dst *Settings, src Settings) {
	if src.Data.Sample.NumMonths != 0 {
		dst.Data.Sample.NumMonths = src.Data.Sample.NumMonths
	}
	if len(src.Data.Sample.FacilityNames) > 0 {
		dst.Data.Sample.FacilityNames = src.Data.Sample.FacilityNames
	}
	if len(src.Scenarios.Variation) > 0 {
		dst.Scenarios.Variation = src.Scenarios.Variation
	}
	if src.Scenarios.NumSimulations != 0 {
		dst.Scenarios.NumSimulations = src.Scenarios.NumSimulations
	}
	if len(src.Scenarios.TimeHorizons) > 0 {
		dst.Scenarios.TimeHorizons = src.Scenarios.TimeHorizons
	}
	if src.Scenarios.Seed != nil {
		dst.Scenarios.Seed = src.Scenarios.Seed
	}
	if src.Scenarios.Volatility != "" {
		dst.Scenarios.Volatility = src.Scenarios.Volatility
	}
	if src.Scenarios.Workers != 0 {
		dst.Scenarios.Workers = src.Scenarios.Workers
	}
	if src.Scenarios.MaxCells != 0 {
		dst.Scenarios.MaxCells = src.Scenarios.MaxCells
	}
}

// Run converts the scenario section into orchestrator settings and validates it.
func (s ScenarioSettings) Run() (scenario.Settings, error) {
	est, err := simulation.ParseEstimator(s.Volatility)
	if err != nil {
		return scenario.Settings{}, err
	}
	seed := simulation.DefaultSeed
	if s.Seed != nil {
		seed = *s.Seed
	}
	run := scenario.Settings{
		Variations:     s.Variation,
		NumSimulations: s.NumSimulations,
		Horizons:       s.TimeHorizons,
		Seed:           seed,
		Volatility:     est,
		Workers:        s.Workers,
		MaxCells:       s.MaxCells,
	}
	if err := run.Validate(); err != nil {
		return scenario.Settings{}, err
	}
	return run, nil
}

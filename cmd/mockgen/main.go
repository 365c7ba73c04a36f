package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"ops-mcs/cmd/mockgen/engine"
	"ops-mcs/internal/simulation"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	outDir := flag.String("out", "./data", "Output directory for mock files")
	format := flag.String("format", "csv", "Output format: csv, sqlite")
	months := flag.Int("months", 24, "Number of monthly observations per series")
	seed := flag.Uint64("seed", simulation.DefaultSeed, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Months:   *months,
		Seed:     *seed,
		Now:      time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Months: %d, Seed: %d) to %s...\n", cfg.Scenario, cfg.Months, cfg.Seed, *outDir)

	records := engine.Generate(cfg)

	path, err := engine.Save(context.Background(), *outDir, *format, records)
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d rows -> %s\n", len(records), path)
}

package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ops-mcs/internal/scenario"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Output file names written by the scenarios command.
const (
	FlatCSV     = "scenarios_flat.csv"
	EndpointCSV = "scenarios_endpoint.csv"
)

var (
	scenOut         string
	scenSimulations int
	scenSeed        uint64
	scenValidate    int
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Run Monte Carlo scenario projections",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := loadStore(ctx)
		if err != nil {
			return err
		}

		sc := cfg.Settings.Scenarios
		if cmd.Flags().Changed("simulations") {
			sc.NumSimulations = scenSimulations
		}
		if cmd.Flags().Changed("seed") {
			sc.Seed = &scenSeed
		}
		settings, err := sc.Run()
		if err != nil {
			return err
		}

		res, err := scenario.Run(ctx, store, settings)
		if err != nil {
			return err
		}

		flat := res.Flat()
		endpoints := res.EndpointSummary()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Generated %d scenario rows (%d projections, %d months ahead)\n", len(flat), res.Len(), res.MonthsAhead)
		for _, s := range res.Skipped() {
			fmt.Fprintf(out, "  skipped %s / %s: %d observations\n", s.Facility, s.Metric, s.Observations)
		}
		fmt.Fprintf(out, "%-14s %12s %18s %18s\n", "scenario", "projections", "mean median", "mean uncertainty")
		for _, r := range scenario.SummarizeByScenario(endpoints) {
			fmt.Fprintf(out, "%-14s %12d %18.2f %18.2f\n", r.Scenario, r.Projections, r.MeanProjectedMedian, r.MeanUncertaintyRange)
		}

		if scenValidate > 0 {
			wf, err := scenario.WalkForward(ctx, store, settings, scenValidate)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, wf.ValidationMessage)
			if wf.DriftWarning != "" {
				fmt.Fprintln(out, wf.DriftWarning)
			}
		}

		if scenOut == "" {
			return nil
		}
		return writeViews(scenOut, flat, endpoints)
	},
}

func writeViews(dir string, flat []scenario.FlatRow, endpoints []scenario.EndpointRow) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	flatPath := filepath.Join(dir, FlatCSV)
	if err := writeFile(flatPath, func(w io.Writer) error { return scenario.WriteFlatCSV(w, flat) }); err != nil {
		return err
	}
	endpointPath := filepath.Join(dir, EndpointCSV)
	if err := writeFile(endpointPath, func(w io.Writer) error { return scenario.WriteEndpointCSV(w, endpoints) }); err != nil {
		return err
	}

	log.Info().Str("flat", flatPath).Str("endpoint", endpointPath).Msg("Wrote scenario views")
	return nil
}

// writeFile creates path and runs write against it. A failed close is
// reported like a failed write, since buffered data may not have reached disk.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func init() {
	scenariosCmd.Flags().StringVarP(&scenOut, "out", "o", "", "directory to write "+FlatCSV+" and "+EndpointCSV)
	scenariosCmd.Flags().IntVarP(&scenSimulations, "simulations", "n", 0, "override the number of simulated paths")
	scenariosCmd.Flags().Uint64Var(&scenSeed, "seed", 0, "override the base random seed")
	scenariosCmd.Flags().IntVar(&scenValidate, "validate", 0, "also backtest by holding out this many months per series")
}

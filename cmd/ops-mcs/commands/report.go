package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ops-mcs/internal/scenario"
	"ops-mcs/internal/stats"
	"ops-mcs/internal/visuals"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ReportFile is written to the output directory by the report command.
const ReportFile = "scenario_report.md"

var (
	reportOpen     bool
	reportScenario string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a markdown scenario report with charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := loadStore(ctx)
		if err != nil {
			return err
		}
		settings, err := cfg.Settings.Scenarios.Run()
		if err != nil {
			return err
		}
		res, err := scenario.Run(ctx, store, settings)
		if err != nil {
			return err
		}

		path := filepath.Join(cfg.OutputDir, ReportFile)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		writeReport(f, res, stats.ProcessBehavior(store), cfg.EnableMermaidCharts)
		if err := f.Close(); err != nil {
			return err
		}

		log.Info().Str("path", path).Msg("Wrote scenario report")
		fmt.Fprintf(cmd.OutOrStdout(), "Report -> %s\n", path)

		if reportOpen {
			return browser.OpenFile(path)
		}
		return nil
	},
}

func writeReport(w io.Writer, res *scenario.Results, behavior []stats.SeriesBehavior, charts bool) {
	endpoints := res.EndpointSummary()

	fmt.Fprintf(w, "# Scenario Projection Report\n\n")
	fmt.Fprintf(w, "Run `%s` generated %s. Seed %d, %d months ahead, %d projections.\n\n",
		res.RunID, time.Now().Format(time.RFC1123), res.Seed, res.MonthsAhead, res.Len())

	fmt.Fprintf(w, "## Scenario Overview\n\n")
	fmt.Fprintf(w, "| Scenario | Projections | Mean projected median | Mean uncertainty range |\n")
	fmt.Fprintf(w, "|---|---:|---:|---:|\n")
	for _, r := range scenario.SummarizeByScenario(endpoints) {
		fmt.Fprintf(w, "| %s | %d | %.2f | %.2f |\n", r.Scenario, r.Projections, r.MeanProjectedMedian, r.MeanUncertaintyRange)
	}
	fmt.Fprintln(w)

	if skipped := res.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(w, "Skipped (fewer than %d observations): ", scenario.MinObservations)
		var names []string
		for _, s := range skipped {
			names = append(names, fmt.Sprintf("%s / %s", s.Facility, s.Metric))
		}
		fmt.Fprintf(w, "%s\n\n", strings.Join(names, ", "))
	}

	for _, facility := range res.Facilities() {
		fmt.Fprintf(w, "## %s\n\n", facility)
		for _, metric := range res.Metrics(facility) {
			fmt.Fprintf(w, "### %s\n\n", metric)
			fmt.Fprintf(w, "| Scenario | P10 | Median | P90 | Uncertainty |\n")
			fmt.Fprintf(w, "|---|---:|---:|---:|---:|\n")
			for _, r := range endpoints {
				if r.Facility == facility && r.Metric == metric {
					fmt.Fprintf(w, "| %s | %.2f | %.2f | %.2f | %.2f |\n", r.Scenario, r.ProjectedP10, r.ProjectedMedian, r.ProjectedP90, r.UncertaintyRange)
				}
			}
			fmt.Fprintln(w)

			if !charts {
				continue
			}
			fmt.Fprintf(w, "%s\n\n", visuals.EndpointChart(facility, metric, endpoints))
			if summary, ok := res.Lookup(facility, metric, reportScenario); ok {
				fmt.Fprintf(w, "%s\n\n", visuals.FanChart(facility, metric, reportScenario, summary))
			}
		}
	}

	var signals []stats.SeriesBehavior
	for _, b := range behavior {
		if b.Status != "stable" {
			signals = append(signals, b)
		}
	}
	if len(signals) == 0 {
		return
	}
	fmt.Fprintf(w, "## Process Behavior Signals\n\n")
	for _, b := range signals {
		fmt.Fprintf(w, "- **%s / %s** is %s (%d signals)\n", b.Facility, b.Metric, b.Status, len(b.XmR.Signals))
	}
	fmt.Fprintln(w)
	if charts {
		for _, b := range signals {
			fmt.Fprintf(w, "%s\n\n", visuals.XmRChart(b))
		}
	}
}

func init() {
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "open the report in the default viewer")
	reportCmd.Flags().StringVar(&reportScenario, "fan", "baseline", "scenario whose fan chart is drawn per metric")
}

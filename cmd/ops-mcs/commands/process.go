package commands

import (
	"encoding/json"
	"fmt"

	"ops-mcs/internal/stats"

	"github.com/spf13/cobra"
)

var processJSON bool

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Compute descriptive statistics, trends, anomalies and correlations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStore(cmd.Context())
		if err != nil {
			return err
		}

		report := stats.Run(store)
		out := cmd.OutOrStdout()
		if processJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Fprintf(out, "Summary: %d series\n", len(report.Summary))
		fmt.Fprintf(out, "Trends: %d month-over-month changes\n", len(report.Trends))
		fmt.Fprintf(out, "Anomalies: %d (|z| > %.1f)\n", len(report.Anomalies), stats.DefaultZThreshold)
		for _, a := range report.Anomalies {
			fmt.Fprintf(out, "  %s %-24s %s %10.2f  z=%.2f\n", a.Date.Format("2006-01"), a.Metric, a.Facility, a.Value, a.ZScore)
		}
		fmt.Fprintf(out, "Correlations: %d metric pairs\n", len(report.Correlations))
		unstable := 0
		for _, b := range report.Behavior {
			if b.Status != "stable" {
				unstable++
			}
		}
		fmt.Fprintf(out, "Process behavior: %d of %d series show signals\n", unstable, len(report.Behavior))
		return nil
	},
}

func init() {
	processCmd.Flags().BoolVar(&processJSON, "json", false, "print the full report as JSON")
}

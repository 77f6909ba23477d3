// ABOUTME: CLI commands for statistics and the latest reading.
// ABOUTME: Renders the aggregate report with localized labels.
package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/bptrack/internal/analytics"
	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/tracker"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show summary statistics",
	Long: `Show statistics over every recorded measurement:

  - mean, max and min of systolic and diastolic pressure
  - mean values for workdays (Mon-Fri) and holidays (Sat-Sun)
  - the most recent reading

Pulse averages only count readings that have a pulse.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc.Report(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}
		renderStats(cmd.OutOrStdout(), report)
		return nil
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent reading",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc.Report(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}
		out := cmd.OutOrStdout()
		if report.Latest == nil {
			fmt.Fprintln(out, catalog.T("no_data"))
			return nil
		}
		renderLatest(out, report.Latest)
		return nil
	},
}

func renderStats(out io.Writer, report *tracker.Report) {
	if !report.HasData {
		fmt.Fprintln(out, catalog.T("no_data"))
		return
	}
	bold := color.New(color.Bold)
	s := report.Summary

	bold.Fprintln(out, catalog.T("stats"))
	fmt.Fprintf(out, "  %s: %d\n", catalog.T("count"), s.Count)
	fmt.Fprintf(out, "  %s  %s %.1f  %s %d  %s %d\n", padRight(catalog.T("systolic"), 12),
		catalog.T("mean"), s.Systolic.Mean, catalog.T("max"), s.Systolic.Max, catalog.T("min"), s.Systolic.Min)
	fmt.Fprintf(out, "  %s  %s %.1f  %s %d  %s %d\n", padRight(catalog.T("diastolic"), 12),
		catalog.T("mean"), s.Diastolic.Mean, catalog.T("max"), s.Diastolic.Max, catalog.T("min"), s.Diastolic.Min)
	if s.Pulse != nil {
		fmt.Fprintf(out, "  %s  %s %.1f  %s %d  %s %d\n", padRight(catalog.T("pulse"), 12),
			catalog.T("mean"), s.Pulse.Mean, catalog.T("max"), s.Pulse.Max, catalog.T("min"), s.Pulse.Min)
	}

	fmt.Fprintln(out)
	bold.Fprintln(out, catalog.T("weekday_stats"))
	for _, dt := range analytics.DayTypes {
		g, ok := report.Groups[dt]
		if !ok {
			continue
		}
		pulse := "-"
		if g.Pulse != nil {
			pulse = fmt.Sprintf("%.1f", *g.Pulse)
		}
		fmt.Fprintf(out, "  %s  %.1f/%.1f %s  %s %s  (n=%d)\n",
			padRight(catalog.T(string(dt)), 10),
			g.Systolic, g.Diastolic, models.UnitPressure,
			catalog.T("pulse"), pulse, g.Count)
	}

	if report.Latest != nil {
		fmt.Fprintln(out)
		renderLatest(out, report.Latest)
	}
}

func renderLatest(out io.Writer, d *analytics.Derived) {
	color.New(color.Bold).Fprintln(out, catalog.T("latest"))
	fmt.Fprintf(out, "  %s: %s (%s)\n", catalog.T("date"), d.DateString(), catalog.T(string(d.DayType)))
	fmt.Fprintf(out, "  %s: %d %s\n", catalog.T("systolic"), d.Systolic, models.UnitPressure)
	fmt.Fprintf(out, "  %s: %d %s\n", catalog.T("diastolic"), d.Diastolic, models.UnitPressure)
	if d.Pulse != nil {
		fmt.Fprintf(out, "  %s: %d %s\n", catalog.T("pulse"), *d.Pulse, models.UnitPulse)
	}
	if d.Note != nil {
		fmt.Fprintf(out, "  %s: %s\n", catalog.T("note"), *d.Note)
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(latestCmd)
}

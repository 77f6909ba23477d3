// ABOUTME: CLI command for recording a measurement.
// ABOUTME: Values go through the same validation as the API and imports.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/validation"
)

var (
	addPulse string
	addNote  string
)

var addCmd = &cobra.Command{
	Use:     "add <date> <systolic> <diastolic>",
	Aliases: []string{"a"},
	Short:   "Record a blood-pressure reading",
	Long: `Record a blood-pressure reading.

The date is YYYY-MM-DD, or "today" / "yesterday". Values outside the usual
ranges (systolic 0-250, diastolic 0-200, pulse 0-200) are stored with a
warning rather than rejected.

Examples:
  bp add 2025-11-01 125 80
  bp add today 118 76 --pulse 68
  bp add yesterday 122 78 --note "after lunch"`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := validation.Raw{
			Date:      resolveDate(args[0], time.Now()),
			Systolic:  validation.Str(args[1]),
			Diastolic: validation.Str(args[2]),
		}
		if addPulse != "" {
			raw.Pulse = validation.Str(addPulse)
		}
		if addNote != "" {
			raw.Note = validation.Str(addNote)
		}

		m, warnings, err := svc.Submit(cmd.Context(), raw)
		if err != nil {
			return fmt.Errorf("failed to add measurement: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ %s\n", catalog.T("success"))
		fmt.Fprintf(out, "  %s %s %s\n",
			color.New(color.Faint).Sprintf("#%d", m.ID),
			m.DateString(),
			formatReading(m))
		for _, w := range warnings {
			color.New(color.FgYellow).Fprintf(out, "  ! %s %d %s\n", catalog.T(w.Field), w.Value, catalog.T("range_warning"))
		}
		return nil
	},
}

// resolveDate maps the relative words "today" and "yesterday"; anything else is passed through for validation.
func resolveDate(s string, now time.Time) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return now.Format(models.DateLayout)
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(models.DateLayout)
	}
	return s
}

func formatReading(m *models.Measurement) string {
	s := fmt.Sprintf("%d/%d %s", m.Systolic, m.Diastolic, models.UnitPressure)
	if m.Pulse != nil {
		s += fmt.Sprintf("  %d %s", *m.Pulse, models.UnitPulse)
	}
	return s
}

func init() {
	addCmd.Flags().StringVar(&addPulse, "pulse", "", "pulse in bpm")
	addCmd.Flags().StringVar(&addNote, "note", "", "free-text note")
	rootCmd.AddCommand(addCmd)
}

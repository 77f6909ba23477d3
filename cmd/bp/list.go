// ABOUTME: CLI command for listing measurements.
// ABOUTME: Shows newest first with the day type of each reading.
package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/bptrack/internal/analytics"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List measurements",
	Long: `List recorded measurements, newest first.

OUTPUT FORMAT:

  Each line shows: ID  DATE  DAY TYPE  SYS/DIA mmHg  PULSE bpm  (NOTE)

  Day type is workday (Mon-Fri) or holiday (Sat-Sun). Public holidays are
  not taken into account.

EXAMPLES:

  bp list            # last 20 readings
  bp list -n 0       # everything
  bp list -n 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := svc.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list measurements: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ms) == 0 {
			fmt.Fprintln(out, catalog.T("no_data"))
			return nil
		}
		if listLimit > 0 && len(ms) > listLimit {
			ms = ms[:listLimit]
		}

		faint := color.New(color.Faint)
		for _, m := range ms {
			note := ""
			if m.Note != nil {
				note = faint.Sprintf(" (%s)", truncate(*m.Note, 30))
			}
			fmt.Fprintf(out, "%s %s %s %s%s\n",
				faint.Sprint(padRight(fmt.Sprintf("#%d", m.ID), 6)),
				m.DateString(),
				padRight(catalog.T(string(analytics.Classify(m.Date))), 10),
				formatReading(m),
				note)
		}
		return nil
	},
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen-3]) + "..."
}

func padRight(s string, length int) string {
	n := utf8.RuneCountInString(s)
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "max number of results (0 for all)")
	rootCmd.AddCommand(listCmd)
}

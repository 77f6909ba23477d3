// ABOUTME: CLI commands for exporting and importing blood-pressure data.
// ABOUTME: Supports CSV, JSON, YAML, and Markdown export; CSV and JSON import with globs.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/bptrack/internal/ingest"
	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/storage"
)

var (
	exportOutput string
	exportSince  string
	sampleOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export measurements",
	Long: `Export measurements in various formats.

FORMATS:

  csv        date,systolic,diastolic,pulse,note (re-importable)
  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export (human-readable)
  markdown   Markdown table with day types

OPTIONS:

  --output, -o   Write to file instead of stdout
  --since        Only include readings on or after this date (markdown only)

EXAMPLES:

  bp export csv -o blood_pressure_records.csv
  bp export json -o backup.json
  bp export markdown --since 2025-01-01`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"csv", "json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := svc.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		data, err := renderExport(args[0], ms, exportSince)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), exportOutput, data)
	},
}

func renderExport(format string, ms []*models.Measurement, since string) ([]byte, error) {
	export := storage.NewExportData(ms)
	switch format {
	case "csv":
		var buf bytes.Buffer
		if err := ingest.WriteCSV(&buf, ms); err != nil {
			return nil, fmt.Errorf("export failed: %w", err)
		}
		return buf.Bytes(), nil
	case "json":
		return export.ExportJSON()
	case "yaml":
		return export.ExportYAML()
	case "markdown":
		var sinceDate *time.Time
		if since != "" {
			t, err := models.ParseDate(since)
			if err != nil {
				return nil, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", since)
			}
			sinceDate = &t
		}
		return []byte(export.ExportMarkdown(sinceDate)), nil
	default:
		return nil, fmt.Errorf("unknown format: %s (use csv, json, yaml, or markdown)", format)
	}
}

func writeOutput(out io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	color.New(color.FgGreen).Fprintf(out, "✓ Exported to %s\n", path)
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import <file|glob>...",
	Short: "Import measurements from CSV files or JSON backups",
	Long: `Import measurements from CSV files or JSON backups.

CSV files need a header with at least date, systolic and diastolic columns;
pulse and note are optional. Column order and case do not matter. Each row
is validated on its own: bad rows are reported and the rest are stored.

Files ending in .json are treated as backups written by 'bp export json'.
Imported records always get new IDs.

Arguments may be glob patterns, including ** for recursive matches.

EXAMPLES:

  bp import readings.csv
  bp import 'exports/**/*.csv'
  bp import backup.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandImportArgs(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var failed int
		for _, path := range files {
			result, err := importFile(cmd, path)
			if err != nil {
				failed++
				color.New(color.FgRed).Fprintf(out, "✗ %s: %v\n", path, err)
				continue
			}
			printImportResult(out, path, result)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be imported", failed, len(files))
		}
		return nil
	},
}

// expandImportArgs resolves glob patterns; plain paths are kept as given.
func expandImportArgs(args []string) ([]string, error) {
	var files []string
	seen := map[string]bool{}
	for _, arg := range args {
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %q", arg)
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func importFile(cmd *cobra.Command, path string) (*ingest.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return svc.ImportBackup(cmd.Context(), data)
	}
	return svc.ImportCSV(cmd.Context(), bytes.NewReader(data))
}

func printImportResult(out io.Writer, path string, result *ingest.Result) {
	mark := color.New(color.FgGreen).Sprint("✓")
	if len(result.Rejected) > 0 {
		mark = color.New(color.FgYellow).Sprint("!")
	}
	fmt.Fprintf(out, "%s %s: %s\n", mark, path, catalog.Tf("imported", result.Accepted, result.Total))
	for _, r := range result.Rejected {
		fmt.Fprintf(out, "  %s\n", catalog.Tf("rejected_row", r.Row, r.Err))
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "  %s\n", color.New(color.Faint).Sprintf("row %d: %s", w.Row, w.Message))
	}
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a sample CSV in the import format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var buf bytes.Buffer
		if err := ingest.WriteCSV(&buf, ingest.SampleMeasurements()); err != nil {
			return err
		}
		if sampleOutput == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), catalog.T("sample_hint"))
		}
		return writeOutput(cmd.OutOrStdout(), sampleOutput, buf.Bytes())
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include data since date (YYYY-MM-DD)")
	sampleCmd.Flags().StringVarP(&sampleOutput, "output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(sampleCmd)
}

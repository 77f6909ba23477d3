// ABOUTME: CLI command that watches an inbox directory for CSV files.
// ABOUTME: Each file is imported, then moved to processed/ or failed/.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/bptrack/internal/config"
	"github.com/harperreed/bptrack/internal/ingest"
)

var watchSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Import CSV files dropped into an inbox directory",
	Long: `Watch a directory and import every CSV file that appears in it.

Files already present are imported first. After import a file is moved to
processed/, or to failed/ when its header is unusable. Row-level problems
are reported but do not fail the file.

The directory defaults to inbox_dir from the config (BP_INBOX_DIR), or
<data_dir>/inbox.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.GetInboxDir()
		if len(args) == 1 {
			dir = config.ExpandPath(args[0])
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create inbox: %w", err)
		}

		out := cmd.OutOrStdout()
		w := svc.Watcher(dir, ingest.WatchOptions{
			Settle: watchSettle,
			OnResult: func(path string, result *ingest.Result, err error) {
				if err != nil {
					color.New(color.FgRed).Fprintf(out, "✗ %s: %v\n", path, err)
					return
				}
				printImportResult(out, path, result)
			},
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", dir)
		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 500*time.Millisecond, "quiet period before a file is read")
	rootCmd.AddCommand(watchCmd)
}

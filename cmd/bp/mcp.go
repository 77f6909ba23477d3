// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for AI assistant integration.
package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/bptrack/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout. Logs go to stderr.

DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "bp": {
        "command": "bp",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  add_measurement     Record a reading
  list_measurements   List readings, newest first
  get_stats           Summary, workday vs holiday, latest
  import_csv          Import CSV text

AVAILABLE RESOURCES:

  bp://recent         Last 10 readings
  bp://summary        Statistics dashboard`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(svc, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

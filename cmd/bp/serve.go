// ABOUTME: CLI command for running the HTTP API.
// ABOUTME: Serves until SIGINT/SIGTERM, then shuts down gracefully.
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/bptrack/internal/api"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

ENDPOINTS:

  GET  /bp              all measurements, newest first
  POST /bp              record one measurement (JSON body)
  GET  /bp/stats        summary, workday vs holiday, latest, trend
  POST /bp/import       CSV upload (multipart "file" or text/csv body)
  GET  /bp/export.csv   download everything as CSV
  GET  /bp/sample.csv   download a sample import file
  GET  /healthz         liveness
  GET  /metrics         Prometheus metrics

The listen address comes from --listen, BP_LISTEN, or the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveListen
		if addr == "" {
			addr = cfg.GetListen()
		}

		app := api.NewApp(api.NewHandler(svc, api.Options{Logger: logger}))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", "addr", addr)
			errCh <- app.Listen(addr)
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}

// ABOUTME: Root Cobra command for the bp CLI.
// ABOUTME: Loads config and opens storage via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/bptrack/internal/config"
	"github.com/harperreed/bptrack/internal/i18n"
	"github.com/harperreed/bptrack/internal/storage"
	"github.com/harperreed/bptrack/internal/tracker"
)

var (
	dbPath   string
	langFlag string

	cfg     *config.Config
	logger  *log.Logger
	catalog *i18n.Catalog
	store   *storage.DB
	svc     *tracker.Service
)

var rootCmd = &cobra.Command{
	Use:   "bp",
	Short: "Personal blood-pressure tracker",
	Long: `bp records blood-pressure readings and summarizes them.

Each reading has a date, systolic and diastolic pressure, and optionally a
pulse and a note. Several readings per day are fine (morning/evening).

QUICK START:

  $ bp add 2025-11-01 125 80 --pulse 70 --note "morning"
  $ bp add today 118 76
  $ bp list                       # newest first
  $ bp stats                      # averages, workday vs holiday, latest
  $ bp import readings.csv        # bulk import, bad rows are reported
  $ bp export csv -o backup.csv

SERVERS:

  $ bp serve                      # HTTP API on 127.0.0.1:8080
  $ bp mcp                        # MCP server on stdio
  $ bp watch                      # import CSV files dropped into the inbox

CONFIGURATION:

  ~/.config/bptrack/config.json, overridden by BP_* environment variables
  (also read from a .env file). Data lives in ~/.local/share/bptrack/bp.db
  unless --db or data_dir says otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = newLogger(cfg.GetLogLevel())
		if err != nil {
			return err
		}

		lang := langFlag
		if lang == "" {
			lang = cfg.Locale
		}
		if lang == "" {
			lang = os.Getenv("LANG")
		}
		catalog, err = i18n.New(lang)
		if err != nil {
			return fmt.Errorf("failed to load messages: %w", err)
		}

		if !needsStorage(cmd) {
			return nil
		}
		store, err = cfg.OpenStorage(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		svc = tracker.New(store, tracker.Options{
			Timeout:       cfg.GetStorageTimeout(),
			ImportWorkers: cfg.GetImportWorkers(),
			Logger:        logger,
		})
		logger.Debug("storage opened", "path", store.Path())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			err := store.Close()
			store = nil
			svc = nil
			return err
		}
		return nil
	},
}

func needsStorage(cmd *cobra.Command) bool {
	return cmd.Name() != "sample"
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "bp",
		ReportTimestamp: true,
		Level:           lvl,
	}), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: <data_dir>/bp.db)")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "output language (en, ja, zh)")
}

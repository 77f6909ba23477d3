// ABOUTME: Query service combining validation, storage, aggregation, and ingestion.
// ABOUTME: The single entry point used by the CLI, HTTP API, and MCP server.
package tracker

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/bptrack/internal/analytics"
	"github.com/harperreed/bptrack/internal/ingest"
	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/storage"
	"github.com/harperreed/bptrack/internal/validation"
)

// DefaultTimeout bounds each storage call when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Options configure a Service.
type Options struct {
	Timeout       time.Duration
	ImportWorkers int
	Logger        *log.Logger
}

// Service is the façade over the measurement store.
type Service struct {
	repo     storage.Repository
	ingester *ingest.Coordinator
	timeout  time.Duration
	logger   *log.Logger
}

// New creates a Service backed by repo.
func New(repo storage.Repository, opts Options) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{
		repo: repo,
		ingester: ingest.NewCoordinator(repo, ingest.Options{
			Workers: opts.ImportWorkers,
			Timeout: timeout,
			Logger:  logger,
		}),
		timeout: timeout,
		logger:  logger,
	}
}

// Submit validates and stores one measurement.
// Range warnings are returned alongside the stored record; they never block it.
func (s *Service) Submit(ctx context.Context, raw validation.Raw) (*models.Measurement, []validation.RangeWarning, error) {
	v, err := validation.Validate(raw)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	m, err := s.repo.Insert(ctx, v)
	if err != nil {
		s.logger.Error("submit failed", "date", raw.Date, "err", err)
		return nil, nil, err
	}

	for _, w := range v.Warnings {
		s.logger.Warn("value outside expected range", "id", m.ID, "field", w.Field, "value", w.Value)
	}
	s.logger.Debug("measurement stored", "id", m.ID, "date", m.DateString())
	return m, v.Warnings, nil
}

// List returns every measurement, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Measurement, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ms, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	return ms, nil
}

// Count returns the number of stored measurements.
func (s *Service) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.Count(ctx)
}

// Import replays rows through the validated write path.
func (s *Service) Import(ctx context.Context, rows []validation.Raw) *ingest.Result {
	return s.ingester.Ingest(ctx, rows)
}

// ImportCSV parses a CSV file and imports its rows.
// A malformed header fails the whole file; malformed rows are reported per row.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	rows, err := ingest.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return s.ingester.IngestRows(ctx, rows), nil
}

// ImportBackup replays a JSON export through validation. Records get fresh
// ids from the store; rows are reported by their position in the file.
func (s *Service) ImportBackup(ctx context.Context, data []byte) (*ingest.Result, error) {
	backup, err := storage.ParseBackup(data)
	if err != nil {
		return nil, err
	}

	rows := make([]ingest.Row, len(backup.Entries))
	for i, e := range backup.Entries {
		rows[i] = ingest.Row{Num: i + 1, Raw: e.Raw}
	}
	// oldest first so that fresh ids keep the original relative order
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := strings.TrimSpace(rows[i].Raw.Date), strings.TrimSpace(rows[j].Raw.Date)
		if a != b {
			return a < b
		}
		return backup.Entries[rows[i].Num-1].ID < backup.Entries[rows[j].Num-1].ID
	})
	return s.ingester.IngestRows(ctx, rows), nil
}

// Report is the full aggregate view of the stored series.
type Report struct {
	Measurements []*models.Measurement
	Annotated    []analytics.Derived
	Summary      analytics.Summary
	HasData      bool
	Groups       map[analytics.DayType]analytics.GroupStats
	Latest       *analytics.Derived
	Trend        []analytics.Point
}

// Report reads the series once and derives every aggregate from that snapshot.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	ms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildReport(ms), nil
}

// BuildReport derives the aggregate view from an already retrieved series.
func BuildReport(ms []*models.Measurement) *Report {
	r := &Report{
		Measurements: ms,
		Annotated:    analytics.Annotate(ms),
		Groups:       analytics.GroupByDayType(ms),
		Trend:        analytics.Trend(ms),
	}
	r.Summary, r.HasData = analytics.Summarize(ms)
	if latest, ok := analytics.Latest(ms); ok {
		r.Latest = &latest
	}
	return r
}

// Watcher returns an inbox watcher that imports through this service.
func (s *Service) Watcher(dir string, opts ingest.WatchOptions) *ingest.Watcher {
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	return ingest.NewWatcher(dir, s.ingester, opts)
}

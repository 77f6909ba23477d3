// ABOUTME: Bulk ingestion that replays each row through validation and storage.
// ABOUTME: Records per-row failures without aborting the batch.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/storage"
	"github.com/harperreed/bptrack/internal/validation"
)

// Inserter is the write side of the measurement store.
type Inserter interface {
	Insert(ctx context.Context, v validation.Validated) (*models.Measurement, error)
}

// Options tune a Coordinator.
type Options struct {
	// Workers > 1 submits rows concurrently; reporting order stays by row.
	Workers int
	// Timeout bounds each row's storage call. Zero means no per-row bound.
	Timeout time.Duration
	Logger  *log.Logger
}

// Coordinator drives repeated single-record submissions from a bulk source.
type Coordinator struct {
	store   Inserter
	workers int
	timeout time.Duration
	logger  *log.Logger
}

// NewCoordinator creates a Coordinator writing to store.
func NewCoordinator(store Inserter, opts Options) *Coordinator {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator{store: store, workers: workers, timeout: opts.Timeout, logger: logger}
}

// Rejection records why a row was not stored. Row is 1-based.
type Rejection struct {
	Row   int
	Field string
	Err   error
}

func (r Rejection) String() string {
	return fmt.Sprintf("row %d: %v", r.Row, r.Err)
}

// MarshalJSON renders the rejection for API consumers.
func (r Rejection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Row    int    `json:"row"`
		Field  string `json:"field,omitempty"`
		Reason string `json:"reason"`
		Error  string `json:"error"`
	}{r.Row, r.Field, Reason(r.Err), r.Err.Error()})
}

// RowWarning is a non-fatal range warning on a stored row.
type RowWarning struct {
	Row     int                     `json:"row"`
	Warning validation.RangeWarning `json:"-"`
	Message string                  `json:"message"`
}

// Result summarizes a batch. Rejected and Warnings are ordered by row number.
type Result struct {
	BatchID  string                `json:"batch_id"`
	Total    int                   `json:"total"`
	Accepted int                   `json:"accepted"`
	Rejected []Rejection           `json:"rejected"`
	Warnings []RowWarning          `json:"warnings,omitempty"`
	Stored   []*models.Measurement `json:"-"`
}

type outcome struct {
	stored   *models.Measurement
	warnings []validation.RangeWarning
	err      error
}

// Row is one input row tagged with its 1-based position in the source.
// Err is set when the source row could not be decoded at all.
type Row struct {
	Num int
	Raw validation.Raw
	Err error
}

// Ingest submits every row, numbering them 1..n in slice order.
// It always returns a Result; row failures never propagate.
func (c *Coordinator) Ingest(ctx context.Context, raws []validation.Raw) *Result {
	rows := make([]Row, len(raws))
	for i, raw := range raws {
		rows[i] = Row{Num: i + 1, Raw: raw}
	}
	return c.IngestRows(ctx, rows)
}

// IngestRows submits rows in slice order and reports them by Row.Num.
func (c *Coordinator) IngestRows(ctx context.Context, rows []Row) *Result {
	result := &Result{
		BatchID:  ulid.Make().String(),
		Total:    len(rows),
		Rejected: []Rejection{},
	}
	logger := c.logger.With("batch", result.BatchID)
	logger.Debug("ingest started", "rows", len(rows), "workers", c.workers)

	outcomes := make([]outcome, len(rows))
	if c.workers == 1 {
		for i, row := range rows {
			outcomes[i] = c.submit(ctx, row)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.workers)
		for i, row := range rows {
			g.Go(func() error {
				outcomes[i] = c.submit(ctx, row)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, o := range outcomes {
		num := rows[i].Num
		if o.err != nil {
			rej := Rejection{Row: num, Field: fieldOf(o.err), Err: o.err}
			result.Rejected = append(result.Rejected, rej)
			logger.Warn("row rejected", "row", num, "err", o.err)
			continue
		}
		result.Accepted++
		result.Stored = append(result.Stored, o.stored)
		for _, w := range o.warnings {
			result.Warnings = append(result.Warnings, RowWarning{Row: num, Warning: w, Message: w.String()})
		}
	}
	sort.SliceStable(result.Rejected, func(i, j int) bool { return result.Rejected[i].Row < result.Rejected[j].Row })
	sort.SliceStable(result.Warnings, func(i, j int) bool { return result.Warnings[i].Row < result.Warnings[j].Row })

	logger.Info("ingest finished", "accepted", result.Accepted, "rejected", len(result.Rejected))
	return result
}

func (c *Coordinator) submit(ctx context.Context, row Row) outcome {
	if row.Err != nil {
		return outcome{err: row.Err}
	}
	v, err := validation.Validate(row.Raw)
	if err != nil {
		return outcome{err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	m, err := c.store.Insert(ctx, v)
	if err != nil {
		return outcome{err: err}
	}
	return outcome{stored: m, warnings: v.Warnings}
}

// Reason classifies a row error for diagnostics.
func Reason(err error) string {
	switch {
	case errors.Is(err, validation.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, validation.ErrMissingField):
		return "missing_field"
	case errors.Is(err, validation.ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, ErrMalformedRow):
		return "malformed_row"
	case errors.Is(err, storage.ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "error"
	}
}

func fieldOf(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Field
	}
	return ""
}

// ABOUTME: Fiber HTTP handlers for submitting, listing, and summarizing measurements.
// ABOUTME: Wraps the tracker service; the service owns validation and storage.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harperreed/bptrack/internal/analytics"
	"github.com/harperreed/bptrack/internal/ingest"
	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/storage"
	"github.com/harperreed/bptrack/internal/tracker"
	"github.com/harperreed/bptrack/internal/validation"
)

// Options configure a Handler.
type Options struct {
	Logger *log.Logger
	// Registry receives the API metrics. A fresh registry is created when nil.
	Registry *prometheus.Registry
}

type Handler struct {
	svc      *tracker.Service
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *Metrics
}

func NewHandler(svc *tracker.Service, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Handler{
		svc:      svc,
		logger:   logger,
		registry: registry,
		metrics:  NewMetrics(registry),
	}
}

// NewApp builds a Fiber app with middleware and routes registered.
func NewApp(handler *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bptrack",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		ErrorHandler:          errorHandler,
	})
	app.Use(handler.observe)
	app.Use(recover.New())
	RegisterRoutes(app, handler)
	return app
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ListMeasurements returns every measurement, newest first.
func (handler *Handler) ListMeasurements(c *fiber.Ctx) error {
	ms, err := handler.svc.List(c.UserContext())
	if err != nil {
		return handler.serviceError(c, err)
	}
	return c.JSON(models.Records(ms))
}

type createResponse struct {
	Measurement models.Record `json:"measurement"`
	Warnings    []string      `json:"warnings"`
}

// CreateMeasurement validates and stores one measurement.
func (handler *Handler) CreateMeasurement(c *fiber.Ctx) error {
	raw, err := parseSubmission(c.Body())
	if err != nil {
		handler.metrics.Submissions.WithLabelValues(outcomeRejected).Inc()
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	m, warnings, err := handler.svc.Submit(c.UserContext(), raw)
	if err != nil {
		outcome := outcomeError
		var verr *validation.Error
		if errors.As(err, &verr) {
			outcome = outcomeRejected
		}
		handler.metrics.Submissions.WithLabelValues(outcome).Inc()
		return handler.serviceError(c, err)
	}
	handler.metrics.Submissions.WithLabelValues(outcomeAccepted).Inc()

	resp := createResponse{Measurement: m.Record(), Warnings: make([]string, 0, len(warnings))}
	for _, w := range warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

type statsResponse struct {
	Count   int                                        `json:"count"`
	Summary *analytics.Summary                         `json:"summary"`
	Groups  map[analytics.DayType]analytics.GroupStats `json:"groups"`
	Latest  *analytics.DerivedRecord                   `json:"latest"`
	Trend   []analytics.Point                          `json:"trend"`
}

// Stats returns the summary, day-type groups, latest reading and trend.
// summary and latest are null when nothing has been recorded.
func (handler *Handler) Stats(c *fiber.Ctx) error {
	report, err := handler.svc.Report(c.UserContext())
	if err != nil {
		return handler.serviceError(c, err)
	}

	resp := statsResponse{
		Count:  len(report.Measurements),
		Groups: report.Groups,
		Trend:  report.Trend,
	}
	if report.HasData {
		resp.Summary = &report.Summary
	}
	if report.Latest != nil {
		rec := report.Latest.Record()
		resp.Latest = &rec
	}
	if resp.Trend == nil {
		resp.Trend = []analytics.Point{}
	}
	return c.JSON(resp)
}

// serviceError maps service failures onto HTTP statuses.
func (handler *Handler) serviceError(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  verr.Error(),
			"field":  verr.Field,
			"reason": ingest.Reason(err),
		})
	case errors.Is(err, storage.ErrStorageUnavailable):
		handler.logger.Error("storage unavailable", "path", c.Path(), "err", err)
		return apiError(c, fiber.StatusServiceUnavailable, "storage unavailable")
	default:
		handler.logger.Error("request failed", "path", c.Path(), "err", err)
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}

// parseSubmission turns a JSON object into raw fields. Numbers and strings are both
// accepted so that validation, not decoding, decides what a bad value is.
func parseSubmission(body []byte) (validation.Raw, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return validation.Raw{}, err
	}

	var raw validation.Raw
	if date := validation.JSONText(fields[validation.FieldDate]); date != nil {
		raw.Date = *date
	}
	raw.Systolic = validation.JSONText(fields[validation.FieldSystolic])
	raw.Diastolic = validation.JSONText(fields[validation.FieldDiastolic])
	raw.Pulse = validation.JSONText(fields[validation.FieldPulse])
	raw.Note = validation.JSONText(fields[validation.FieldNote])
	return raw, nil
}

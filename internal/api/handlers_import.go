// ABOUTME: CSV import and export handlers.
// ABOUTME: Import accepts a multipart "file" field or a raw text/csv body.
package api

import (
	"bytes"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/harperreed/bptrack/internal/ingest"
)

const (
	exportFilename = "blood_pressure_records.csv"
	sampleFilename = "sample_blood_pressure.csv"
)

// ImportCSV ingests every row of an uploaded CSV. Bad rows are reported, not fatal.
func (handler *Handler) ImportCSV(c *fiber.Ctx) error {
	body, err := importBody(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid upload")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return apiError(c, fiber.StatusBadRequest, "empty CSV")
	}

	result, err := handler.svc.ImportCSV(c.UserContext(), bytes.NewReader(body))
	if err != nil {
		handler.logger.Warn("rejected CSV upload", "err", err)
		return apiError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	handler.metrics.ImportRows.WithLabelValues(outcomeAccepted).Add(float64(result.Accepted))
	handler.metrics.ImportRows.WithLabelValues(outcomeRejected).Add(float64(len(result.Rejected)))
	handler.logger.Info("csv imported", "batch", result.BatchID, "accepted", result.Accepted, "rejected", len(result.Rejected))
	return c.JSON(result)
}

func importBody(c *fiber.Ctx) ([]byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		// not multipart; treat the body as CSV
		return c.Body(), nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ExportCSV downloads every measurement as CSV, newest first.
func (handler *Handler) ExportCSV(c *fiber.Ctx) error {
	ms, err := handler.svc.List(c.UserContext())
	if err != nil {
		return handler.serviceError(c, err)
	}

	var buf bytes.Buffer
	if err := ingest.WriteCSV(&buf, ms); err != nil {
		return handler.serviceError(c, err)
	}
	c.Attachment(exportFilename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// SampleCSV downloads a small example file in the import format.
func (handler *Handler) SampleCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := ingest.WriteCSV(&buf, ingest.SampleMeasurements()); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
	c.Attachment(sampleFilename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

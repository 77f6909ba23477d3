// ABOUTME: MCP tool implementations for blood-pressure measurements.
// ABOUTME: Provides add, list, stats, and CSV import tools.
package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bptrack/internal/analytics"
	"github.com/harperreed/bptrack/internal/ingest"
	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/tracker"
	"github.com/harperreed/bptrack/internal/validation"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_measurement",
		Description: "Record a blood-pressure reading (date, systolic, diastolic, optional pulse and note)",
	}, s.handleAddMeasurement)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_measurements",
		Description: "List recorded blood-pressure readings, newest first",
	}, s.handleListMeasurements)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_stats",
		Description: "Summary statistics, workday vs holiday averages, and the latest reading",
	}, s.handleGetStats)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "import_csv",
		Description: "Import readings from CSV text with a date,systolic,diastolic[,pulse,note] header. Bad rows are reported, not fatal",
	}, s.handleImportCSV)
}

// Tool input/output types

type addMeasurementInput struct {
	Date      string `json:"date" jsonschema:"Calendar date of the reading as YYYY-MM-DD"`
	Systolic  int    `json:"systolic" jsonschema:"Systolic pressure in mmHg"`
	Diastolic int    `json:"diastolic" jsonschema:"Diastolic pressure in mmHg"`
	Pulse     *int   `json:"pulse,omitempty" jsonschema:"Pulse in bpm"`
	Note      string `json:"note,omitempty" jsonschema:"Optional free-text note"`
}

type measurementOutput struct {
	ID        int64   `json:"id"`
	Date      string  `json:"date"`
	Systolic  int     `json:"systolic"`
	Diastolic int     `json:"diastolic"`
	Pulse     *int    `json:"pulse,omitempty"`
	Note      *string `json:"note,omitempty"`
	DayType   string  `json:"day_type"`
}

type addMeasurementOutput struct {
	Measurement measurementOutput `json:"measurement"`
	Warnings    []string          `json:"warnings,omitempty"`
	Message     string            `json:"message"`
}

type listMeasurementsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type listMeasurementsOutput struct {
	Total        int                 `json:"total"`
	Measurements []measurementOutput `json:"measurements"`
}

type getStatsInput struct{}

type groupOutput struct {
	Count     int      `json:"count"`
	Systolic  float64  `json:"systolic"`
	Diastolic float64  `json:"diastolic"`
	Pulse     *float64 `json:"pulse,omitempty"`
}

type statsOutput struct {
	Count   int                    `json:"count"`
	Summary *analytics.Summary     `json:"summary,omitempty"`
	Groups  map[string]groupOutput `json:"groups"`
	Latest  *measurementOutput     `json:"latest,omitempty"`
	Message string                 `json:"message,omitempty"`
}

type importCSVInput struct {
	CSV string `json:"csv" jsonschema:"CSV text including the header row"`
}

type rejectionOutput struct {
	Row    int    `json:"row"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

type importCSVOutput struct {
	BatchID  string            `json:"batch_id"`
	Total    int               `json:"total"`
	Accepted int               `json:"accepted"`
	Rejected []rejectionOutput `json:"rejected"`
	Warnings []string          `json:"warnings,omitempty"`
	Message  string            `json:"message"`
}

func toMeasurementOutput(m *models.Measurement) measurementOutput {
	return measurementOutput{
		ID:        m.ID,
		Date:      m.DateString(),
		Systolic:  m.Systolic,
		Diastolic: m.Diastolic,
		Pulse:     m.Pulse,
		Note:      m.Note,
		DayType:   string(analytics.Classify(m.Date)),
	}
}

// Tool handlers

func (s *Server) handleAddMeasurement(ctx context.Context, req *mcp.CallToolRequest, input addMeasurementInput) (*mcp.CallToolResult, addMeasurementOutput, error) {
	raw := validation.Raw{
		Date:      input.Date,
		Systolic:  validation.Str(strconv.Itoa(input.Systolic)),
		Diastolic: validation.Str(strconv.Itoa(input.Diastolic)),
	}
	if input.Pulse != nil {
		raw.Pulse = validation.Str(strconv.Itoa(*input.Pulse))
	}
	if input.Note != "" {
		raw.Note = validation.Str(input.Note)
	}

	m, warnings, err := s.svc.Submit(ctx, raw)
	if err != nil {
		return nil, addMeasurementOutput{}, fmt.Errorf("failed to add measurement: %w", err)
	}

	out := addMeasurementOutput{
		Measurement: toMeasurementOutput(m),
		Message: fmt.Sprintf("Added %d/%d %s on %s (ID: %d)",
			m.Systolic, m.Diastolic, models.UnitPressure, m.DateString(), m.ID),
	}
	for _, w := range warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	return nil, out, nil
}

func (s *Server) handleListMeasurements(ctx context.Context, req *mcp.CallToolRequest, input listMeasurementsInput) (*mcp.CallToolResult, listMeasurementsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	ms, err := s.svc.List(ctx)
	if err != nil {
		return nil, listMeasurementsOutput{}, fmt.Errorf("failed to list measurements: %w", err)
	}

	out := listMeasurementsOutput{Total: len(ms), Measurements: []measurementOutput{}}
	for i, m := range ms {
		if i == input.Limit {
			break
		}
		out.Measurements = append(out.Measurements, toMeasurementOutput(m))
	}
	return nil, out, nil
}

func (s *Server) handleGetStats(ctx context.Context, req *mcp.CallToolRequest, input getStatsInput) (*mcp.CallToolResult, statsOutput, error) {
	report, err := s.svc.Report(ctx)
	if err != nil {
		return nil, statsOutput{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return nil, buildStats(report), nil
}

func buildStats(report *tracker.Report) statsOutput {
	out := statsOutput{Count: len(report.Measurements), Groups: map[string]groupOutput{}}
	if !report.HasData {
		out.Message = "No measurements recorded yet."
		return out
	}

	summary := report.Summary
	out.Summary = &summary
	for dt, g := range report.Groups {
		out.Groups[string(dt)] = groupOutput{Count: g.Count, Systolic: g.Systolic, Diastolic: g.Diastolic, Pulse: g.Pulse}
	}
	if report.Latest != nil {
		latest := toMeasurementOutput(&report.Latest.Measurement)
		out.Latest = &latest
	}
	return out
}

func (s *Server) handleImportCSV(ctx context.Context, req *mcp.CallToolRequest, input importCSVInput) (*mcp.CallToolResult, importCSVOutput, error) {
	result, err := s.svc.ImportCSV(ctx, strings.NewReader(input.CSV))
	if err != nil {
		return nil, importCSVOutput{}, fmt.Errorf("failed to import CSV: %w", err)
	}

	out := importCSVOutput{
		BatchID:  result.BatchID,
		Total:    result.Total,
		Accepted: result.Accepted,
		Rejected: []rejectionOutput{},
		Message:  fmt.Sprintf("Imported %d of %d rows (batch %s)", result.Accepted, result.Total, result.BatchID),
	}
	for _, r := range result.Rejected {
		out.Rejected = append(out.Rejected, rejectionOutput{
			Row:    r.Row,
			Field:  r.Field,
			Reason: ingest.Reason(r.Err),
			Error:  r.Err.Error(),
		})
	}
	for _, w := range result.Warnings {
		out.Warnings = append(out.Warnings, fmt.Sprintf("row %d: %s", w.Row, w.Message))
	}
	return nil, out, nil
}

// ABOUTME: Export formats for blood-pressure data.
// ABOUTME: Supports JSON backups, YAML, and Markdown tables over a listed series.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/bptrack/internal/analytics"
	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/validation"
)

// ExportVersion is written into every export.
const ExportVersion = "1.0"

// ExportData represents the full export format.
type ExportData struct {
	Version      string                `json:"version"`
	ExportedAt   time.Time             `json:"exported_at"`
	Tool         string                `json:"tool"`
	Measurements []*models.Measurement `json:"-"`
}

type exportMeasurement struct {
	ID        int64   `json:"id" yaml:"id"`
	Date      string  `json:"date" yaml:"date"`
	Systolic  int     `json:"systolic" yaml:"systolic"`
	Diastolic int     `json:"diastolic" yaml:"diastolic"`
	Pulse     *int    `json:"pulse,omitempty" yaml:"pulse,omitempty"`
	Note      *string `json:"note,omitempty" yaml:"note,omitempty"`
	DayType   string  `json:"day_type,omitempty" yaml:"day_type,omitempty"`
}

type exportDocument struct {
	Version      string              `json:"version" yaml:"version"`
	ExportedAt   string              `json:"exported_at" yaml:"exported_at"`
	Tool         string              `json:"tool" yaml:"tool"`
	Measurements []exportMeasurement `json:"measurements" yaml:"measurements"`
}

// NewExportData wraps a listed series for export.
func NewExportData(ms []*models.Measurement) *ExportData {
	return &ExportData{
		Version:      ExportVersion,
		ExportedAt:   time.Now(),
		Tool:         "bptrack",
		Measurements: ms,
	}
}

func (e *ExportData) document() exportDocument {
	doc := exportDocument{
		Version:      e.Version,
		ExportedAt:   e.ExportedAt.Format(time.RFC3339),
		Tool:         e.Tool,
		Measurements: make([]exportMeasurement, 0, len(e.Measurements)),
	}
	for _, m := range e.Measurements {
		doc.Measurements = append(doc.Measurements, exportMeasurement{
			ID:        m.ID,
			Date:      m.DateString(),
			Systolic:  m.Systolic,
			Diastolic: m.Diastolic,
			Pulse:     m.Pulse,
			Note:      m.Note,
			DayType:   string(analytics.Classify(m.Date)),
		})
	}
	return doc
}

// ExportJSON renders the export as indented JSON.
func (e *ExportData) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(e.document(), "", "  ")
}

// ExportYAML renders the export as YAML.
func (e *ExportData) ExportYAML() ([]byte, error) {
	return yaml.Marshal(e.document())
}

// ExportMarkdown renders the export as a Markdown table, optionally limited to dates on or after since.
func (e *ExportData) ExportMarkdown(since *time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Blood Pressure Export - %s\n\n", e.ExportedAt.Format(models.DateLayout)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", e.ExportedAt.Format(time.RFC3339)))
	sb.WriteString("| Date | Day | Systolic | Diastolic | Pulse | Note |\n")
	sb.WriteString("|------|-----|----------|-----------|-------|------|\n")

	for _, m := range e.Measurements {
		if since != nil && m.Date.Before(models.TruncateDate(*since)) {
			continue
		}
		pulse := ""
		if m.Pulse != nil {
			pulse = fmt.Sprintf("%d %s", *m.Pulse, models.UnitPulse)
		}
		note := ""
		if m.Note != nil {
			note = strings.ReplaceAll(*m.Note, "|", "\\|")
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d %s | %d %s | %s | %s |\n",
			m.DateString(), analytics.Classify(m.Date),
			m.Systolic, models.UnitPressure,
			m.Diastolic, models.UnitPressure,
			pulse, note))
	}

	return sb.String()
}

// Backup is a JSON export read back for replay.
type Backup struct {
	Version    string
	Tool       string
	ExportedAt time.Time
	// Entries are in file order.
	Entries []BackupEntry
}

// BackupEntry is one exported record as raw fields. ID is informational;
// zero when the file has none.
type BackupEntry struct {
	ID  int64
	Raw validation.Raw
}

type backupMeasurement struct {
	ID        int64           `json:"id"`
	Date      json.RawMessage `json:"date"`
	Systolic  json.RawMessage `json:"systolic"`
	Diastolic json.RawMessage `json:"diastolic"`
	Pulse     json.RawMessage `json:"pulse"`
	Note      json.RawMessage `json:"note"`
}

type backupDocument struct {
	Version      string              `json:"version"`
	ExportedAt   string              `json:"exported_at"`
	Tool         string              `json:"tool"`
	Measurements []backupMeasurement `json:"measurements"`
}

// ParseBackup reads a JSON export without interpreting its records.
// Missing fields stay absent and bad values are left for validation, so a
// damaged record fails on its own when replayed.
func ParseBackup(data []byte) (*Backup, error) {
	var doc backupDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}

	out := &Backup{
		Version: doc.Version,
		Tool:    doc.Tool,
		Entries: make([]BackupEntry, 0, len(doc.Measurements)),
	}
	out.ExportedAt, _ = time.Parse(time.RFC3339, doc.ExportedAt)

	for _, bm := range doc.Measurements {
		raw := validation.Raw{
			Systolic:  validation.JSONText(bm.Systolic),
			Diastolic: validation.JSONText(bm.Diastolic),
			Pulse:     validation.JSONText(bm.Pulse),
			Note:      validation.JSONText(bm.Note),
		}
		if date := validation.JSONText(bm.Date); date != nil {
			raw.Date = *date
		}
		out.Entries = append(out.Entries, BackupEntry{ID: bm.ID, Raw: raw})
	}
	return out, nil
}

// ABOUTME: Tests for export and backup parsing.
// ABOUTME: Verifies JSON, YAML, and Markdown export formats.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/validation"
)

func seedExport(t *testing.T) []*models.Measurement {
	t.Helper()
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	for _, v := range []validation.Validated{
		mustValidate(t, "2025-01-06", "120", "80", validation.Str("70"), validation.Str("a|b")),
		mustValidate(t, "2025-01-11", "130", "85", nil, nil),
	} {
		if _, err := db.Insert(ctx, v); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	ms, err := db.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	return ms
}

func TestExportJSON(t *testing.T) {
	export := NewExportData(seedExport(t))

	data, err := export.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if doc["version"] != ExportVersion {
		t.Errorf("Expected version %s, got %v", ExportVersion, doc["version"])
	}
	if doc["tool"] != "bptrack" {
		t.Errorf("Expected tool bptrack, got %v", doc["tool"])
	}

	ms, ok := doc["measurements"].([]any)
	if !ok || len(ms) != 2 {
		t.Fatalf("Expected 2 measurements, got %v", doc["measurements"])
	}
	first := ms[0].(map[string]any)
	if first["date"] != "2025-01-11" {
		t.Errorf("Expected newest first, got %v", first["date"])
	}
	if first["day_type"] != "holiday" {
		t.Errorf("Expected holiday, got %v", first["day_type"])
	}
	if _, has := first["pulse"]; has {
		t.Error("Absent pulse should be omitted")
	}
}

func TestParseBackupRoundTrip(t *testing.T) {
	original := seedExport(t)
	data, err := NewExportData(original).ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	backup, err := ParseBackup(data)
	if err != nil {
		t.Fatalf("ParseBackup failed: %v", err)
	}
	if backup.Version != ExportVersion {
		t.Errorf("Expected version %s, got %s", ExportVersion, backup.Version)
	}
	if len(backup.Entries) != len(original) {
		t.Fatalf("Expected %d entries, got %d", len(original), len(backup.Entries))
	}
	for i, e := range backup.Entries {
		want := original[i]
		if e.ID != want.ID {
			t.Errorf("entry %d: id %d, want %d", i, e.ID, want.ID)
		}
		v, err := validation.Validate(e.Raw)
		if err != nil {
			t.Fatalf("entry %d does not validate: %v", i, err)
		}
		m := v.Measurement()
		if m.DateString() != want.DateString() || m.Systolic != want.Systolic || m.Diastolic != want.Diastolic {
			t.Errorf("entry %d mismatch: got %+v want %+v", i, m, want)
		}
	}
	if p := backup.Entries[1].Raw.Pulse; p == nil || *p != "70" {
		t.Error("Expected pulse 70 to survive round trip")
	}
	if n := backup.Entries[1].Raw.Note; n == nil || *n != "a|b" {
		t.Error("Expected note to survive round trip")
	}
	if backup.Entries[0].Raw.Pulse != nil {
		t.Error("Expected absent pulse to stay absent")
	}
}

func TestParseBackupKeepsAbsentAndBadFields(t *testing.T) {
	data := `{"version":"1.0","measurements":[
		{"date":"2025-01-01"},
		{"date":"bad","systolic":120,"diastolic":80},
		{"id":7,"date":"2025-01-03","systolic":"121","diastolic":81,"pulse":null}
	]}`

	backup, err := ParseBackup([]byte(data))
	if err != nil {
		t.Fatalf("ParseBackup failed: %v", err)
	}
	if len(backup.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(backup.Entries))
	}

	first := backup.Entries[0].Raw
	if first.Systolic != nil || first.Diastolic != nil {
		t.Errorf("Expected missing pressures to stay absent, got %+v", first)
	}
	if _, err := validation.Validate(first); !errors.Is(err, validation.ErrMissingField) {
		t.Errorf("Expected ErrMissingField, got %v", err)
	}
	if _, err := validation.Validate(backup.Entries[1].Raw); !errors.Is(err, validation.ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}
	third := backup.Entries[2]
	if third.ID != 7 || third.Raw.Pulse != nil {
		t.Errorf("Unexpected third entry %+v", third)
	}
	if _, err := validation.Validate(third.Raw); err != nil {
		t.Errorf("Expected third entry to validate, got %v", err)
	}
}

func TestParseBackupMalformed(t *testing.T) {
	if _, err := ParseBackup([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestExportYAML(t *testing.T) {
	data, err := NewExportData(seedExport(t)).ExportYAML()
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}

	var doc struct {
		Version      string `yaml:"version"`
		Measurements []struct {
			Date    string `yaml:"date"`
			DayType string `yaml:"day_type"`
		} `yaml:"measurements"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if doc.Version != ExportVersion {
		t.Errorf("Expected version %s, got %s", ExportVersion, doc.Version)
	}
	if len(doc.Measurements) != 2 || doc.Measurements[1].DayType != "workday" {
		t.Errorf("Unexpected measurements: %+v", doc.Measurements)
	}
}

func TestExportMarkdown(t *testing.T) {
	export := NewExportData(seedExport(t))

	md := export.ExportMarkdown(nil)
	if !strings.Contains(md, "# Blood Pressure Export") {
		t.Error("Missing header")
	}
	if !strings.Contains(md, "| 2025-01-06 | workday | 120 mmHg | 80 mmHg | 70 bpm | a\\|b |") {
		t.Errorf("Missing or malformed row:\n%s", md)
	}
	if !strings.Contains(md, "| 2025-01-11 | holiday | 130 mmHg | 85 mmHg |  |  |") {
		t.Errorf("Missing row without pulse:\n%s", md)
	}

	since := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	md = export.ExportMarkdown(&since)
	if strings.Contains(md, "2025-01-06") {
		t.Error("Expected rows before since to be filtered")
	}
	if !strings.Contains(md, "2025-01-11") {
		t.Error("Expected rows on or after since")
	}
}

// ABOUTME: Measurement model for blood-pressure readings.
// ABOUTME: Defines the stored record, calendar-date helpers, and physiological ranges.
package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// Units for display.
const (
	UnitPressure = "mmHg"
	UnitPulse    = "bpm"
)

// Range is an inclusive physiological range used for soft checks.
type Range struct {
	Min int
	Max int
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Expected ranges as enforced by entry forms. Storage does not reject values outside them.
var (
	SystolicRange  = Range{Min: 0, Max: 250}
	DiastolicRange = Range{Min: 0, Max: 200}
	PulseRange     = Range{Min: 0, Max: 200}
)

// Measurement represents a single stored blood-pressure reading.
type Measurement struct {
	ID        int64
	Date      time.Time // UTC midnight
	Systolic  int
	Diastolic int
	Pulse     *int    // nil when not recorded
	Note      *string // nil when not annotated
	CreatedAt time.Time
}

// NewMeasurement creates an unsaved Measurement for the given day.
func NewMeasurement(date time.Time, systolic, diastolic int) *Measurement {
	return &Measurement{
		Date:      TruncateDate(date),
		Systolic:  systolic,
		Diastolic: diastolic,
	}
}

// WithPulse sets the pulse.
func (m *Measurement) WithPulse(pulse int) *Measurement {
	m.Pulse = &pulse
	return m
}

// WithNote sets the note.
func (m *Measurement) WithNote(note string) *Measurement {
	m.Note = &note
	return m
}

// DateString returns the reading's date formatted as YYYY-MM-DD.
func (m *Measurement) DateString() string {
	return m.Date.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// TruncateDate drops the time-of-day, keeping the calendar date as seen in t's location.
func TruncateDate(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// Record is the wire form of a Measurement. Absent pulse and note encode as null.
type Record struct {
	ID        int64      `json:"id"`
	Date      string     `json:"date"`
	Systolic  int        `json:"systolic"`
	Diastolic int        `json:"diastolic"`
	Pulse     *int       `json:"pulse"`
	Note      *string    `json:"note"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Record converts m to its wire form.
func (m *Measurement) Record() Record {
	r := Record{
		ID:        m.ID,
		Date:      m.DateString(),
		Systolic:  m.Systolic,
		Diastolic: m.Diastolic,
		Pulse:     m.Pulse,
		Note:      m.Note,
	}
	if !m.CreatedAt.IsZero() {
		created := m.CreatedAt
		r.CreatedAt = &created
	}
	return r
}

// Records converts a series to wire form, keeping its order.
func Records(ms []*Measurement) []Record {
	out := make([]Record, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Record())
	}
	return out
}

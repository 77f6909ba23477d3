// ABOUTME: Validation gate for raw blood-pressure submissions.
// ABOUTME: Turns a Raw row into a Validated measurement or a field-level error.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/harperreed/bptrack/internal/models"
)

// Field names as they appear on the wire and in CSV headers.
const (
	FieldDate      = "date"
	FieldSystolic  = "systolic"
	FieldDiastolic = "diastolic"
	FieldPulse     = "pulse"
	FieldNote      = "note"
)

// Fields lists the wire fields in canonical column order.
var Fields = []string{FieldDate, FieldSystolic, FieldDiastolic, FieldPulse, FieldNote}

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrMissingField = errors.New("missing field")
	ErrInvalidField = errors.New("invalid field")
)

// Error describes why a raw submission was rejected.
type Error struct {
	Field string
	Value string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Value == "":
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	case errors.Is(e.Err, ErrMissingField):
		return fmt.Sprintf("%s: %v (not an integer: %q)", e.Field, e.Err, e.Value)
	default:
		return fmt.Sprintf("%s: %v %q", e.Field, e.Err, e.Value)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Raw is an unvalidated submission. Nil pointers mean the field was absent.
type Raw struct {
	Date      string
	Systolic  *string
	Diastolic *string
	Pulse     *string
	Note      *string
}

// RangeWarning flags a value outside its expected physiological range.
// It never blocks storage.
type RangeWarning struct {
	Field string
	Value int
	Range models.Range
}

func (w RangeWarning) String() string {
	return fmt.Sprintf("%s %d outside expected range %d-%d", w.Field, w.Value, w.Range.Min, w.Range.Max)
}

// Validated is a measurement that passed the gate. Only Validate constructs one.
type Validated struct {
	m        models.Measurement
	Warnings []RangeWarning
}

// Measurement returns a copy of the validated, not-yet-stored measurement.
func (v Validated) Measurement() models.Measurement {
	return v.m
}

// Validate applies the structural rules in order; the first failure wins.
// Range checks only produce warnings.
func Validate(raw Raw) (Validated, error) {
	date, err := models.ParseDate(raw.Date)
	if err != nil {
		return Validated{}, &Error{Field: FieldDate, Value: raw.Date, Err: ErrInvalidDate}
	}

	systolic, err := requiredInt(FieldSystolic, raw.Systolic)
	if err != nil {
		return Validated{}, err
	}
	diastolic, err := requiredInt(FieldDiastolic, raw.Diastolic)
	if err != nil {
		return Validated{}, err
	}

	m := models.NewMeasurement(date, systolic, diastolic)

	if s, ok := present(raw.Pulse); ok {
		pulse, err := parseInt(s)
		if err != nil {
			return Validated{}, &Error{Field: FieldPulse, Value: s, Err: ErrInvalidField}
		}
		m.WithPulse(pulse)
	}

	if raw.Note != nil && strings.TrimSpace(*raw.Note) != "" {
		m.WithNote(*raw.Note)
	}

	v := Validated{m: *m}
	v.Warnings = rangeWarnings(m)
	return v, nil
}

// JSONText turns a decoded JSON value into raw field text.
// Strings are unquoted, other scalars keep their literal form, and null or a
// missing key is absent, so that Validate decides what a bad value is.
func JSONText(v json.RawMessage) *string {
	if len(v) == 0 || string(v) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return &s
	}
	text := string(v)
	return &text
}

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}

// requiredInt reports both an absent and a non-integer value as a missing field.
func requiredInt(field string, v *string) (int, error) {
	s, ok := present(v)
	if !ok {
		return 0, &Error{Field: field, Err: ErrMissingField}
	}
	n, err := parseInt(s)
	if err != nil {
		return 0, &Error{Field: field, Value: s, Err: ErrMissingField}
	}
	return n, nil
}

func present(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	s := strings.TrimSpace(*v)
	return s, s != ""
}

// parseInt accepts integers and decimals with a zero fraction ("70.0").
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("not an integer: %s", s)
	}
	return int(f), nil
}

func rangeWarnings(m *models.Measurement) []RangeWarning {
	var warnings []RangeWarning
	if !models.SystolicRange.Contains(m.Systolic) {
		warnings = append(warnings, RangeWarning{Field: FieldSystolic, Value: m.Systolic, Range: models.SystolicRange})
	}
	if !models.DiastolicRange.Contains(m.Diastolic) {
		warnings = append(warnings, RangeWarning{Field: FieldDiastolic, Value: m.Diastolic, Range: models.DiastolicRange})
	}
	if m.Pulse != nil && !models.PulseRange.Contains(*m.Pulse) {
		warnings = append(warnings, RangeWarning{Field: FieldPulse, Value: *m.Pulse, Range: models.PulseRange})
	}
	return warnings
}

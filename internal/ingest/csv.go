// ABOUTME: CSV codec for measurement import and export.
// ABOUTME: Header-driven reader producing Raw rows, writer emitting the same five columns.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/validation"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// ErrMalformedRow marks a data row the CSV decoder could not split into cells.
var ErrMalformedRow = errors.New("malformed row")

var requiredColumns = []string{validation.FieldDate, validation.FieldSystolic, validation.FieldDiastolic}

// ReadCSV parses a delimited file whose header names the measurement fields.
// Column order does not matter, unknown columns are ignored, and blank or
// missing cells are treated as absent.
//
// Rows are numbered by their position among data rows. Fully blank rows are
// dropped but still counted. A row the decoder rejects is returned with Err
// set so that it is reported on its own; only header problems fail the file.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	cell := func(record []string, name string) *string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return nil
		}
		if strings.TrimSpace(record[i]) == "" {
			return nil
		}
		v := record[i]
		return &v
	}

	var rows []Row
	for num := 1; ; num++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("read row %d: %w", num, err)
			}
			rows = append(rows, Row{Num: num, Err: fmt.Errorf("%w: %w", ErrMalformedRow, perr)})
			continue
		}
		if isBlank(record) {
			continue
		}

		raw := validation.Raw{
			Systolic:  cell(record, validation.FieldSystolic),
			Diastolic: cell(record, validation.FieldDiastolic),
			Pulse:     cell(record, validation.FieldPulse),
			Note:      cell(record, validation.FieldNote),
		}
		if d := cell(record, validation.FieldDate); d != nil {
			raw.Date = *d
		}
		rows = append(rows, Row{Num: num, Raw: raw})
	}

	return rows, nil
}

// WriteCSV writes measurements with the header date,systolic,diastolic,pulse,note.
func WriteCSV(w io.Writer, measurements []*models.Measurement) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(validation.Fields); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, m := range measurements {
		pulse := ""
		if m.Pulse != nil {
			pulse = strconv.Itoa(*m.Pulse)
		}
		note := ""
		if m.Note != nil {
			note = *m.Note
		}
		record := []string{
			m.DateString(),
			strconv.Itoa(m.Systolic),
			strconv.Itoa(m.Diastolic),
			pulse,
			note,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write measurement %d: %w", m.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SampleMeasurements returns the template readings offered to users building their own file.
func SampleMeasurements() []*models.Measurement {
	sample := []struct {
		date     string
		sys, dia int
		pulse    int
		note     string
	}{
		{"2025-11-01", 125, 80, 70, "morning"},
		{"2025-11-02", 118, 76, 68, "evening"},
		{"2025-11-03", 122, 78, 72, "after lunch"},
	}

	out := make([]*models.Measurement, 0, len(sample))
	for _, s := range sample {
		d, _ := models.ParseDate(s.date)
		out = append(out, models.NewMeasurement(d, s.sys, s.dia).WithPulse(s.pulse).WithNote(s.note))
	}
	return out
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

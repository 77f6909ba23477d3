// ABOUTME: Measurement insert and retrieval for SQLite storage.
// ABOUTME: Implements the Repository interface methods for measurements.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/validation"
)

// Insert stores a validated measurement and returns it with its assigned id.
// The insert runs in its own transaction, so either the full row is stored or nothing is.
func (d *DB) Insert(ctx context.Context, v validation.Validated) (*models.Measurement, error) {
	m := v.Measurement()
	m.CreatedAt = time.Now().UTC().Truncate(time.Second)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("insert measurement", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO measurements (date, systolic, diastolic, pulse, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		m.DateString(),
		m.Systolic,
		m.Diastolic,
		nullInt(m.Pulse),
		nullString(m.Note),
		m.CreatedAt.Format(time.RFC3339),
	).Scan(&m.ID)
	if err != nil {
		return nil, unavailable("insert measurement", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit measurement", err)
	}

	return &m, nil
}

// ListAll retrieves every measurement.
// Results are sorted by date descending, same-date records by id descending.
func (d *DB) ListAll(ctx context.Context) ([]*models.Measurement, error) {
	query := `
		SELECT id, date, systolic, diastolic, pulse, note, created_at
		FROM measurements
		ORDER BY date DESC, id DESC
	`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("list measurements", err)
	}
	defer rows.Close()

	measurements, err := scanMeasurements(rows)
	if err != nil {
		return nil, unavailable("list measurements", err)
	}
	return measurements, nil
}

// Count returns the number of stored measurements.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements`).Scan(&n); err != nil {
		return 0, unavailable("count measurements", err)
	}
	return n, nil
}

// scanMeasurements scans multiple rows into a slice of Measurements.
func scanMeasurements(rows *sql.Rows) ([]*models.Measurement, error) {
	measurements := []*models.Measurement{}

	for rows.Next() {
		var m models.Measurement
		var date, createdAt string
		var pulse sql.NullInt64
		var note sql.NullString

		if err := rows.Scan(&m.ID, &date, &m.Systolic, &m.Diastolic, &pulse, &note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}

		parsed, err := models.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("measurement %d: %w", m.ID, err)
		}
		m.Date = parsed
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if pulse.Valid {
			p := int(pulse.Int64)
			m.Pulse = &p
		}
		if note.Valid {
			m.Note = &note.String
		}

		measurements = append(measurements, &m)
	}

	return measurements, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

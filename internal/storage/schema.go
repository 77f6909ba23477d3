// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines the measurements table and its date index.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS measurements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		systolic INTEGER NOT NULL,
		diastolic INTEGER NOT NULL,
		pulse INTEGER,
		note TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_measurements_date ON measurements(date DESC, id DESC);
	`

	_, err := d.db.Exec(schema)
	return err
}

// ABOUTME: SQLite database connection and lifecycle management.
// ABOUTME: Uses modernc.org/sqlite (pure Go, no CGO required).
package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Compile-time check that DB implements Repository.
var _ Repository = (*DB)(nil)

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
}

// Open opens or creates a SQLite database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &DB{db: db, dbPath: dbPath}

	if err := d.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	// The file exists once the schema is written.
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		_ = db.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	return d, nil
}

// DataDir returns the default data directory under the XDG base directory.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "bptrack")
}

// DefaultDBPath returns the default database path under the XDG base directory.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "bp.db")
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

func dsn(dbPath string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return dbPath + "?" + q.Encode()
}

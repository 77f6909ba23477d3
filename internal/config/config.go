// ABOUTME: bptrack configuration management.
// ABOUTME: Loads the JSON config file, applies .env and BP_* overrides, and opens storage.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/harperreed/bptrack/internal/storage"
)

// Defaults applied when neither the config file nor the environment sets a value.
const (
	DefaultListen         = "127.0.0.1:8080"
	DefaultLogLevel       = "info"
	DefaultStorageTimeout = 5 * time.Second
	DefaultImportWorkers  = 1
)

// Config stores bptrack configuration.
type Config struct {
	// DataDir is the root directory for data storage. bp.db lives here.
	// Supports ~ expansion. Defaults to ~/.local/share/bptrack.
	DataDir string `json:"data_dir,omitempty" env:"BP_DATA_DIR"`

	// Locale selects the CLI message catalog ("en", "ja", "zh"). Empty means detect from LANG.
	Locale string `json:"locale,omitempty" env:"BP_LOCALE"`

	LogLevel string `json:"log_level,omitempty" env:"BP_LOG_LEVEL"`

	// Listen is the HTTP API address used by `bp serve`.
	Listen string `json:"listen,omitempty" env:"BP_LISTEN"`

	// StorageTimeout bounds each storage call.
	StorageTimeout Duration `json:"storage_timeout,omitempty" env:"BP_STORAGE_TIMEOUT"`

	// ImportWorkers is the number of rows submitted concurrently during import.
	ImportWorkers int `json:"import_workers,omitempty" env:"BP_IMPORT_WORKERS"`

	// InboxDir is the directory watched by `bp watch`. Defaults to <data_dir>/inbox.
	InboxDir string `json:"inbox_dir,omitempty" env:"BP_INBOX_DIR"`
}

// Duration is a time.Duration written as a string like "5s" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText lets env overrides use the same "5s" form.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetDBPath returns the SQLite database path inside the data directory.
func (c *Config) GetDBPath() string {
	if c.DataDir == "" {
		return storage.DefaultDBPath()
	}
	return filepath.Join(c.GetDataDir(), "bp.db")
}

// GetInboxDir returns the watched inbox directory.
func (c *Config) GetInboxDir() string {
	if c.InboxDir == "" {
		return filepath.Join(c.GetDataDir(), "inbox")
	}
	return ExpandPath(c.InboxDir)
}

func (c *Config) GetListen() string {
	if c.Listen == "" {
		return DefaultListen
	}
	return c.Listen
}

func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}

func (c *Config) GetStorageTimeout() time.Duration {
	if c.StorageTimeout <= 0 {
		return DefaultStorageTimeout
	}
	return time.Duration(c.StorageTimeout)
}

func (c *Config) GetImportWorkers() int {
	if c.ImportWorkers < 1 {
		return DefaultImportWorkers
	}
	return c.ImportWorkers
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the SQLite store at dbPath, or at the configured location when dbPath is empty.
func (c *Config) OpenStorage(dbPath string) (*storage.DB, error) {
	if dbPath == "" {
		dbPath = c.GetDBPath()
	}
	return storage.Open(ExpandPath(dbPath))
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "bptrack", "config.json")
}

// Load reads the config file and applies environment overrides.
// A .env file in the working directory is loaded first; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := LoadFile(GetConfigPath())
	if err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// LoadFile reads config from path without consulting the environment.
// A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

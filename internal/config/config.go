// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast
// on misconfiguration.
package config

import (
	"path/filepath"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Data    DataConfig
	Records RecordsConfig
	Draft   DraftConfig
	Import  ImportConfig
	Logging LoggingConfig
}

// DataConfig holds filesystem locations for persistent state.
type DataConfig struct {
	// Dir is the root directory for the database and draft files (default: current dir)
	Dir string `env:"DATA_DIR" default:"."`

	// DatabaseFile is the SQLite file name inside Dir (default: records.db)
	DatabaseFile string `env:"DATABASE_FILE" default:"records.db"`

	// DraftDir is the draft subdirectory inside Dir (default: drafts)
	DraftDir string `env:"DRAFT_DIR" default:"drafts"`
}

// RecordsConfig holds record listing settings.
type RecordsConfig struct {
	// PageSize is the number of records per search page (default: 10)
	PageSize int `env:"RECORDS_PAGE_SIZE" default:"10"`
}

// DraftConfig holds draft auto-save settings.
type DraftConfig struct {
	// Debounce is how long rapid draft saves coalesce before the write
	// hits disk (default: 500ms). Zero writes through on every save.
	Debounce time.Duration `env:"DRAFT_DEBOUNCE" default:"500ms"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed import file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"104857600"`

	// Timeout is the maximum duration for a single import operation (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DatabasePath returns the full path of the SQLite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.Dir, c.Data.DatabaseFile)
}

// DraftPath returns the full path of the draft directory.
func (c *Config) DraftPath() string {
	return filepath.Join(c.Data.Dir, c.Data.DraftDir)
}

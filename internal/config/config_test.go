package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify defaults
	if cfg.Data.Dir != "." {
		t.Errorf("Data.Dir = %q, want %q", cfg.Data.Dir, ".")
	}
	if cfg.Data.DatabaseFile != "records.db" {
		t.Errorf("Data.DatabaseFile = %q, want %q", cfg.Data.DatabaseFile, "records.db")
	}
	if cfg.Records.PageSize != 10 {
		t.Errorf("Records.PageSize = %d, want %d", cfg.Records.PageSize, 10)
	}
	if cfg.Draft.Debounce != 500*time.Millisecond {
		t.Errorf("Draft.Debounce = %v, want %v", cfg.Draft.Debounce, 500*time.Millisecond)
	}
	if cfg.Import.MaxFileSize != 104857600 {
		t.Errorf("Import.MaxFileSize = %d, want %d", cfg.Import.MaxFileSize, 104857600)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	os.Setenv("DATA_DIR", "/tmp/rolodex")
	os.Setenv("RECORDS_PAGE_SIZE", "25")
	os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("DATA_DIR")
		os.Unsetenv("RECORDS_PAGE_SIZE")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Data.Dir != "/tmp/rolodex" {
		t.Errorf("Data.Dir = %q, want %q", cfg.Data.Dir, "/tmp/rolodex")
	}
	if cfg.Records.PageSize != 25 {
		t.Errorf("Records.PageSize = %d, want %d", cfg.Records.PageSize, 25)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_Duration(t *testing.T) {
	os.Setenv("DRAFT_DEBOUNCE", "2s")
	os.Setenv("IMPORT_TIMEOUT", "1m30s")
	defer func() {
		os.Unsetenv("DRAFT_DEBOUNCE")
		os.Unsetenv("IMPORT_TIMEOUT")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Draft.Debounce != 2*time.Second {
		t.Errorf("Draft.Debounce = %v, want %v", cfg.Draft.Debounce, 2*time.Second)
	}
	if cfg.Import.Timeout != 90*time.Second {
		t.Errorf("Import.Timeout = %v, want %v", cfg.Import.Timeout, 90*time.Second)
	}
}

func TestValidate_InvalidPageSize(t *testing.T) {
	cfg := &Config{
		Data:    DataConfig{Dir: ".", DatabaseFile: "records.db", DraftDir: "drafts"},
		Records: RecordsConfig{PageSize: 0},
		Import:  ImportConfig{MaxFileSize: 1, Timeout: time.Minute},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for zero page size")
	}
	if !contains(err.Error(), "RECORDS_PAGE_SIZE") {
		t.Errorf("error should mention RECORDS_PAGE_SIZE: %v", err)
	}
}

func TestValidate_NegativeDebounce(t *testing.T) {
	cfg := &Config{
		Data:    DataConfig{Dir: ".", DatabaseFile: "records.db", DraftDir: "drafts"},
		Records: RecordsConfig{PageSize: 10},
		Draft:   DraftConfig{Debounce: -time.Second},
		Import:  ImportConfig{MaxFileSize: 1, Timeout: time.Minute},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for negative debounce")
	}
	if !contains(err.Error(), "DRAFT_DEBOUNCE") {
		t.Errorf("error should mention DRAFT_DEBOUNCE: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{
		Data:    DataConfig{Dir: ".", DatabaseFile: "records.db", DraftDir: "drafts"},
		Records: RecordsConfig{PageSize: 10},
		Import:  ImportConfig{MaxFileSize: 1, Timeout: time.Minute},
		Logging: LoggingConfig{Level: "verbose", Format: "text"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for invalid log level")
	}
	if !contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("error should mention LOG_LEVEL: %v", err)
	}
}

func TestDatabasePath(t *testing.T) {
	tests := []struct {
		dir  string
		file string
		want string
	}{
		{".", "records.db", "records.db"},
		{"/data", "records.db", "/data/records.db"},
		{"/data/app", "contacts.db", "/data/app/contacts.db"},
	}

	for _, tt := range tests {
		cfg := &Config{Data: DataConfig{Dir: tt.dir, DatabaseFile: tt.file}}
		got := cfg.DatabasePath()
		if got != tt.want {
			t.Errorf("DatabasePath() with dir=%q, file=%q = %q, want %q", tt.dir, tt.file, got, tt.want)
		}
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Data:    DataConfig{Dir: "/data", DatabaseFile: "records.db", DraftDir: "drafts"},
		Records: RecordsConfig{PageSize: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
	str := cfg.String()
	if !contains(str, "/data") {
		t.Errorf("String() should contain data dir: %s", str)
	}
	if !contains(str, "info") {
		t.Errorf("String() should contain log level: %s", str)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsHelper(s, substr))
}

func containsHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

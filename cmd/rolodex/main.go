package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rolodex/internal/app"
	"rolodex/internal/config"
	"rolodex/internal/draft"
	"rolodex/internal/logging"
	"rolodex/internal/store"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"data_dir", cfg.Data.Dir,
		"database", cfg.DatabasePath(),
		"page_size", cfg.Records.PageSize,
		"draft_debounce", cfg.Draft.Debounce,
	)

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Open the record database
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	// Open the draft cache
	drafts, err := draft.Open(cfg.DraftPath(), cfg.Draft.Debounce)
	if err != nil {
		slog.Error("failed to open draft cache", "error", err)
		st.Close()
		os.Exit(1)
	}

	engine := app.New(cfg, st, drafts)
	defer engine.Close()

	ctx := context.Background()
	count, err := engine.Count(ctx)
	if err != nil {
		slog.Error("failed to count records", "error", err)
		os.Exit(1)
	}
	slog.Info("engine ready", "records", count)

	// Run until interrupted. A frontend would drive the engine here.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
}

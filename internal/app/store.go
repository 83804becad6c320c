// Package app wires configuration into the concrete store used by the binaries.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"bookshelf/internal/config"
	"bookshelf/internal/storage"
	"bookshelf/internal/tabular"
)

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// OpenStore returns the book repository for the configured backend and a
// function releasing whatever it holds open.
func OpenStore(cfg *config.Config) (*storage.BookRepo, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendSheets:
		creds := tabular.Credentials{JSON: cfg.GoogleCredentialsJSON, File: cfg.GoogleCredentialsFile}
		opts, err := creds.ClientOptions()
		if err != nil {
			return nil, nil, err
		}
		if creds.JSON == "" {
			if _, err := os.Stat(creds.File); err != nil {
				return nil, nil, fmt.Errorf("google credentials file: %w", err)
			}
		}
		open := tabular.NewSheetsOpener(cfg.Location, opts...)
		slog.Info("Using Google Sheets store", "spreadsheet_id", cfg.Location.SpreadsheetID, "sheet", cfg.Location.SheetName)
		return storage.NewBookRepo(open, cfg.Location, cfg.StoreTimeout), func() error { return nil }, nil

	case config.BackendSQLite:
		db, err := tabular.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := tabular.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		open := tabular.NewSQLiteClient(db, cfg.Location.SheetName).Opener()
		slog.Info("Using SQLite store", "path", cfg.SQLitePath, "sheet", cfg.Location.SheetName)
		return storage.NewBookRepo(open, cfg.Location, cfg.StoreTimeout), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

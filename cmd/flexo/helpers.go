package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/flexoplate-iq/internal/config"
	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/storage"
)

// openStorage opens the configured database and brings its schema up to
// date.
func (a *app) openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.DatabasePath(a.v)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("opened database", "path", dbPath)
	return store, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// newEngine builds an engine over store using the matching settings.
func (a *app) newEngine(store engine.Catalog) (*engine.Service, error) {
	cfg, err := config.LoadMatchingConfig(a.v)
	if err != nil {
		return nil, err
	}
	return engine.NewWithConfig(store, cfg), nil
}

// optional returns nil for a blank string.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

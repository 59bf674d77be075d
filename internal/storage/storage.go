// Package storage selects the repository backend named by configuration.
package storage

import (
	"context"
	"fmt"
	"strings"

	"weightlog/internal/adapter/memory"
	"weightlog/internal/adapter/postgres"
	"weightlog/internal/adapter/sqlite"
	"weightlog/internal/config"
	"weightlog/internal/domain"
)

// Store is a backend serving both repositories.
type Store interface {
	domain.UserRepository
	domain.EntryRepository
	Close() error
}

// Open connects to the configured backend, migrating it when it has a
// schema.
func Open(ctx context.Context, cfg config.DBConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("storage: postgres: %w", err)
		}
		return db, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("storage: sqlite: %w", err)
		}
		return db, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

package database

import (
	"context"
	"fmt"

	"chatpush/internal/migrations"
	"chatpush/internal/models"
)

// Store is the chat messages backend the admin endpoints delete from.
// Both implementations also offer SaveMessage, GetMessage and
// CountMessages for seeding and inspecting a store.
type Store interface {
	DeleteRecentMessages(ctx context.Context, filter models.PurgeFilter) (int64, error)
	DeleteMessagesByID(ctx context.Context, ids []string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects the backend selected by cfg.Driver
func Open(ctx context.Context, cfg models.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", migrations.DriverSQLite:
		return New(cfg.Path)
	case migrations.DriverPostgres:
		return NewPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

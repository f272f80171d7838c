package pgqueue

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/taskforge/pkg/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	migrationsDir   = "migrations"
	migrationsTable = "taskforge_pgqueue_migrations"
)

// Migrate applies the pgqueue-owned migrations (pgmq extension bootstrap,
// periodic_jobs/periodic_fires tables) through pkg/db's shared
// pgxpool-to-goose bridge, tracked in their own migrationsTable so they
// never collide with another schema's migration history on the same pool.
// Run this once at startup before constructing a Backend.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	return db.Migrate(ctx, pool, migrationFS, migrationsDir, migrationsTable, log)
}

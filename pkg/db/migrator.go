package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/taskforge/pkg/logger"
)

// Migrate applies the embedded SQL migrations under dir against pool's
// database, tracking applied versions in a goose-owned table named table.
// job/pgqueue calls this directly with its own embed.FS and a
// package-scoped table name so pgmq/periodic-entry migrations are tracked
// independently of any other schema sharing the same pool. Pass nil for
// log to discard migration logging.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations embed.FS, dir, table string, log *slog.Logger) error {
	// Bridge pgx connection pool to database/sql interface required by goose.
	// stdlib.OpenDBFromPool shares the underlying pool connections, so this
	// is intentionally never closed here; closing it would disrupt pool.
	sqlDB := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations)
	goose.SetTableName(table)

	if log == nil {
		log = logger.NewNope()
	}
	goose.SetLogger(&gooseLoggerAdapter{log})

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	// Log at error level only - goose will return an error that propagates up.
	// We avoid os.Exit(1) to allow proper shutdown and cleanup.
	g.log.Error(fmt.Sprintf(format, args...))
}

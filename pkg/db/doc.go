// Package db provides the shared pgxpool plumbing job backends build on:
// connection pooling with retry, a goose-backed migration runner, a ping
// healthcheck, and a transaction helper.
//
// # Connecting
//
// Open wraps [github.com/jackc/pgx/v5/pgxpool] with pool-size defaults and a
// retrying initial connect/ping, configured through functional options:
//
//	pool, err := db.Open(ctx, os.Getenv("DATABASE_URL"),
//		db.WithMaxConns(10),
//		db.WithMinConns(5),
//		db.WithLogger(log),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
// Open has no opinion on schema migrations: each backend that needs them
// (job/pgqueue, for its pgmq and periodic-entry tables) embeds its own SQL
// files and calls [Migrate] directly against the pool it just opened.
//
// # Migrations
//
//	//go:embed migrations/*.sql
//	var migrationFS embed.FS
//
//	err := db.Migrate(ctx, pool, migrationFS, "migrations", "my_migrations", log)
//
// The table name is explicit so that two backends sharing one pool (unusual,
// but not forbidden) track their applied versions independently instead of
// racing on a single goose table.
//
// # Health checks
//
// [Healthcheck] returns a closure compatible with [pkg/health.CheckFunc]:
//
//	healthFn := db.Healthcheck(pool)
//	if err := healthFn(ctx); err != nil {
//		// pool is unreachable
//	}
//
// job/pgqueue.Healthcheck wraps this with its own nil-backend guard and
// sentinel before handing it to pkg/health.
//
// # Transactions
//
// [WithTx] commits on success and rolls back on error or panic (re-raising
// the panic after rollback):
//
//	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		_, err := tx.Exec(ctx, "update ...")
//		return err
//	})
package db

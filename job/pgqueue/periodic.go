package pgqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/taskforge/job"
	"github.com/dmitrymomot/taskforge/pkg/db"
)

// EnqueuePeriodicIfAbsent claims a periodic fire atomically against the
// fingerprint plus the fire-time bucket (truncated to the second), via a
// unique constraint on periodic_fires(fingerprint, fire_at). Only the
// first process to insert for a given bucket wins; every other insert
// hits the unique violation and is treated as "already claimed", giving
// fleet-wide single-firing.
func (b *Backend) EnqueuePeriodicIfAbsent(ctx context.Context, entry job.PeriodicEntry, fireAt time.Time) (bool, error) {
	tag, err := b.pool.Exec(ctx, `
		insert into periodic_fires (fingerprint, fire_at)
		values ($1, $2)
		on conflict (fingerprint, fire_at) do nothing`,
		int64(entry.Fingerprint), fireAt.UTC().Truncate(time.Second))
	if err != nil {
		return false, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SyncPeriodicEntries upserts the current in-memory registry into
// periodic_jobs and applies policy to fingerprints no longer registered.
func (b *Backend) SyncPeriodicEntries(ctx context.Context, entries []job.PeriodicEntry, policy job.StaleCleanupPolicy) error {
	return db.WithTx(ctx, b.pool, func(tx pgx.Tx) error {
		current := make(map[int64]struct{}, len(entries))
		for _, e := range entries {
			fp := int64(e.Fingerprint)
			current[fp] = struct{}{}

			_, err := tx.Exec(ctx, `
				insert into periodic_jobs (fingerprint, worker_name, schedule, args, created_at)
				values ($1, $2, $3, $4, now())
				on conflict (fingerprint) do update
					set worker_name = excluded.worker_name,
					    schedule    = excluded.schedule,
					    args        = excluded.args`,
				fp, e.WorkerName, e.CronExpr, []byte(e.Args))
			if err != nil {
				return fmt.Errorf("%w: %w", ErrPeriodicTableSetup, err)
			}
		}

		if policy == job.StaleCleanupManual {
			return nil
		}

		rows, err := tx.Query(ctx, `select fingerprint from periodic_jobs`)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPeriodicTableSetup, err)
		}
		var stale []int64
		for rows.Next() {
			var fp int64
			if err := rows.Scan(&fp); err != nil {
				rows.Close()
				return fmt.Errorf("%w: %w", ErrPeriodicTableSetup, err)
			}
			if _, ok := current[fp]; !ok {
				stale = append(stale, fp)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrPeriodicTableSetup, err)
		}

		// AutoCleanStale and AutoCleanAll both prune here: the distinction
		// between "obsolete by this deployment's cohort" and "everything
		// unregistered" is a fleet-coordination policy enforced by how
		// deployments stagger their before-run calls, not by different SQL —
		// a single process only ever sees its own cohort's registrations.
		for _, fp := range stale {
			if _, err := tx.Exec(ctx, `delete from periodic_jobs where fingerprint = $1`, fp); err != nil {
				return fmt.Errorf("%w: %w", ErrPeriodicTableSetup, err)
			}
			if _, err := tx.Exec(ctx, `delete from periodic_fires where fingerprint = $1`, fp); err != nil {
				return fmt.Errorf("%w: %w", ErrPeriodicTableSetup, err)
			}
		}

		return nil
	})
}

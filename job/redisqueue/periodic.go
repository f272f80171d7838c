package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrymomot/taskforge/job"
)

// EnqueuePeriodicIfAbsent claims a periodic fire atomically against
// fingerprint plus fire-time bucket (truncated to the second) via SETNX on
// a claim key carrying its own TTL, adapted from the distributed-lock
// idiom in muaviaUsmani-Bananas' cron scheduler: instead of a mutex over a
// shared resource, the lock key itself encodes the (fingerprint, bucket)
// pair, so only the first claimant for that exact bucket ever succeeds.
func (b *Backend) EnqueuePeriodicIfAbsent(ctx context.Context, entry job.PeriodicEntry, fireAt time.Time) (bool, error) {
	key := periodicClaimKey(entry.Fingerprint, fireAt.UTC().Truncate(time.Second).Unix())
	ok, err := b.client.SetNX(ctx, key, 1, b.claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return ok, nil
}

type periodicRecord struct {
	WorkerName string          `json:"worker_name"`
	Schedule   string          `json:"schedule"`
	Args       json.RawMessage `json:"args"`
}

// SyncPeriodicEntries persists the in-memory registry into the periodic
// hash (fingerprint -> record) and, unless policy is manual, removes
// fingerprints no longer registered.
func (b *Backend) SyncPeriodicEntries(ctx context.Context, entries []job.PeriodicEntry, policy job.StaleCleanupPolicy) error {
	current := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		field := strconv.FormatUint(e.Fingerprint, 10)
		current[field] = struct{}{}

		rec := periodicRecord{WorkerName: e.WorkerName, Schedule: e.CronExpr, Args: e.Args}
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: %w", job.ErrSerde, err)
		}
		if err := b.client.HSet(ctx, periodicKey, field, raw).Err(); err != nil {
			return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
		}
	}

	if policy == job.StaleCleanupManual {
		return nil
	}

	existing, err := b.client.HKeys(ctx, periodicKey).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	var stale []string
	for _, field := range existing {
		if _, ok := current[field]; !ok {
			stale = append(stale, field)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := b.client.HDel(ctx, periodicKey, stale...).Err(); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return nil
}

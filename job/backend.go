package job

import (
	"context"
	"time"
)

// Enqueuer is the backend-specific producer path. Both job/pgqueue and
// job/redisqueue implement this with the same external signatures; only
// the wire mechanics differ.
type Enqueuer interface {
	// Enqueue frames one Job under workerName and pushes it with zero
	// visibility delay.
	Enqueue(ctx context.Context, workerName string, args any, opts ...EnqueueOption) error

	// EnqueueDelayed is Enqueue with delay seconds of initial invisibility.
	EnqueueDelayed(ctx context.Context, workerName string, args any, delay time.Duration, opts ...EnqueueOption) error

	// EnqueueBatch frames N Jobs and pushes them in as few backend calls as
	// the backend supports. Ordering within the batch is preserved
	// best-effort but not guaranteed across retries.
	EnqueueBatch(ctx context.Context, workerName string, args []any, opts ...EnqueueOption) error

	// EnqueueBatchDelayed is EnqueueBatch with a shared initial delay.
	EnqueueBatchDelayed(ctx context.Context, workerName string, args []any, delay time.Duration, opts ...EnqueueOption) error
}

// ReadMessage is a backend-agnostic view of one fetched, now-invisible
// message: its Job payload plus enough backend state to ack, retry, or
// archive it.
type ReadMessage struct {
	// ID is the backend-native message identifier (pgmq msg_id as a
	// string, or the Sidekiq jid).
	ID string

	Job Job

	// Attempt is the backend's own delivery counter (pgmq's read_ct minus
	// one, or Sidekiq's retry_count), 0-indexed.
	Attempt uint32
}

// BackendQueue is the thin uniform interface the Scheduler drives. Both
// backends implement the full contract described in spec.md §4.3/§4.4.
type BackendQueue interface {
	// EnsureQueue is idempotent; it runs once per distinct queue name
	// during before-run setup.
	EnsureQueue(ctx context.Context, queue string) error

	// Read atomically marks up to batch visible messages invisible for
	// visibility and returns them. visibility must exceed the expected
	// handler runtime including its timeout.
	Read(ctx context.Context, queue string, visibility time.Duration, batch int) ([]ReadMessage, error)

	// Ack completes the message. job/pgqueue archives it (moved to pgmq's
	// archive table, not deleted), preserving audit history; job/redisqueue
	// removes it from the working list and keeps no copy.
	Ack(ctx context.Context, queue string, id string) error

	// NackRetry re-sets the message's visibility timer to delay without
	// incrementing the application-level retry count — the backend's own
	// delivery counter doubles as the attempt counter.
	NackRetry(ctx context.Context, queue string, id string, delay time.Duration) error

	// Archive moves the message straight to terminal storage with reason,
	// regardless of attempt count.
	Archive(ctx context.Context, queue string, id string, reason string) error

	// ListQueues returns the queue names currently known to the backend.
	ListQueues(ctx context.Context) ([]string, error)

	// EnqueuePeriodicIfAbsent atomically inserts a periodic fire for the
	// given fingerprint/bucket pair. ok is false when another process
	// already claimed this fire, implementing fleet-wide single-firing.
	EnqueuePeriodicIfAbsent(ctx context.Context, entry PeriodicEntry, fireAt time.Time) (ok bool, err error)

	// SyncPeriodicEntries persists the current in-memory periodic registry
	// and applies policy to fingerprints no longer registered.
	SyncPeriodicEntries(ctx context.Context, entries []PeriodicEntry, policy StaleCleanupPolicy) error

	// Close releases backend-held resources (connection pools, etc).
	Close() error
}

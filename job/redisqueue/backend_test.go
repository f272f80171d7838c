package redisqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskforge/job"
)

func newTestBackend(t *testing.T) (*Backend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backend, err := New(client, WithBlockTimeout(50*time.Millisecond))
	require.NoError(t, err)
	return backend, mr
}

func TestBackend_EnqueueReadAck(t *testing.T) {
	t.Parallel()
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Enqueue(ctx, "echo", map[string]string{"foo": "bar"}, job.InQueue("q")))

	msgs, err := backend.Read(ctx, "q", 30*time.Second, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "echo", msgs[0].Job.Metadata.WorkerName)
	require.Equal(t, uint32(0), msgs[0].Attempt)

	require.NoError(t, backend.Ack(ctx, "q", msgs[0].ID))

	// acked twice should fail: the in-flight entry is gone
	require.ErrorIs(t, backend.Ack(ctx, "q", msgs[0].ID), ErrWorkingEntryNotFound)
}

func TestBackend_NackRetry(t *testing.T) {
	t.Parallel()
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Enqueue(ctx, "echo", map[string]string{"foo": "bar"}, job.InQueue("q")))

	msgs, err := backend.Read(ctx, "q", 30*time.Second, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, backend.NackRetry(ctx, "q", msgs[0].ID, -1*time.Second))

	n, err := backend.PromoteDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	msgs2, err := backend.Read(ctx, "q", 30*time.Second, 1)
	require.NoError(t, err)
	require.Len(t, msgs2, 1)
	require.Equal(t, uint32(1), msgs2[0].Attempt)
}

func TestBackend_Archive(t *testing.T) {
	t.Parallel()
	backend, mr := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Enqueue(ctx, "echo", map[string]string{"foo": "bar"}, job.InQueue("q")))

	msgs, err := backend.Read(ctx, "q", 30*time.Second, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, backend.Archive(ctx, "q", msgs[0].ID, job.ReasonMaxRetriesExceeded))

	count, err := mr.ZCard(deadKey)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestBackend_PeriodicFireIsClaimedOnce(t *testing.T) {
	t.Parallel()
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	entry := job.PeriodicEntry{WorkerName: "tick", CronExpr: "* * * * * *", Fingerprint: 42}
	fireAt := time.Now().Truncate(time.Second)

	ok1, err := backend.EnqueuePeriodicIfAbsent(ctx, entry, fireAt)
	require.NoError(t, err)
	require.True(t, ok1)

	ok2, err := backend.EnqueuePeriodicIfAbsent(ctx, entry, fireAt)
	require.NoError(t, err)
	require.False(t, ok2)
}

func TestBackend_SyncPeriodicEntries_PrunesStale(t *testing.T) {
	t.Parallel()
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	kept := job.PeriodicEntry{WorkerName: "kept", CronExpr: "* * * * * *", Fingerprint: 1}
	stale := job.PeriodicEntry{WorkerName: "stale", CronExpr: "* * * * * *", Fingerprint: 2}

	require.NoError(t, backend.SyncPeriodicEntries(ctx, []job.PeriodicEntry{kept, stale}, job.StaleCleanupAutoStale))
	require.NoError(t, backend.SyncPeriodicEntries(ctx, []job.PeriodicEntry{kept}, job.StaleCleanupAutoStale))

	fields, err := backend.client.HKeys(ctx, periodicKey).Result()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"1"}, fields)
}

func TestBackend_ListQueues(t *testing.T) {
	t.Parallel()
	backend, _ := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Enqueue(ctx, "echo", 1, job.InQueue("alpha")))
	require.NoError(t, backend.Enqueue(ctx, "echo", 1, job.InQueue("beta")))

	names, err := backend.ListQueues(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alpha", "beta"}, names)
}

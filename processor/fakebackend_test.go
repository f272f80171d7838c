package processor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrymomot/taskforge/job"
)

// fakeBackend is a minimal in-memory job.BackendQueue + job.Enqueuer used
// to exercise Scheduler and PeriodicDriver without a real Postgres or
// Redis instance.
type fakeBackend struct {
	mu      sync.Mutex
	queues  map[string][]job.ReadMessage
	acked   []string
	nacked  []string
	archived []string
	claims  map[string]bool
	seq     int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		queues: make(map[string][]job.ReadMessage),
		claims: make(map[string]bool),
	}
}

func (f *fakeBackend) EnsureQueue(ctx context.Context, queue string) error { return nil }

func (f *fakeBackend) Read(ctx context.Context, queue string, visibility time.Duration, batch int) ([]job.ReadMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msgs := f.queues[queue]
	if len(msgs) == 0 {
		return nil, nil
	}
	if batch > len(msgs) {
		batch = len(msgs)
	}
	out := msgs[:batch]
	f.queues[queue] = msgs[batch:]
	return out, nil
}

func (f *fakeBackend) Ack(ctx context.Context, queue string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeBackend) NackRetry(ctx context.Context, queue string, id string, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, id)
	return nil
}

func (f *fakeBackend) Archive(ctx context.Context, queue string, id string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived = append(f.archived, id+":"+reason)
	return nil
}

func (f *fakeBackend) ListQueues(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.queues))
	for name := range f.queues {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeBackend) EnqueuePeriodicIfAbsent(ctx context.Context, entry job.PeriodicEntry, fireAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := entry.WorkerName + fireAt.String()
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

func (f *fakeBackend) SyncPeriodicEntries(ctx context.Context, entries []job.PeriodicEntry, policy job.StaleCleanupPolicy) error {
	return nil
}

func (f *fakeBackend) Close() error { return nil }

// push seeds queue with a ready-to-dispatch message framing workerName/args.
func (f *fakeBackend) push(queue, workerName string, args any) {
	raw, _ := json.Marshal(args)
	j, _ := job.NewJob(workerName, raw)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.queues[queue] = append(f.queues[queue], job.ReadMessage{ID: j.Metadata.ID, Job: j, Attempt: 0})
}

// job.Enqueuer: only Enqueue is exercised by PeriodicDriver in tests.
func (f *fakeBackend) Enqueue(ctx context.Context, workerName string, args any, opts ...job.EnqueueOption) error {
	queue, _, _, periodic := job.ResolvePeriodic("default", opts...)
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	var j job.Job
	if periodic != nil {
		j, err = job.NewPeriodicJob(workerName, raw, *periodic)
	} else {
		j, err = job.NewJob(workerName, raw)
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[queue] = append(f.queues[queue], job.ReadMessage{ID: j.Metadata.ID, Job: j})
	return nil
}

func (f *fakeBackend) EnqueueDelayed(ctx context.Context, workerName string, args any, delay time.Duration, opts ...job.EnqueueOption) error {
	return f.Enqueue(ctx, workerName, args, opts...)
}

func (f *fakeBackend) EnqueueBatch(ctx context.Context, workerName string, args []any, opts ...job.EnqueueOption) error {
	for _, a := range args {
		if err := f.Enqueue(ctx, workerName, a, opts...); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeBackend) EnqueueBatchDelayed(ctx context.Context, workerName string, args []any, delay time.Duration, opts ...job.EnqueueOption) error {
	return f.EnqueueBatch(ctx, workerName, args, opts...)
}

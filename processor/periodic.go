package processor

import (
	"container/heap"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dmitrymomot/taskforge/job"
	pkglogger "github.com/dmitrymomot/taskforge/pkg/logger"
)

// PeriodicDriver fires registered periodic entries on their cron schedule,
// claiming each fire atomically against the backend before enqueuing so
// only one process in a fleet ever wins a given (fingerprint, fire time)
// pair. Entries are ordered by next-fire time in a container/heap priority
// queue, reheapified after each fire with the entry's next occurrence.
type PeriodicDriver struct {
	backend  job.BackendQueue
	enqueuer job.Enqueuer
	registry *job.PeriodicRegistry
	metrics  *Metrics
	logger   *slog.Logger

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

// NewPeriodicDriver builds a PeriodicDriver. enqueuer and backend are
// typically the same concrete value (job/pgqueue.Backend or
// job/redisqueue.Backend implements both interfaces).
func NewPeriodicDriver(backend job.BackendQueue, enqueuer job.Enqueuer, registry *job.PeriodicRegistry, metrics *Metrics, logger *slog.Logger) *PeriodicDriver {
	if logger == nil {
		logger = pkglogger.NewNope()
	}
	return &PeriodicDriver{
		backend:  backend,
		enqueuer: enqueuer,
		registry: registry,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

type fireHeapItem struct {
	fireAt   time.Time
	entryIdx int
}

type fireHeap []fireHeapItem

func (h fireHeap) Len() int            { return len(h) }
func (h fireHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h fireHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *fireHeap) Push(x any)         { *h = append(*h, x.(fireHeapItem)) }
func (h *fireHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Run blocks, firing due entries until ctx is cancelled. With no registered
// entries it simply waits for cancellation.
func (d *PeriodicDriver) Run(ctx context.Context) error {
	entries := d.registry.Entries()
	if len(entries) == 0 {
		<-ctx.Done()
		return nil
	}

	h := &fireHeap{}
	heap.Init(h)
	now := d.now()
	for i, e := range entries {
		heap.Push(h, fireHeapItem{fireAt: e.Schedule.Next(now), entryIdx: i})
	}

	for {
		top := (*h)[0]
		wait := top.fireAt.Sub(d.now())
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}

		item := heap.Pop(h).(fireHeapItem)
		entry := entries[item.entryIdx]
		d.fire(ctx, entry, item.fireAt)

		heap.Push(h, fireHeapItem{fireAt: entry.Schedule.Next(item.fireAt), entryIdx: item.entryIdx})
	}
}

func (d *PeriodicDriver) fire(ctx context.Context, entry job.PeriodicEntry, fireAt time.Time) {
	claimed, err := d.backend.EnqueuePeriodicIfAbsent(ctx, entry, fireAt)
	if err != nil {
		d.logger.ErrorContext(ctx, "processor: periodic claim failed",
			slog.String("worker", entry.WorkerName), slog.Any("error", err))
		return
	}
	if !claimed {
		d.logger.DebugContext(ctx, "processor: periodic fire already claimed by another process",
			slog.String("worker", entry.WorkerName))
		return
	}

	var args any = json.RawMessage(entry.Args)
	cfg := job.PeriodicConfig{Hash: entry.Fingerprint, Schedule: entry.CronExpr}

	if err := d.enqueuer.Enqueue(ctx, entry.WorkerName, args, job.WithPeriodicConfig(cfg)); err != nil {
		d.logger.ErrorContext(ctx, "processor: periodic enqueue failed",
			slog.String("worker", entry.WorkerName), slog.Any("error", err))
		return
	}

	if d.metrics != nil {
		d.metrics.PeriodicFiresTotal.WithLabelValues(entry.WorkerName).Inc()
	}
}

package processor

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/taskforge/archive"
	"github.com/dmitrymomot/taskforge/job"
	pkglogger "github.com/dmitrymomot/taskforge/pkg/logger"
)

// Scheduler runs the fetch/dispatch loop against a job.BackendQueue and
// job.WorkerRegistry: numWorkers fetcher goroutines each poll their
// balance-strategy's queue order, dispatch through the registry, and
// resolve the outcome into Ack, NackRetry, or Archive.
type Scheduler struct {
	backend  job.BackendQueue
	registry *job.WorkerRegistry
	strategy BalanceStrategy
	metrics  *Metrics
	logger   *slog.Logger
	archiver *archive.Buffer

	numWorkers   int
	pollInterval time.Duration
	visibility   time.Duration
	readBatch    int
}

// SchedulerOption configures a Scheduler beyond ProcessorConfig's fields.
type SchedulerOption func(*Scheduler)

// WithVisibility overrides the visibility window passed to BackendQueue.Read.
// Must exceed the slowest registered worker's MaxDuration.
func WithVisibility(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.visibility = d
		}
	}
}

// WithReadBatch sets how many messages a single Read call requests.
func WithReadBatch(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.readBatch = n
		}
	}
}

// WithArchiver attaches a cold-storage buffer: every Archive outcome is
// additionally recorded through it, independent of the backend's own
// terminal store. Optional; a nil archiver (the default) skips this
// entirely.
func WithArchiver(buf *archive.Buffer) SchedulerOption {
	return func(s *Scheduler) {
		s.archiver = buf
	}
}

// NewScheduler builds a Scheduler from a resolved job.ProcessorConfig.
func NewScheduler(backend job.BackendQueue, registry *job.WorkerRegistry, cfg job.ProcessorConfig, metrics *Metrics, opts ...SchedulerOption) (*Scheduler, error) {
	strategy, err := NewBalanceStrategy(cfg.BalanceStrategy, cfg.Queues)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = pkglogger.NewNope()
	}

	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	visibility := cfg.DefaultWorkerConf.MaxDuration + 10*time.Second
	if visibility <= 10*time.Second {
		visibility = job.DefaultMaxDuration + 10*time.Second
	}

	s := &Scheduler{
		backend:      backend,
		registry:     registry,
		strategy:     strategy,
		metrics:      metrics,
		logger:       logger,
		numWorkers:   numWorkers,
		pollInterval: time.Duration(cfg.PollInterval) * time.Millisecond,
		visibility:   visibility,
		readBatch:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// duePromoter is implemented by backends (job/redisqueue.Backend) whose
// scheduled/retry entries live in a separate store and must be promoted
// onto their target queue once due, the Redis analogue of pgmq's
// visibility-timeout expiry. job/pgqueue.Backend does not implement this:
// pgmq's own visibility window handles re-delivery without help.
type duePromoter interface {
	PromoteDue(ctx context.Context) (int, error)
}

// Run launches numWorkers fetcher goroutines plus, when the backend
// implements duePromoter, a single promotion loop shared across all of
// them. It blocks until ctx is cancelled or one fetcher returns a fatal
// error; sibling fetchers drain on cancellation via errgroup's shared
// context.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.numWorkers; i++ {
		g.Go(func() error {
			return s.fetchLoop(gctx)
		})
	}
	if promoter, ok := s.backend.(duePromoter); ok {
		g.Go(func() error {
			return s.promoteLoop(gctx, promoter)
		})
	}
	return g.Wait()
}

// promoteLoop calls PromoteDue once per pollInterval tick until ctx is
// cancelled. A single loop serves every fetcher goroutine; PromoteDue's
// own ZRem-based claim makes concurrent callers (e.g. a second Scheduler
// instance in another process) safe without coordination here.
func (s *Scheduler) promoteLoop(ctx context.Context, promoter duePromoter) error {
	for {
		if _, err := promoter.PromoteDue(ctx); err != nil {
			s.logger.ErrorContext(ctx, "processor: promote due entries failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.pollInterval):
		}
	}
}

func (s *Scheduler) fetchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		dispatched, err := s.sweep(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "processor: sweep failed", slog.Any("error", err))
		}
		if dispatched {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.pollInterval):
		}
	}
}

// sweep tries each queue in the strategy's order, stopping at the first
// queue that yields messages.
func (s *Scheduler) sweep(ctx context.Context) (bool, error) {
	for _, queue := range s.strategy.Order() {
		msgs, err := s.backend.Read(ctx, queue, s.visibility, s.readBatch)
		if err != nil {
			return false, err
		}
		if len(msgs) == 0 {
			continue
		}
		for _, msg := range msgs {
			s.dispatch(ctx, queue, msg)
		}
		return true, nil
	}
	return false, nil
}

func (s *Scheduler) dispatch(ctx context.Context, queue string, msg job.ReadMessage) {
	dctx := job.ContextWithJobID(ctx, msg.ID)
	start := time.Now()
	outcome := s.registry.Dispatch(dctx, msg.Job.Metadata.WorkerName, msg.Job.Args)
	latency := time.Since(start)

	if s.metrics != nil {
		s.metrics.JobsDispatchedTotal.WithLabelValues(outcome.Outcome.String()).Inc()
		s.metrics.JobDurationSeconds.WithLabelValues(msg.Job.Metadata.WorkerName).Observe(latency.Seconds())
	}

	var err error
	switch outcome.Outcome {
	case job.OutcomeSuccess:
		err = s.backend.Ack(ctx, queue, msg.ID)
	case job.OutcomePermanent:
		err = s.backend.Archive(ctx, queue, msg.ID, outcome.Reason)
		s.recordArchive(ctx, queue, msg, outcome.Reason)
	case job.OutcomeRetry:
		policy, ok := s.registry.RetryPolicy(msg.Job.Metadata.WorkerName)
		if !ok {
			policy = job.NewRetryPolicy(job.DefaultMaxRetries)
		}
		if delay, retry := policy.Next(msg.Attempt); retry {
			err = s.backend.NackRetry(ctx, queue, msg.ID, delay)
		} else {
			err = s.backend.Archive(ctx, queue, msg.ID, job.ReasonMaxRetriesExceeded)
			s.recordArchive(ctx, queue, msg, job.ReasonMaxRetriesExceeded)
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "processor: failed to resolve dispatch outcome",
			slog.String("worker", msg.Job.Metadata.WorkerName), slog.String("queue", queue), slog.Any("error", err))
	}
}

func (s *Scheduler) recordArchive(ctx context.Context, queue string, msg job.ReadMessage, reason string) {
	if s.archiver == nil {
		return
	}
	s.archiver.Add(ctx, archive.Record{
		JobID:      msg.ID,
		Queue:      queue,
		WorkerName: msg.Job.Metadata.WorkerName,
		Outcome:    job.OutcomePermanent.String(),
		Reason:     reason,
		Attempt:    msg.Attempt,
		Args:       msg.Job.Args,
		ArchivedAt: time.Now(),
	})
}

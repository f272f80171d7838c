package processor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/taskforge/job"
	pkglogger "github.com/dmitrymomot/taskforge/pkg/logger"
)

// Service composes a Scheduler and a PeriodicDriver into a single
// before-run/run lifecycle: BeforeRun ensures every declared queue exists
// and syncs the periodic registry into the backend; Run launches both
// loops and blocks until its context is cancelled, then waits up to the
// configured shutdown grace period for in-flight dispatches to finish.
type Service struct {
	backend  job.BackendQueue
	enqueuer job.Enqueuer
	builder  *job.Builder

	scheduler *Scheduler
	periodic  *PeriodicDriver
	metrics   *Metrics
	logger    *slog.Logger

	shutdownGrace time.Duration

	started atomic.Bool
	draining atomic.Bool
}

// NewService wires a backend (implementing both job.BackendQueue and
// job.Enqueuer — job/pgqueue.Backend and job/redisqueue.Backend both do)
// against the registrations accumulated on builder. schedOpts is forwarded
// to NewScheduler, letting callers attach e.g. WithArchiver.
func NewService(backend job.BackendQueue, enqueuer job.Enqueuer, builder *job.Builder, metrics *Metrics, schedOpts ...SchedulerOption) (*Service, error) {
	logger := builder.Config.Logger
	if logger == nil {
		logger = pkglogger.NewNope()
	}

	scheduler, err := NewScheduler(backend, builder.Registry, builder.Config, metrics, schedOpts...)
	if err != nil {
		return nil, err
	}
	periodic := NewPeriodicDriver(backend, enqueuer, builder.Periodic, metrics, logger)

	grace := time.Duration(builder.Config.ShutdownGraceMS) * time.Millisecond
	if grace <= 0 {
		grace = 30 * time.Second
	}

	return &Service{
		backend:       backend,
		enqueuer:      enqueuer,
		builder:       builder,
		scheduler:     scheduler,
		periodic:      periodic,
		metrics:       metrics,
		logger:        logger,
		shutdownGrace: grace,
	}, nil
}

// BeforeRun ensures every declared queue exists and persists the current
// periodic registrations, applying the configured stale-cleanup policy to
// fingerprints no longer registered. Must run exactly once, before Run.
func (s *Service) BeforeRun(ctx context.Context) error {
	for _, q := range s.builder.Registry.QueueNames() {
		if err := s.backend.EnsureQueue(ctx, q); err != nil {
			return errors.Join(job.ErrBackendSetup, err)
		}
	}

	entries := s.builder.Periodic.Entries()
	if err := s.backend.SyncPeriodicEntries(ctx, entries, s.builder.Config.StaleCleanup); err != nil {
		return errors.Join(job.ErrBackendSetup, err)
	}
	return nil
}

// Run launches the Scheduler and PeriodicDriver and blocks until ctx is
// cancelled. Run is not reentrant: calling it twice concurrently returns
// job.ErrAlreadyStarted.
func (s *Service) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return job.ErrAlreadyStarted
	}
	defer s.started.Store(false)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.scheduler.Run(gctx) })
	g.Go(func() error { return s.periodic.Run(gctx) })

	<-ctx.Done()
	s.draining.Store(true)

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(s.shutdownGrace):
		s.logger.WarnContext(ctx, "processor: shutdown grace period elapsed with fetchers still draining")
		return job.ErrShutdownGraceElapsed
	}
}

// Healthcheck reports unhealthy while neither started nor draining; while
// started it returns the backend check's result, and once draining begins
// it reports healthy without calling the backend check, avoiding a
// readiness flap during a normal shutdown.
func (s *Service) Healthcheck(backendCheck func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if s.draining.Load() {
			return nil
		}
		if !s.started.Load() {
			return job.ErrNotStarted
		}
		return backendCheck(ctx)
	}
}

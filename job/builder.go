package job

import (
	"context"
	"log/slog"
)

// ProcessorConfig is the resolved runtime configuration shared by both
// backends: global pool size, per-queue overrides, balance strategy,
// polling cadence, and stale-cleanup policy. The processor package defines
// BalanceStrategy; it is referenced here only by name to avoid an import
// cycle (processor depends on job, not the reverse).
type ProcessorConfig struct {
	NumWorkers        int
	Queues            []QueueDescriptor
	BalanceStrategy   string
	PollInterval      int64 // milliseconds
	ShutdownGraceMS   int64
	StaleCleanup      StaleCleanupPolicy
	DefaultWorkerConf WorkerConfig
	DefaultQueue      string
	Logger            *slog.Logger
}

// DefaultProcessorConfig returns the package defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		NumWorkers:        10,
		BalanceStrategy:   "round-robin",
		PollInterval:      250,
		ShutdownGraceMS:   30_000,
		StaleCleanup:      StaleCleanupAutoStale,
		DefaultWorkerConf: DefaultWorkerConfig(),
		DefaultQueue:      "default",
	}
}

// Builder accumulates worker and periodic-worker registrations that a
// processor.Service is built from, whichever backend (job/pgqueue or
// job/redisqueue) it runs against. OnRegister adds hooks run on every
// registration; neither backend in this module installs one.
type Builder struct {
	Registry         *WorkerRegistry
	Periodic         *PeriodicRegistry
	Config           ProcessorConfig
	registerNatives  []func(name string, e Executor)
}

// NewBuilder creates an empty Builder seeded with default processor config.
func NewBuilder() *Builder {
	return &Builder{
		Registry: NewWorkerRegistry(),
		Periodic: NewPeriodicRegistry(),
		Config:   DefaultProcessorConfig(),
	}
}

// RegisterWorker wraps a structurally-typed worker into an Executor and
// registers it under its own name and queue. queue falls back to the
// builder's configured default queue when empty.
func RegisterWorker[P any, W interface {
	Name() string
	Handle(context.Context, P) error
}](b *Builder, worker W, queue string, cfg *WorkerConfig) error {
	resolved := ResolveWorkerConfig(b.Config.DefaultWorkerConf, cfg)
	executor := NewWorkerWrapper[P, W](worker, resolved, b.Config.Logger)

	if queue == "" {
		queue = b.Config.DefaultQueue
	}
	retry := NewRetryPolicy(resolved.MaxRetries)
	if err := b.Registry.Register(worker.Name(), executor, EnqueueConfig{Queue: queue}, retry); err != nil {
		return err
	}
	for _, hook := range b.registerNatives {
		hook(worker.Name(), executor)
	}
	return nil
}

// RegisterPeriodicWorker wraps a structurally-typed periodic worker
// (Name/Schedule/Handle(ctx)) into the periodic registry and the regular
// worker registry (periodic fires are dispatched through the same
// Executor path as any other job).
func RegisterPeriodicWorker[W interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](b *Builder, worker W, args any, queue string, cfg *WorkerConfig) error {
	adapter := periodicAdapter[W]{worker: worker}
	resolved := ResolveWorkerConfig(b.Config.DefaultWorkerConf, cfg)
	executor := NewWorkerWrapper[struct{}, periodicAdapter[W]](adapter, resolved, b.Config.Logger)

	if queue == "" {
		queue = b.Config.DefaultQueue
	}
	retry := NewRetryPolicy(resolved.MaxRetries)
	if err := b.Registry.Register(worker.Name(), executor, EnqueueConfig{Queue: queue}, retry); err != nil {
		return err
	}
	for _, hook := range b.registerNatives {
		hook(worker.Name(), executor)
	}

	_, err := b.Periodic.Register(worker.Name(), worker.Schedule(), args)
	return err
}

// OnRegister adds a hook invoked for every registered worker, letting a
// backend attach its own native worker object (e.g. Sidekiq-style
// processor registration).
func (b *Builder) OnRegister(hook func(name string, e Executor)) {
	b.registerNatives = append(b.registerNatives, hook)
}

// periodicAdapter adapts a (Name, Schedule, Handle(ctx)) worker to the
// (Name, Handle(ctx, P)) shape NewWorkerWrapper expects, with P fixed to an
// empty struct since periodic args are supplied separately to the
// registry, not deserialized by the handler itself.
type periodicAdapter[W interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}] struct {
	worker W
}

func (a periodicAdapter[W]) Name() string { return a.worker.Name() }

func (a periodicAdapter[W]) Handle(ctx context.Context, _ struct{}) error {
	return a.worker.Handle(ctx)
}

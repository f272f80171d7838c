package job

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// RegisterIntoBackend is the shape of a hook that attaches a backend's own
// native worker object (e.g. a Sidekiq-style processor registration) at
// registration time, the same shape Builder.OnRegister accepts. Neither
// backend in this module installs such a hook. The registry itself stays
// backend-agnostic.
type RegisterIntoBackend func(name string, executor Executor)

// WorkerRegistry maps worker name to its Executor. Duplicate registration
// is a programmer error and returns ErrAlreadyRegistered.
type WorkerRegistry struct {
	mu        sync.RWMutex
	executors map[string]Executor
	queues    map[string]EnqueueConfig
	retries   map[string]RetryPolicy
}

// NewWorkerRegistry creates an empty registry.
func NewWorkerRegistry() *WorkerRegistry {
	return &WorkerRegistry{
		executors: make(map[string]Executor),
		queues:    make(map[string]EnqueueConfig),
		retries:   make(map[string]RetryPolicy),
	}
}

// Register adds an executor under name with its resolved enqueue config and
// retry policy. The retry policy is consulted by the processor package only
// on OutcomeRetry; it is irrelevant to Success/Permanent outcomes.
func (r *WorkerRegistry) Register(name string, executor Executor, cfg EnqueueConfig, retry RetryPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	if cfg.Queue == "" {
		return fmt.Errorf("%w: %s", ErrNoQueue, name)
	}
	r.executors[name] = executor
	r.queues[name] = cfg
	r.retries[name] = retry
	return nil
}

// RetryPolicy returns the resolved retry policy registered under name.
func (r *WorkerRegistry) RetryPolicy(name string) (RetryPolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.retries[name]
	return p, ok
}

// Get returns the executor registered under name.
func (r *WorkerRegistry) Get(name string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[name]
	return e, ok
}

// Queue returns the resolved enqueue config registered under name.
func (r *WorkerRegistry) Queue(name string) (EnqueueConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.queues[name]
	return c, ok
}

// Names returns all registered worker names.
func (r *WorkerRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Collect(maps.Keys(r.executors))
}

// QueueNames returns the distinct set of queue names declared by
// registered workers, in no particular order.
func (r *WorkerRegistry) QueueNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, cfg := range r.queues {
		seen[cfg.Queue] = struct{}{}
	}
	return slices.Collect(maps.Keys(seen))
}

// Dispatch looks up name and, on a hit, calls the executor; on a miss it
// returns a permanent "unknown_worker" outcome without touching any
// handler or retry state, satisfying the unknown-worker isolation
// invariant.
func (r *WorkerRegistry) Dispatch(ctx context.Context, name string, rawArgs []byte) DispatchOutcome {
	executor, ok := r.Get(name)
	if !ok {
		return DispatchOutcome{
			Outcome: OutcomePermanent,
			Reason:  ReasonUnknownWorker,
			Err:     fmt.Errorf("%w: %s", ErrUnknownWorker, name),
		}
	}
	return executor.Call(ctx, rawArgs)
}

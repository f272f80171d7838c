package job

import "time"

// Default worker configuration values, matching the framework's Rust
// original (see AppWorkerConfig in the source this module was distilled
// from).
const (
	DefaultMaxRetries  = 5
	DefaultTimeout     = true
	DefaultMaxDuration = 60 * time.Second
)

// WorkerConfig holds the resolved, per-worker runtime configuration.
// A worker inherits the processor-wide default unless its registration
// (RegisterWorker / RegisterPeriodicWorker) passes an override — see
// [ResolveWorkerConfig].
type WorkerConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first
	// failure before the job is archived permanently.
	MaxRetries uint32

	// Timeout enables enforcement of MaxDuration on the handler.
	Timeout bool

	// MaxDuration is the maximum duration a handler may run when Timeout
	// is true.
	MaxDuration time.Duration

	// DisableArgumentCoercion, when true, makes the WorkerWrapper use a
	// strict JSON decode (DisallowUnknownFields) instead of the default
	// lenient decode. Carried from the original Rust source's
	// AppWorkerConfig; spec.md's distillation omitted it.
	DisableArgumentCoercion bool
}

// DefaultWorkerConfig returns the processor-wide defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxRetries:  DefaultMaxRetries,
		Timeout:     DefaultTimeout,
		MaxDuration: DefaultMaxDuration,
	}
}

// ResolveWorkerConfig merges a processor-wide default with an optional
// per-worker override, following the original source's per-worker
// AppWorkerConfig override pattern: a zero MaxRetries or MaxDuration in
// override falls back to the corresponding default field, while the
// boolean fields Timeout and DisableArgumentCoercion are always taken from
// override.
func ResolveWorkerConfig(defaults WorkerConfig, override *WorkerConfig) WorkerConfig {
	if override == nil {
		return defaults
	}
	resolved := defaults
	if override.MaxRetries != 0 {
		resolved.MaxRetries = override.MaxRetries
	}
	resolved.Timeout = override.Timeout
	if override.MaxDuration != 0 {
		resolved.MaxDuration = override.MaxDuration
	}
	resolved.DisableArgumentCoercion = override.DisableArgumentCoercion
	return resolved
}

// EnqueueConfig holds the resolved, per-worker enqueue-time configuration.
type EnqueueConfig struct {
	// Queue is the queue name the worker is registered under (the
	// processor-wide default when the registration names none); the
	// processor ensures it exists before run. The Enqueuer implementations
	// in job/pgqueue and job/redisqueue do not read it: an enqueue call
	// names its queue with InQueue.
	Queue string
}

// QueueDescriptor names a queue and, optionally, a dedicated fetcher pool
// size. When NumWorkers is non-zero that many fetchers are dedicated
// exclusively to this queue; otherwise the queue participates in the
// shared pool.
type QueueDescriptor struct {
	Name       string
	NumWorkers int
}

// StaleCleanupPolicy controls how a PeriodicRegistry reconciles its
// in-memory entries against fingerprints persisted by a prior deployment.
type StaleCleanupPolicy int

const (
	// StaleCleanupManual never prunes stale periodic entries.
	StaleCleanupManual StaleCleanupPolicy = iota

	// StaleCleanupAutoAll prunes every persisted fingerprint not present in
	// the current in-memory registry, even entries that may belong to
	// another deployment still rolling out.
	StaleCleanupAutoAll

	// StaleCleanupAutoStale is the default policy. Both backends in this
	// module (job/pgqueue, job/redisqueue) apply it exactly as
	// StaleCleanupAutoAll: every persisted fingerprint absent from the
	// current registry is removed, with no distinction for entries another
	// deployment still registers.
	StaleCleanupAutoStale
)

// ParseStaleCleanupPolicy parses the config surface's dot-path string
// values ("manual", "auto-clean-all", "auto-clean-stale").
func ParseStaleCleanupPolicy(s string) (StaleCleanupPolicy, error) {
	switch s {
	case "", "auto-clean-stale":
		return StaleCleanupAutoStale, nil
	case "manual":
		return StaleCleanupManual, nil
	case "auto-clean-all":
		return StaleCleanupAutoAll, nil
	default:
		return StaleCleanupAutoStale, errInvalidStaleCleanupPolicy
	}
}

package job

import "errors"

// Enqueue errors.
var (
	// ErrNoBackend names an enqueue of a worker name that no processor
	// backend has registered. No Enqueuer in this module returns it: the
	// backends do not check worker registration, and report a missing
	// queue with ErrNoQueue.
	ErrNoBackend = errors.New("job: no backend configured for worker")

	// ErrNoQueue is returned when a worker has no queue configured, either
	// on the worker itself or as a processor-wide default.
	ErrNoQueue = errors.New("job: no queue configured")

	// ErrSerde is returned when job args fail to marshal or unmarshal.
	ErrSerde = errors.New("job: serialization error")

	// ErrBackendIO is returned when the backend driver fails to push, read,
	// ack, or archive a job.
	ErrBackendIO = errors.New("job: backend I/O error")
)

// Processor / registration errors.
var (
	// ErrAlreadyRegistered is returned when a worker name is registered
	// more than once.
	ErrAlreadyRegistered = errors.New("job: worker already registered")

	// ErrAlreadyRegisteredPeriodic is returned when the same periodic
	// fingerprint (worker name, schedule, and args) is registered twice.
	ErrAlreadyRegisteredPeriodic = errors.New("job: periodic entry already registered")

	// ErrBackendSetup is returned when a backend fails to initialize its
	// queues or periodic store during before-run setup.
	ErrBackendSetup = errors.New("job: backend setup failed")

	// ErrCron is returned when a cron expression fails to parse.
	ErrCron = errors.New("job: invalid cron schedule")

	// ErrPoolRequired is returned when a backend is constructed without a
	// required connection pool or client.
	ErrPoolRequired = errors.New("job: connection pool is required")

	// ErrAlreadyStarted is returned by processor.Service.Run when that
	// Service is already running.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned by the check processor.Service.Healthcheck
	// builds while the Service is neither running nor draining.
	ErrNotStarted = errors.New("job: not started")

	// ErrShutdownGraceElapsed is returned by Run when the configured
	// shutdown grace period elapses before all in-flight dispatches
	// finished draining. Handlers that ignore context cancellation keep
	// running in the background; Run itself no longer waits for them.
	ErrShutdownGraceElapsed = errors.New("job: shutdown grace period elapsed")
)

// ErrUnknownWorker is returned (internally, as an archive reason) when a
// dispatched job's worker name has no matching registration. It is exported
// so tests and telemetry consumers can compare against it with errors.Is.
var ErrUnknownWorker = errors.New("job: unknown worker")

// ErrInvalidPayload is returned when a job's args cannot be deserialized
// into the worker's argument type.
var ErrInvalidPayload = errors.New("job: invalid payload")

// ErrPoolTooSmall is returned by pkg/config's Validate when the configured
// Redis worker count exceeds the fetch pool's max connections, which would
// otherwise deadlock fetchers waiting on a free connection.
var ErrPoolTooSmall = errors.New("job: worker count exceeds connection pool size")

var errInvalidStaleCleanupPolicy = errors.New("job: invalid stale cleanup policy")

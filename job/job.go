package job

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Job is the wire unit exchanged between an Enqueuer and a BackendQueue. It
// is the exact shape persisted by both the Postgres and the Redis backend,
// and the compatibility contract between producers and consumers across
// process restarts and across backend choice.
type Job struct {
	Metadata JobMetadata     `json:"metadata"`
	Args     json.RawMessage `json:"args"`
}

// JobMetadata carries the identifying information for a Job.
type JobMetadata struct {
	// ID is a time-ordered UUIDv7 string. Never reused; a periodic job gets
	// a fresh ID on every scheduled enqueue.
	ID string `json:"id"`

	// WorkerName must resolve to exactly one registered worker at dispatch
	// time. An unresolvable name causes the job to be archived with reason
	// "unknown_worker" rather than retried.
	WorkerName string `json:"worker_name"`

	// Periodic is set only on jobs produced by the PeriodicDriver.
	Periodic *PeriodicConfig `json:"periodic,omitempty"`
}

// PeriodicConfig identifies the periodic registration that produced a job.
type PeriodicConfig struct {
	// Hash is the stable fingerprint of {worker_name, schedule, canonical(args)}.
	Hash uint64 `json:"hash"`

	// Schedule is the canonical cron expression string.
	Schedule string `json:"schedule"`
}

// NewJob frames args under the given worker name with a fresh UUIDv7 ID.
func NewJob(workerName string, args json.RawMessage) (Job, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Job{}, err
	}
	return Job{
		Metadata: JobMetadata{
			ID:         id.String(),
			WorkerName: workerName,
		},
		Args: args,
	}, nil
}

// NewPeriodicJob frames args produced by the PeriodicDriver, tagging the
// job with the periodic fingerprint that caused it to fire.
func NewPeriodicJob(workerName string, args json.RawMessage, cfg PeriodicConfig) (Job, error) {
	j, err := NewJob(workerName, args)
	if err != nil {
		return Job{}, err
	}
	j.Metadata.Periodic = &cfg
	return j, nil
}

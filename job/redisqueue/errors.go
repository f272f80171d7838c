package redisqueue

import "errors"

var (
	// ErrCorruptEnvelope names a dequeued payload that does not parse as a
	// Sidekiq envelope wrapping a taskforge Job. Read does not return it:
	// such payloads are logged and moved to the dead set with
	// job.ReasonDeserialize.
	ErrCorruptEnvelope = errors.New("redisqueue: corrupt envelope")

	// ErrWorkingEntryNotFound is returned when Ack/NackRetry/Archive is
	// called with an id no longer present in the working list (already
	// acked, or not read through this Backend instance).
	ErrWorkingEntryNotFound = errors.New("redisqueue: working entry not found")
)

package pgqueue

import "errors"

var (
	// ErrQueueSetup is returned when pgmq.create fails during EnsureQueue.
	ErrQueueSetup = errors.New("pgqueue: queue setup failed")

	// ErrPeriodicTableSetup is returned when the periodic_jobs table
	// cannot be reconciled during SyncPeriodicEntries.
	ErrPeriodicTableSetup = errors.New("pgqueue: periodic table setup failed")
)

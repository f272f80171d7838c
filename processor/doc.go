// Package processor drives the fetch/dispatch loop and the periodic cron
// driver shared by both job backends. It depends only on job.BackendQueue
// and job.WorkerRegistry/PeriodicRegistry, never on a concrete backend, so
// the same Scheduler runs unmodified against job/pgqueue or job/redisqueue.
//
// Scheduler owns a pool of fetcher goroutines coordinated with
// golang.org/x/sync/errgroup: each fetcher polls its assigned queue(s)
// according to a BalanceStrategy, dispatches through the WorkerRegistry, and
// resolves the outcome into an Ack, a delayed NackRetry, or a terminal
// Archive. PeriodicDriver runs a container/heap-ordered priority queue of
// due times and claims each fire through BackendQueue.EnqueuePeriodicIfAbsent
// before enqueuing, giving fleet-wide single-firing regardless of how many
// processes share the periodic registry.
//
// Service composes both into a before-run/run lifecycle: before-run ensures
// queues exist and syncs the periodic registry; run launches the Scheduler
// and PeriodicDriver and blocks until its context is cancelled, then waits
// up to ShutdownGraceMS for in-flight dispatches to finish.
package processor

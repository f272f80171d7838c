// Package pgqueue implements a job.BackendQueue and job.Enqueuer on top of
// the pgmq Postgres extension, driven directly through jackc/pgx/v5 rather
// than through an embedded queue library. Each queue name maps to a pair
// of pgmq-managed tables (pgmq.q_<queue>, pgmq.a_<queue>); visibility
// timeouts and at-least-once delivery are provided by pgmq's own
// send/read/archive/delete SQL functions.
//
// A small taskforge-owned table, periodic_jobs, tracks known periodic
// registrations by fingerprint; it is created by the migrations embedded
// in this package (see Migrate) alongside the pgmq extension itself.
//
// # Usage
//
//	pool, err := db.Open(ctx, dsn)
//	backend, err := pgqueue.New(pool, pgqueue.WithLogger(logger))
//	enqueuer := backend // Backend implements job.Enqueuer too
//
//	err = enqueuer.Enqueue(ctx, "send_welcome", SendWelcomePayload{UserID: id}, job.InQueue("default"))
//
// Handlers run under a processor.Scheduler fed by backend.Read; see the
// processor package for dispatch/retry/periodic wiring.
package pgqueue

// Package job defines the backend-agnostic core of taskforge: the wire
// representation of a unit of work, the typed Worker contract, the registries
// that back it, and the retry policy dispatchers consult on failure.
//
// A taskforge worker is any type that exposes Name() and a typed Handle
// method — no interface import is required, the package uses structural
// typing:
//
//	type SendWelcome struct {
//	    mailer mail.Mailer
//	}
//
//	func (w *SendWelcome) Name() string { return "send_welcome" }
//
//	func (w *SendWelcome) Handle(ctx context.Context, p SendWelcomePayload) error {
//	    return w.mailer.Send(ctx, "welcome", p.Email)
//	}
//
//	type SendWelcomePayload struct {
//	    Email string `json:"email"`
//	}
//
// Periodic workers additionally implement Schedule() returning a cron
// expression (seconds precision is supported but not required):
//
//	func (w *CleanupSessions) Schedule() string { return "0 * * * *" }
//
// Workers are registered through a [Builder] (RegisterWorker,
// RegisterPeriodicWorker), which owns the WorkerRegistry and
// PeriodicRegistry; this package only defines the shapes the backends and
// the processor share.
//
// # Job Framing
//
// Every enqueued unit of work is framed as a [Job]: a [JobMetadata] (ID,
// worker name, optional periodic fingerprint) plus an opaque JSON args
// payload. Both backends serialize this exact shape — it is the
// compatibility contract between producers and consumers across process
// restarts and across backend choice.
//
// # Retry and Failure
//
// [RetryPolicy] computes the next visibility delay from an attempt count.
// Permanent failures (deserialize errors, unknown workers, panics by
// default, retries exhausted) are archived with a reason string rather than
// retried; see [DispatchOutcome].
//
// # Fleet-Wide Periodic Dedup
//
// [PeriodicRegistry] fingerprints each (worker name, schedule, args) triple
// with a stable 64-bit hash via [Fingerprint]. The processor enqueues
// periodic fires atomically against the fingerprint plus a fire-time
// bucket, so N processes registering the same periodic definition only
// produce one dispatched job per tick.
package job

package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Executor is the type-erased shape a WorkerWrapper exposes to the
// registry and the dispatcher. Concrete instances are produced by
// [NewWorkerWrapper]; nothing outside this package constructs one by hand.
type Executor interface {
	// Call deserializes rawArgs into the worker's argument type, runs the
	// handler (subject to timeout and panic recovery), and classifies the
	// result.
	Call(ctx context.Context, rawArgs json.RawMessage) DispatchOutcome

	// Name returns the registered worker name.
	Name() string
}

// workerWrapper adapts a typed handler of shape
//
//	Name() string
//	Handle(context.Context, P) error
//
// into a type-erased [Executor]. The registry stores Executors only; it
// never sees the argument type P.
type workerWrapper[P any, W interface {
	Name() string
	Handle(context.Context, P) error
}] struct {
	worker W
	cfg    WorkerConfig
	logger *slog.Logger

	// onComplete is invoked, best-effort, on Success and Permanent outcomes
	// only — never on Retry. Failures are logged but never change the
	// outcome.
	onComplete func(ctx context.Context, id string, outcome DispatchOutcome)
}

// NewWorkerWrapper builds an [Executor] for a structurally-typed worker.
func NewWorkerWrapper[P any, W interface {
	Name() string
	Handle(context.Context, P) error
}](worker W, cfg WorkerConfig, logger *slog.Logger) Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &workerWrapper[P, W]{worker: worker, cfg: cfg, logger: logger}
}

// WithOnComplete attaches a best-effort completion hook to an Executor
// produced by NewWorkerWrapper. It is a no-op on Executors of an
// unexpected concrete type.
func WithOnComplete(e Executor, hook func(ctx context.Context, id string, outcome DispatchOutcome)) {
	if setter, ok := e.(interface {
		setOnComplete(func(context.Context, string, DispatchOutcome))
	}); ok {
		setter.setOnComplete(hook)
	}
}

func (w *workerWrapper[P, W]) setOnComplete(hook func(context.Context, string, DispatchOutcome)) {
	w.onComplete = hook
}

func (w *workerWrapper[P, W]) Name() string { return w.worker.Name() }

func (w *workerWrapper[P, W]) Call(ctx context.Context, rawArgs json.RawMessage) DispatchOutcome {
	start := time.Now()
	id := dispatchID(ctx)

	w.logger.DebugContext(ctx, "worker started", slog.String("worker", w.Name()), slog.String("id", id))

	var args P
	if len(rawArgs) > 0 {
		dec := json.NewDecoder(bytes.NewReader(rawArgs))
		if w.cfg.DisableArgumentCoercion {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&args); err != nil {
			outcome := DispatchOutcome{Outcome: OutcomePermanent, Reason: ReasonDeserialize, Err: err}
			w.complete(ctx, id, outcome)
			return outcome
		}
	}

	outcome := w.invoke(ctx, args)
	latency := time.Since(start)

	switch outcome.Outcome {
	case OutcomeSuccess:
		w.logger.DebugContext(ctx, "worker succeeded",
			slog.String("worker", w.Name()), slog.String("id", id), slog.Duration("latency", latency))
	default:
		w.logger.WarnContext(ctx, "worker failed",
			slog.String("worker", w.Name()), slog.String("id", id), slog.String("reason", outcome.Reason))
	}

	w.complete(ctx, id, outcome)
	return outcome
}

func (w *workerWrapper[P, W]) invoke(ctx context.Context, args P) (outcome DispatchOutcome) {
	runCtx := ctx
	var cancel context.CancelFunc
	if w.cfg.Timeout {
		runCtx, cancel = context.WithTimeout(ctx, w.cfg.MaxDuration)
		defer cancel()
	}

	done := make(chan DispatchOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- DispatchOutcome{
					Outcome: OutcomePermanent,
					Reason:  ReasonPanic,
					Err:     fmt.Errorf("worker %s panicked: %v", w.Name(), r),
				}
			}
		}()

		if err := w.worker.Handle(runCtx, args); err != nil {
			done <- DispatchOutcome{Outcome: OutcomeRetry, Reason: handlerErrorReason(err.Error()), Err: err}
			return
		}
		done <- DispatchOutcome{Outcome: OutcomeSuccess}
	}()

	select {
	case outcome = <-done:
		return outcome
	case <-runCtx.Done():
		if w.cfg.Timeout && runCtx.Err() != nil {
			return DispatchOutcome{Outcome: OutcomeRetry, Reason: ReasonTimeout, Err: runCtx.Err()}
		}
		// Parent context cancelled (shutdown), not our own timeout: surface
		// as a retry so the message redelivers after visibility expiry.
		return DispatchOutcome{Outcome: OutcomeRetry, Reason: ReasonTimeout, Err: runCtx.Err()}
	}
}

func (w *workerWrapper[P, W]) complete(ctx context.Context, id string, outcome DispatchOutcome) {
	if w.onComplete == nil || outcome.Outcome == OutcomeRetry {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.WarnContext(ctx, "on_complete hook panicked",
				slog.String("worker", w.Name()), slog.Any("recovered", r))
		}
	}()
	w.onComplete(ctx, id, outcome)
}

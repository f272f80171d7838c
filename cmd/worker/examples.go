package main

import (
	"context"
	"log/slog"
)

// heartbeatWorker is a periodic worker registered against both backends to
// demonstrate fleet-wide deduplicated periodic dispatch; replace with real
// periodic jobs (cleanup sweeps, digest emails) in a production deployment.
type heartbeatWorker struct {
	logger *slog.Logger
}

func (w heartbeatWorker) Name() string     { return "heartbeat" }
func (w heartbeatWorker) Schedule() string { return "*/30 * * * * *" }

func (w heartbeatWorker) Handle(ctx context.Context) error {
	w.logger.InfoContext(ctx, "worker.handle", slog.String("worker", w.Name()))
	return nil
}

// sendEmailArgs is the payload for sendEmailWorker.
type sendEmailArgs struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// sendEmailWorker simulates dispatching a transactional email.
type sendEmailWorker struct {
	logger *slog.Logger
}

func (w sendEmailWorker) Name() string { return "send_email" }

func (w sendEmailWorker) Handle(ctx context.Context, args sendEmailArgs) error {
	w.logger.InfoContext(ctx, "worker.handle",
		slog.String("worker", w.Name()), slog.String("to", args.To), slog.String("subject", args.Subject))
	return nil
}

// processDataArgs is the payload for processDataWorker.
type processDataArgs struct {
	Dataset string `json:"dataset"`
}

// processDataWorker simulates a longer-running batch job.
type processDataWorker struct {
	logger *slog.Logger
}

func (w processDataWorker) Name() string { return "process_data" }

func (w processDataWorker) Handle(ctx context.Context, args processDataArgs) error {
	w.logger.InfoContext(ctx, "worker.handle", slog.String("worker", w.Name()), slog.String("dataset", args.Dataset))
	return nil
}

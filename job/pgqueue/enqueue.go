package pgqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/taskforge/job"
)

// Enqueue frames args under workerName and pushes them to queue with zero
// visibility delay via pgmq.send.
func (b *Backend) Enqueue(ctx context.Context, workerName string, args any, opts ...job.EnqueueOption) error {
	return b.EnqueueDelayed(ctx, workerName, args, 0, opts...)
}

// EnqueueDelayed is Enqueue with an initial invisibility window, via
// pgmq.send's delay parameter.
func (b *Backend) EnqueueDelayed(ctx context.Context, workerName string, args any, delay time.Duration, opts ...job.EnqueueOption) error {
	queue, _, _, periodic := job.ResolvePeriodic("", opts...)
	if queue == "" {
		return fmt.Errorf("%w: %s", job.ErrNoQueue, workerName)
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrSerde, err)
	}

	var j job.Job
	if periodic != nil {
		j, err = job.NewPeriodicJob(workerName, raw, *periodic)
	} else {
		j, err = job.NewJob(workerName, raw)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrSerde, err)
	}

	payload, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrSerde, err)
	}

	if err := b.EnsureQueue(ctx, queue); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}

	var msgID int64
	delaySeconds := int(delay.Round(time.Second).Seconds())
	row := b.pool.QueryRow(ctx, `select pgmq.send($1, $2::jsonb, $3)`, queue, payload, delaySeconds)
	if err := row.Scan(&msgID); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}

	b.logger.DebugContext(ctx, "pgqueue: job enqueued",
		slog.String("worker", workerName), slog.String("id", j.Metadata.ID), slog.Int64("msg_id", msgID))
	return nil
}

// EnqueueBatch frames N jobs and sends them in a single pgmq.send_batch call.
func (b *Backend) EnqueueBatch(ctx context.Context, workerName string, args []any, opts ...job.EnqueueOption) error {
	return b.EnqueueBatchDelayed(ctx, workerName, args, 0, opts...)
}

// EnqueueBatchDelayed is EnqueueBatch with a shared initial delay.
func (b *Backend) EnqueueBatchDelayed(ctx context.Context, workerName string, args []any, delay time.Duration, opts ...job.EnqueueOption) error {
	queue, _, _ := job.ResolveEnqueueOptions("", opts...)
	if queue == "" {
		return fmt.Errorf("%w: %s", job.ErrNoQueue, workerName)
	}
	if len(args) == 0 {
		return nil
	}

	payloads := make([][]byte, 0, len(args))
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("%w: %w", job.ErrSerde, err)
		}
		j, err := job.NewJob(workerName, raw)
		if err != nil {
			return fmt.Errorf("%w: %w", job.ErrSerde, err)
		}
		p, err := json.Marshal(j)
		if err != nil {
			return fmt.Errorf("%w: %w", job.ErrSerde, err)
		}
		payloads = append(payloads, p)
	}

	if err := b.EnsureQueue(ctx, queue); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}

	delaySeconds := int(delay.Round(time.Second).Seconds())
	rows, err := b.pool.Query(ctx, `select pgmq.send_batch($1, $2::jsonb[], $3)`, queue, payloads, delaySeconds)
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	b.logger.DebugContext(ctx, "pgqueue: batch enqueued",
		slog.String("worker", workerName), slog.Int("count", count))
	return rows.Err()
}

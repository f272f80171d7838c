package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/taskforge/job"
)

// Enqueue frames args under workerName and pushes the envelope onto
// queue:{Q} with LPush, matching how a real Sidekiq client enqueues work.
func (b *Backend) Enqueue(ctx context.Context, workerName string, args any, opts ...job.EnqueueOption) error {
	return b.EnqueueDelayed(ctx, workerName, args, 0, opts...)
}

// EnqueueDelayed is Enqueue with an initial delay: the envelope goes onto
// the schedule sorted set, scored at now+delay, and is promoted onto its
// queue by PromoteDue once due.
func (b *Backend) EnqueueDelayed(ctx context.Context, workerName string, args any, delay time.Duration, opts ...job.EnqueueOption) error {
	queue, _, tags, periodic := job.ResolvePeriodic("", opts...)
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

	env := newEnvelope(j, queue, true, tags)
	payload, err := env.marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrSerde, err)
	}

	if delay <= 0 {
		if err := b.client.LPush(ctx, queueKey(queue), payload).Err(); err != nil {
			return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
		}
	} else {
		score := float64(time.Now().Add(delay).Unix())
		if err := b.client.ZAdd(ctx, scheduleKey, redis.Z{Score: score, Member: payload}).Err(); err != nil {
			return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
		}
	}

	b.logger.DebugContext(ctx, "redisqueue: job enqueued",
		slog.String("worker", workerName), slog.String("id", j.Metadata.ID), slog.String("queue", queue))
	return nil
}

// EnqueueBatch frames N jobs and pushes each separately: Redis has no
// native batched-enqueue primitive the way pgmq's send_batch does, so this
// pipelines the individual LPush calls instead.
func (b *Backend) EnqueueBatch(ctx context.Context, workerName string, args []any, opts ...job.EnqueueOption) error {
	return b.EnqueueBatchDelayed(ctx, workerName, args, 0, opts...)
}

// EnqueueBatchDelayed is EnqueueBatch with a shared initial delay.
func (b *Backend) EnqueueBatchDelayed(ctx context.Context, workerName string, args []any, delay time.Duration, opts ...job.EnqueueOption) error {
	queue, _, tags := job.ResolveEnqueueOptions("", opts...)
	if queue == "" {
		return fmt.Errorf("%w: %s", job.ErrNoQueue, workerName)
	}
	if len(args) == 0 {
		return nil
	}

	pipe := b.client.Pipeline()
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("%w: %w", job.ErrSerde, err)
		}
		j, err := job.NewJob(workerName, raw)
		if err != nil {
			return fmt.Errorf("%w: %w", job.ErrSerde, err)
		}
		env := newEnvelope(j, queue, true, tags)
		payload, err := env.marshal()
		if err != nil {
			return fmt.Errorf("%w: %w", job.ErrSerde, err)
		}

		if delay <= 0 {
			pipe.LPush(ctx, queueKey(queue), payload)
		} else {
			score := float64(time.Now().Add(delay).Unix())
			pipe.ZAdd(ctx, scheduleKey, redis.Z{Score: score, Member: payload})
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	b.logger.DebugContext(ctx, "redisqueue: batch enqueued",
		slog.String("worker", workerName), slog.Int("count", len(args)))
	return nil
}

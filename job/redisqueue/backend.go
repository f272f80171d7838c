package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/taskforge/job"
)

// Backend implements job.BackendQueue and job.Enqueuer on top of a
// Sidekiq-compatible Redis keyspace, driven through go-redis/v9.
//
// Redis has no native visibility-timeout primitive the way pgmq does, so
// this backend tracks in-flight messages itself: Read moves an envelope
// from queue:{Q} into queue:{Q}:working with BRPopLPush, and remembers the
// raw bytes under the envelope's jid so Ack/NackRetry/Archive know what to
// remove. A process crash between Read and Ack leaves the entry stuck in
// the working list; reclaiming those is the operator's job today (requeue
// from queue:{Q}:working), not something this backend automates.
type Backend struct {
	client redis.UniversalClient
	logger *slog.Logger

	blockTimeout time.Duration
	claimTTL     time.Duration

	mu       sync.Mutex
	inFlight map[string][]byte // jid -> raw envelope bytes currently in a working list
}

// New creates a Redis-backed Backend. client must already be connected (see
// pkg/redis.Open).
func New(client redis.UniversalClient, opts ...Option) (*Backend, error) {
	if client == nil {
		return nil, job.ErrPoolRequired
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Backend{
		client:       client,
		logger:       o.logger,
		blockTimeout: o.blockTimeout,
		claimTTL:     o.claimTTL,
		inFlight:     make(map[string][]byte),
	}, nil
}

// EnsureQueue is a no-op beyond validating the name: Redis lists spring
// into existence on first push, so there is no schema to create up front.
func (b *Backend) EnsureQueue(ctx context.Context, queue string) error {
	if queue == "" {
		return fmt.Errorf("%w: empty queue name", job.ErrNoQueue)
	}
	return nil
}

// Read pops up to batch envelopes off queue:{Q}, atomically moving each
// into queue:{Q}:working via BRPopLPush. Only the first pop blocks, for up
// to the configured block timeout; the rest drain non-blocking so a
// partially-full queue still returns promptly. visibility is accepted for
// interface symmetry with pgqueue but is currently advisory only — see the
// package doc.
func (b *Backend) Read(ctx context.Context, queue string, visibility time.Duration, batch int) ([]job.ReadMessage, error) {
	if batch <= 0 {
		batch = 1
	}

	src, dst := queueKey(queue), workingKey(queue)
	var out []job.ReadMessage

	for i := 0; i < batch; i++ {
		var raw string
		var err error
		if i == 0 {
			raw, err = b.client.BRPopLPush(ctx, src, dst, b.blockTimeout).Result()
		} else {
			raw, err = b.client.RPopLPush(ctx, src, dst).Result()
		}
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
		}

		env, perr := parseEnvelope([]byte(raw))
		if perr != nil {
			b.logger.ErrorContext(ctx, "redisqueue: malformed envelope, archiving",
				slog.String("queue", queue), slog.Any("error", perr))
			if rerr := b.client.LRem(ctx, dst, 1, raw).Err(); rerr != nil {
				b.logger.WarnContext(ctx, "redisqueue: failed to drop malformed envelope", slog.Any("error", rerr))
			}
			if derr := b.pushDead(ctx, raw, job.ReasonDeserialize); derr != nil {
				b.logger.WarnContext(ctx, "redisqueue: failed to archive malformed envelope", slog.Any("error", derr))
			}
			continue
		}

		b.mu.Lock()
		b.inFlight[env.JID] = []byte(raw)
		b.mu.Unlock()

		out = append(out, job.ReadMessage{
			ID:      env.JID,
			Job:     env.Args[0],
			Attempt: env.RetryCount,
		})
	}

	return out, nil
}

// Ack removes the message from the working list permanently: Sidekiq has
// no concept of an ack-with-history archive, so the envelope is simply
// discarded.
func (b *Backend) Ack(ctx context.Context, queue string, id string) error {
	raw, ok := b.takeInFlight(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWorkingEntryNotFound, id)
	}
	if err := b.client.LRem(ctx, workingKey(queue), 1, raw).Err(); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return nil
}

// NackRetry moves the message from the working list into the retry sorted
// set, scored at now+delay, exactly where a real Sidekiq retry lands.
func (b *Backend) NackRetry(ctx context.Context, queue string, id string, delay time.Duration) error {
	raw, ok := b.takeInFlight(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWorkingEntryNotFound, id)
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrSerde, err)
	}
	env.RetryCount++
	bumped, err := env.marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrSerde, err)
	}

	score := float64(time.Now().Add(delay).Unix())
	pipe := b.client.TxPipeline()
	pipe.LRem(ctx, workingKey(queue), 1, raw)
	pipe.ZAdd(ctx, retryKey, redis.Z{Score: score, Member: bumped})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return nil
}

// Archive moves the message from the working list into the dead sorted
// set, stamped with reason, matching Sidekiq's own dead-set convention.
func (b *Backend) Archive(ctx context.Context, queue string, id string, reason string) error {
	raw, ok := b.takeInFlight(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWorkingEntryNotFound, id)
	}

	pipe := b.client.TxPipeline()
	pipe.LRem(ctx, workingKey(queue), 1, raw)
	if err := b.queueDead(ctx, pipe, raw, reason); err != nil {
		return err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return nil
}

// queueDead stamps an archive reason onto raw and appends a ZAdd for the
// dead set onto pipe, without executing it.
func (b *Backend) queueDead(ctx context.Context, pipe redis.Pipeliner, raw []byte, reason string) error {
	env, err := parseEnvelope(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrSerde, err)
	}
	env.Tags = append(env.Tags, "archive_reason:"+reason)
	stamped, err := env.marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrSerde, err)
	}
	pipe.ZAdd(ctx, deadKey, redis.Z{Score: float64(time.Now().Unix()), Member: stamped})
	return nil
}

// pushDead is Archive's non-pipelined counterpart, used for envelopes that
// never made it into inFlight (malformed payloads found during Read).
func (b *Backend) pushDead(ctx context.Context, raw string, reason string) error {
	env, err := parseEnvelope([]byte(raw))
	if err != nil {
		// Not even a parseable envelope: store it verbatim so the payload
		// is not lost, without pretending it has envelope shape.
		return b.client.ZAdd(ctx, deadKey, redis.Z{
			Score: float64(time.Now().Unix()), Member: raw,
		}).Err()
	}
	env.Tags = append(env.Tags, "archive_reason:"+reason)
	stamped, err := env.marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", job.ErrSerde, err)
	}
	return b.client.ZAdd(ctx, deadKey, redis.Z{Score: float64(time.Now().Unix()), Member: stamped}).Err()
}

func (b *Backend) takeInFlight(id string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.inFlight[id]
	if ok {
		delete(b.inFlight, id)
	}
	return raw, ok
}

// ListQueues returns the queue names this backend knows about: the union
// of keys currently backing a queue:{Q} list plus any empty queues
// registered only via EnsureQueue (which, for Redis, is none — so this is
// simply a scan over the queue:* keyspace).
func (b *Backend) ListQueues(ctx context.Context) ([]string, error) {
	var names []string
	var cursor uint64
	for {
		keys, next, err := b.client.Scan(ctx, cursor, "queue:*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
		}
		for _, k := range keys {
			name := k[len("queue:"):]
			if name == "" || hasWorkingSuffix(name) {
				continue
			}
			names = append(names, name)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return names, nil
}

func hasWorkingSuffix(name string) bool {
	const suffix = ":working"
	return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
}

// PromoteDue moves entries from the schedule and retry sorted sets whose
// score has elapsed back onto their target queue:{Q} list. It is not part
// of job.BackendQueue: the processor's Scheduler calls it once per poll
// tick, the Redis analogue of pgmq's own visibility-timeout expiry.
func (b *Backend) PromoteDue(ctx context.Context) (int, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	total := 0
	for _, key := range [...]string{scheduleKey, retryKey} {
		for {
			members, err := b.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
				Min: "-inf", Max: now, Offset: 0, Count: 1,
			}).Result()
			if err != nil {
				return total, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
			}
			if len(members) == 0 {
				break
			}
			raw := members[0]

			removed, err := b.client.ZRem(ctx, key, raw).Result()
			if err != nil {
				return total, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
			}
			if removed == 0 {
				// another process already promoted this entry
				continue
			}

			env, err := parseEnvelope([]byte(raw))
			if err != nil {
				b.logger.ErrorContext(ctx, "redisqueue: dropping malformed scheduled envelope", slog.Any("error", err))
				continue
			}
			if err := b.client.LPush(ctx, queueKey(env.Queue), raw).Err(); err != nil {
				return total, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
			}
			total++
		}
	}
	return total, nil
}

// Close releases the Redis client. The client is typically owned (and
// closed) by the caller via pkg/redis; Close here is a no-op safeguard for
// symmetry with job.BackendQueue's contract.
func (b *Backend) Close() error {
	return nil
}

package pgqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/taskforge/job"
)

// queueNamePattern restricts queue names to the charset pgmq itself
// accepts for its generated table names (pgmq.q_<name>/pgmq.a_<name>):
// lowercase letters, digits, and underscores.
var queueNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Backend implements job.BackendQueue and job.Enqueuer on top of the pgmq
// Postgres extension, called directly through pgx.
type Backend struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	batch  int

	mu      sync.Mutex
	ensured map[string]struct{}
}

// New creates a pgmq-backed Backend. pool must already be connected (see
// pkg/db.Open).
func New(pool *pgxpool.Pool, opts ...Option) (*Backend, error) {
	if pool == nil {
		return nil, job.ErrPoolRequired
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Backend{
		pool:    pool,
		logger:  o.logger,
		batch:   o.readBatchSize,
		ensured: make(map[string]struct{}),
	}, nil
}

// EnsureQueue runs pgmq.create once per distinct queue name. pgmq.create
// is itself tolerant of a pre-existing queue in recent versions; we still
// memoize per-process to avoid a round trip on every call.
func (b *Backend) EnsureQueue(ctx context.Context, queue string) error {
	if !queueNamePattern.MatchString(queue) {
		return fmt.Errorf("%w: invalid queue name %q", ErrQueueSetup, queue)
	}

	b.mu.Lock()
	_, done := b.ensured[queue]
	b.mu.Unlock()
	if done {
		return nil
	}

	if _, err := b.pool.Exec(ctx, `select pgmq.create($1)`, queue); err != nil {
		return fmt.Errorf("%w: %w", ErrQueueSetup, err)
	}

	b.mu.Lock()
	b.ensured[queue] = struct{}{}
	b.mu.Unlock()
	return nil
}

// Read atomically marks up to batch visible messages invisible for
// visibility and returns them, via pgmq.read.
func (b *Backend) Read(ctx context.Context, queue string, visibility time.Duration, batch int) ([]job.ReadMessage, error) {
	if batch <= 0 {
		batch = b.batch
	}
	vtSeconds := int(visibility.Round(time.Second).Seconds())

	rows, err := b.pool.Query(ctx, `select msg_id, read_ct, message from pgmq.read($1, $2, $3)`, queue, vtSeconds, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	defer rows.Close()

	var out []job.ReadMessage
	for rows.Next() {
		var msgID int64
		var readCt int32
		var raw []byte
		if err := rows.Scan(&msgID, &readCt, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
		}

		var j job.Job
		if err := json.Unmarshal(raw, &j); err != nil {
			// Malformed rows cannot be retried meaningfully; archive with
			// reason rather than crash the fetcher.
			b.logger.ErrorContext(ctx, "pgqueue: malformed message, archiving",
				slog.String("queue", queue), slog.Int64("msg_id", msgID), slog.Any("error", err))
			_ = b.Archive(ctx, queue, fmtMsgID(msgID), job.ReasonDeserialize)
			continue
		}

		// pgmq increments read_ct on every read, so the first delivery
		// reads 1; Attempt is 0-indexed.
		attempt := uint32(0)
		if readCt > 0 {
			attempt = uint32(readCt - 1)
		}
		out = append(out, job.ReadMessage{
			ID:      fmtMsgID(msgID),
			Job:     j,
			Attempt: attempt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return out, nil
}

// Ack archives the message via pgmq.archive, moving it from the queue
// table to the archive table rather than deleting it.
func (b *Backend) Ack(ctx context.Context, queue string, id string) error {
	msgID, err := parseMsgID(id)
	if err != nil {
		return err
	}
	if _, err := b.pool.Exec(ctx, `select pgmq.archive($1, $2::bigint)`, queue, msgID); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return nil
}

// NackRetry resets the message's visibility timer via pgmq.set_vt without
// touching read_ct, which pgmq increments on every read regardless.
func (b *Backend) NackRetry(ctx context.Context, queue string, id string, delay time.Duration) error {
	msgID, err := parseMsgID(id)
	if err != nil {
		return err
	}
	offset := int(delay.Round(time.Second).Seconds())
	if _, err := b.pool.Exec(ctx, `select pgmq.set_vt($1, $2::bigint, $3)`, queue, msgID, offset); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return nil
}

// Archive stamps the message with an archive reason and moves it to the
// archive table immediately, regardless of attempt count. pgmq has no
// native reason column, so the reason is folded into the message JSON
// before archiving, preserved for audit history in pgmq.a_<queue>.
func (b *Backend) Archive(ctx context.Context, queue string, id string, reason string) error {
	if !queueNamePattern.MatchString(queue) {
		return fmt.Errorf("%w: invalid queue name %q", ErrQueueSetup, queue)
	}
	msgID, err := parseMsgID(id)
	if err != nil {
		return err
	}

	_, err = b.pool.Exec(ctx, `
		update pgmq.q_`+queue+`
		set message = jsonb_set(coalesce(message, '{}'::jsonb), '{_archive_reason}', to_jsonb($1::text), true)
		where msg_id = $2`, reason, msgID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		b.logger.WarnContext(ctx, "pgqueue: failed to stamp archive reason", slog.Any("error", err))
	}

	if _, err := b.pool.Exec(ctx, `select pgmq.archive($1, $2::bigint)`, queue, msgID); err != nil {
		return fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	return nil
}

// ListQueues returns the queue names pgmq currently tracks.
func (b *Backend) ListQueues(ctx context.Context) ([]string, error) {
	rows, err := b.pool.Query(ctx, `select queue_name from pgmq.list_queues()`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %w", job.ErrBackendIO, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close releases the pgxpool. The pool is typically owned (and closed) by
// the caller via pkg/db.Shutdown; Close here is a no-op safeguard for
// symmetry with job.BackendQueue's contract.
func (b *Backend) Close() error {
	return nil
}

func fmtMsgID(id int64) string {
	return fmt.Sprintf("%d", id)
}

func parseMsgID(id string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(id, "%d", &n)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed message id %q: %w", job.ErrBackendIO, id, err)
	}
	return n, nil
}

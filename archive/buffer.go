package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/taskforge/pkg/logger"
)

// Buffer accumulates Records in memory and flushes them through an
// Exporter once BatchSize records have been added or FlushInterval has
// elapsed, whichever comes first, mirroring the manager-side batch
// accumulation that fed the long-term-archive exporters.
type Buffer struct {
	exporter      Exporter
	logger        *slog.Logger
	batchSize     int
	flushInterval time.Duration

	mu      sync.Mutex
	pending []Record
}

// BufferOption configures a Buffer beyond its required Exporter.
type BufferOption func(*Buffer)

// WithBatchSize sets how many records accumulate before an automatic flush.
func WithBatchSize(n int) BufferOption {
	return func(b *Buffer) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithFlushInterval sets the maximum time a record waits before an
// automatic flush, regardless of batch size.
func WithFlushInterval(d time.Duration) BufferOption {
	return func(b *Buffer) {
		if d > 0 {
			b.flushInterval = d
		}
	}
}

// WithBufferLogger sets the buffer's logger.
func WithBufferLogger(l *slog.Logger) BufferOption {
	return func(b *Buffer) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuffer builds a Buffer flushing through exporter.
func NewBuffer(exporter Exporter, opts ...BufferOption) *Buffer {
	b := &Buffer{
		exporter:      exporter,
		logger:        logger.NewNope(),
		batchSize:     100,
		flushInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add appends a Record, flushing immediately if the batch size threshold
// is reached.
func (b *Buffer) Add(ctx context.Context, record Record) {
	b.mu.Lock()
	b.pending = append(b.pending, record)
	full := len(b.pending) >= b.batchSize
	b.mu.Unlock()

	if full {
		if err := b.Flush(ctx); err != nil {
			b.logger.ErrorContext(ctx, "archive: flush failed", slog.Any("error", err))
		}
	}
}

// Flush exports whatever is currently pending, if anything.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return nil
	}
	records := b.pending
	b.pending = nil
	b.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	return b.exporter.Export(ctx, Batch{ID: id.String(), Records: records})
}

// Run flushes on a timer until ctx is cancelled, then makes a final
// best-effort flush before returning.
func (b *Buffer) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return b.Flush(context.WithoutCancel(ctx))
		case <-ticker.C:
			if err := b.Flush(ctx); err != nil {
				b.logger.ErrorContext(ctx, "archive: periodic flush failed", slog.Any("error", err))
			}
		}
	}
}

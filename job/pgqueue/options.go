package pgqueue

import (
	"log/slog"

	"github.com/dmitrymomot/taskforge/pkg/logger"
)

// Option configures a Backend.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	readBatchSize int
}

func defaultOptions() *options {
	return &options{
		logger:        logger.NewNope(),
		readBatchSize: 1,
	}
}

// WithLogger sets the structured logger used for backend events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithReadBatchSize sets the default batch size passed to pgmq.read when
// the scheduler does not request a specific size. Defaults to 1; callers
// with larger worker pools should scale this to min(pool_free, 10) per
// spec guidance.
func WithReadBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readBatchSize = n
		}
	}
}

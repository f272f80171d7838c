package redisqueue

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/taskforge/pkg/logger"
)

// Option configures a Backend.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	blockTimeout time.Duration
	claimTTL     time.Duration
}

func defaultOptions() *options {
	return &options{
		logger:       logger.NewNope(),
		blockTimeout: time.Second,
		claimTTL:     72 * time.Hour,
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

// WithBlockTimeout sets how long the first BRPopLPush in a Read call blocks
// waiting for a message before returning an empty batch. Subsequent pops
// within the same batch never block. Defaults to one second.
func WithBlockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.blockTimeout = d
		}
	}
}

// WithPeriodicClaimTTL sets how long a periodic fire claim (see
// Backend.EnqueuePeriodicIfAbsent) is retained before Redis expires it.
// Must comfortably exceed the longest schedule period in use; defaults to
// 72 hours.
func WithPeriodicClaimTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.claimTTL = d
		}
	}
}

// Package logger provides the structured logger cmd/worker and every
// backend/processor component log through: log/slog with optional Sentry
// error reporting and a shared no-op fallback.
//
// # Overview
//
// The package provides:
//   - Context extractors that automatically inject request-scoped values (e.g., request IDs, user IDs)
//   - A decorator pattern that wraps any slog.Handler to add extraction behavior
//   - Sentry integration for error tracking with graceful fallback when unconfigured
//   - Multi-handler support for routing logs to multiple destinations
//   - [NewNope], a shared discard logger used as the default wherever a
//     component is constructed without an explicit *slog.Logger
//
// # Basic Usage
//
// cmd/worker builds the process-wide logger once, with Sentry reporting
// enabled whenever SENTRY_DSN is set:
//
//	log := logger.NewWithSentry(logger.SentryConfig{
//		DSN:         os.Getenv("SENTRY_DSN"),
//		Environment: envOr("SENTRY_ENVIRONMENT", "production"),
//	})
//
//	log.ErrorContext(ctx, "dispatch failed", slog.String("worker", name), slog.Any("error", err))
//
// If SENTRY_DSN is empty, the logger gracefully falls back to stdout-only
// logging, making it safe to use the same code path in development and
// production.
//
// # No-op Default
//
// Components that accept an optional *slog.Logger (pgqueue.New,
// redisqueue.New, archive.NewBuffer, processor.NewService, pkg/health's
// ReadinessHandler) fall back to [NewNope] when none is given, so logging
// is always safe to call without a nil check:
//
//	log := cfg.Logger
//	if log == nil {
//		log = logger.NewNope()
//	}
//
// # Context Extractors
//
// A ContextExtractor is a function that extracts a log attribute from context:
//
//	type ContextExtractor func(ctx context.Context) (slog.Attr, bool)
//
// Extractors are called on every log call, passed through to NewWithSentry,
// ensuring fresh values for request-scoped data. Return false from the
// extractor to skip adding the attribute for that log entry.
//
// # Handler Decoration
//
// The LogHandlerDecorator can wrap any slog.Handler to add context extraction:
//
//	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	decorated := logger.NewLogHandlerDecorator(jsonHandler, extractors...)
//	log := slog.New(decorated)
//
// # Architecture
//
// Decorator Pattern: LogHandlerDecorator wraps any slog.Handler, intercepting
// Handle calls to inject extracted attributes before delegating to the underlying handler.
//
// Multi-Handler Pattern: an internal multiHandler forwards logs to multiple destinations,
// enabling simultaneous stdout and Sentry logging inside NewWithSentry.
//
// Graceful Degradation: Sentry integration fails gracefully - if DSN is missing or
// initialization fails, logging continues to stdout without disruption.
package logger

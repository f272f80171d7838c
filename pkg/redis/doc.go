// Package redis provides the go-redis client plumbing job/redisqueue builds
// on: a retrying connect, a ping healthcheck, and a shutdown closer.
//
// # Connecting
//
// Open wraps [github.com/redis/go-redis/v9] with pool-size defaults and a
// retrying initial connect/ping, configured through functional options.
// Read/write/dial timeouts are fixed rather than exposed as options: this
// package only ever backs a queue consumer, not a general-purpose client.
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"),
//		redis.WithPoolSize(cfg.FetchPool.MaxConnections),
//		redis.WithMinIdleConns(cfg.FetchPool.MinIdle),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Health checks
//
// [Healthcheck] returns a closure compatible with [pkg/health.CheckFunc]:
//
//	healthFn := redis.Healthcheck(client)
//	if err := healthFn(ctx); err != nil {
//		// client can't reach Redis
//	}
//
// job/redisqueue.Healthcheck wraps this with its own nil-backend guard and
// sentinel before handing it to pkg/health.
//
// # Shutdown
//
// [Shutdown] returns a closer cmd/worker runs once the processor services
// for this backend have drained:
//
//	closers = append(closers, redis.Shutdown(client))
//
// # Error Handling
//
// The package defines sentinel errors for common failure modes:
//
//   - [ErrEmptyConnectionURL] - Empty connection URL provided
//   - [ErrFailedToParseURL] - Invalid connection URL format or scheme
//   - [ErrConnectionFailed] - Connection failed after all retry attempts
//   - [ErrHealthcheckFailed] - Redis ping failed
//
// Errors are wrapped using [errors.Join] to preserve the original error context.
package redis

// Package health provides the liveness/readiness HTTP handlers cmd/worker
// mounts at /livez and /readyz.
//
// # Main Functions
//
// [LivenessHandler] provides a simple always-OK endpoint for process liveness.
// [ReadinessHandler] executes a set of [Checks] and returns service readiness.
//
// # Usage
//
// cmd/worker aggregates one named check per enabled backend — pgqueue's and
// redisqueue's Healthcheck, each further wrapped by
// [github.com/dmitrymomot/taskforge/processor.Service.Healthcheck] so the
// check reports unhealthy only before the service has started draining its
// queue, never mid-shutdown:
//
//	mux.Handle("/livez", health.LivenessHandler())
//	mux.Handle("/readyz", health.ReadinessHandler(health.Checks{
//		"pgqueue":    svc.Healthcheck(pgqueue.Healthcheck(backend)),
//		"redisqueue": svc.Healthcheck(redisqueue.Healthcheck(backend)),
//	}, health.WithLogger(log)))
//
// # Response Formats
//
// By default, handlers respond with plain text for compatibility with probes.
// Request JSON by setting Accept: application/json header or ?format=json:
//
//	curl http://localhost:8080/readyz?format=json
//
// Plain text responses:
//   - 200 OK: "OK"
//   - 503 Service Unavailable: "Service Unavailable"
//
// JSON response structure:
//
//	{
//	  "status": "healthy",
//	  "checks": {
//	    "pgqueue": {"status": "healthy"},
//	    "redisqueue": {"status": "unhealthy", "error": "..."}
//	  }
//	}
//
// # Configuration Options
//
// Configure timeout and logging:
//
//	health.ReadinessHandler(checks,
//	    health.WithTimeout(3*time.Second),
//	    health.WithLogger(log),
//	)
//
// # Error Handling
//
// The package defines sentinel errors for consistent error handling:
//
//   - [ErrCheckFailed] - A check returned an error before its context expired
//   - [ErrCheckTimeout] - A check was still running when its context expired
package health

package job

import "context"

type idContextKey struct{}

// ContextWithJobID returns a context carrying the job ID for logging and
// telemetry purposes. The Scheduler sets this before calling an Executor.
func ContextWithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idContextKey{}, id)
}

func dispatchID(ctx context.Context) string {
	if id, ok := ctx.Value(idContextKey{}).(string); ok {
		return id
	}
	return ""
}

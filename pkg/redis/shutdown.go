package redis

import (
	"context"
	"io"
)

// Shutdown returns a function that closes the Redis client, compatible with
// the closer funcs cmd/worker collects alongside each backend's health
// check and runs after the processor services have drained.
func Shutdown(client io.Closer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Close()
	}
}

package pgqueue

import (
	"context"
	"errors"

	"github.com/dmitrymomot/taskforge/pkg/db"
)

// ErrHealthcheckFailed is returned when the backend health check fails.
var ErrHealthcheckFailed = errors.New("pgqueue: healthcheck failed")

// Healthcheck returns a health check function compatible with
// pkg/health.CheckFunc, delegating the actual ping to pkg/db.Healthcheck.
func Healthcheck(b *Backend) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if b == nil {
			return errors.Join(ErrHealthcheckFailed, errors.New("backend is nil"))
		}
		if err := db.Healthcheck(b.pool)(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskforge/job"
)

var assertErrBoom = errors.New("boom")

func newTestService(t *testing.T) (*Service, *fakeBackend) {
	t.Helper()
	b := job.NewBuilder()
	b.Config = testConfig()
	require.NoError(t, job.RegisterWorker[echoArgs](b, echoWorker{}, "q", nil))

	backend := newFakeBackend()
	svc, err := NewService(backend, backend, b, nil)
	require.NoError(t, err)
	return svc, backend
}

func TestService_BeforeRun_EnsuresQueuesAndSyncsPeriodic(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	require.NoError(t, svc.BeforeRun(context.Background()))
}

func TestService_Healthcheck_NotStartedBeforeRun(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	check := svc.Healthcheck(func(context.Context) error { return nil })
	err := check(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, job.ErrNotStarted)
}

func TestService_Healthcheck_ReflectsBackendCheckOnceStarted(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	require.NoError(t, svc.BeforeRun(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.started.Load() }, time.Second, time.Millisecond)

	check := svc.Healthcheck(func(context.Context) error { return assertErrBoom })
	err := check(context.Background())
	assert.Equal(t, assertErrBoom, err)

	cancel()
	require.NoError(t, <-done)
}

func TestService_Healthcheck_HealthyWhileDraining(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	require.NoError(t, svc.BeforeRun(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	require.Eventually(t, func() bool { return svc.started.Load() }, time.Second, time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return svc.draining.Load() }, time.Second, time.Millisecond)

	check := svc.Healthcheck(func(context.Context) error { return assertErrBoom })
	assert.NoError(t, check(context.Background()), "draining must report healthy regardless of the backend check")

	require.NoError(t, <-done)
}

// blockingWorker never returns on its own, modeling a handler that ignores
// ctx cancellation entirely — dispatch(msg) is not interrupted mid-flight,
// so Run's only way to bound shutdown is the grace deadline, not this
// handler returning.
type blockingWorker struct{ block <-chan struct{} }

func (blockingWorker) Name() string { return "blocking" }

func (w blockingWorker) Handle(ctx context.Context, args echoArgs) error {
	<-w.block
	return nil
}

func TestService_Run_ReturnsAtShutdownGraceDeadlineWhenHandlerIgnoresCancellation(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	b := job.NewBuilder()
	b.Config = testConfig()
	b.Config.ShutdownGraceMS = 50
	require.NoError(t, job.RegisterWorker[echoArgs](b, blockingWorker{block: block}, "q", nil))

	backend := newFakeBackend()
	backend.push("q", "blocking", echoArgs{})
	svc, err := NewService(backend, backend, b, nil)
	require.NoError(t, err)
	require.NoError(t, svc.BeforeRun(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.started.Load() }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond) // let the scheduler pick up and start dispatching the seeded message

	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, job.ErrShutdownGraceElapsed)
		assert.Less(t, time.Since(start), time.Second, "Run must return at the grace deadline, not wait for the blocked handler")
	case <-time.After(time.Second):
		t.Fatal("Run did not return at the shutdown grace deadline")
	}

	close(block)
}

func TestService_Run_RejectsConcurrentStart(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	require.NoError(t, svc.BeforeRun(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	require.Eventually(t, func() bool { return svc.started.Load() }, time.Second, time.Millisecond)

	err := svc.Run(ctx)
	assert.ErrorIs(t, err, job.ErrAlreadyStarted)

	cancel()
	require.NoError(t, <-done)
}

package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskforge/job"
)

type echoArgs struct {
	Fail bool `json:"fail"`
}

type echoWorker struct{}

func (echoWorker) Name() string { return "echo" }

func (echoWorker) Handle(ctx context.Context, args echoArgs) error {
	if args.Fail {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler(t *testing.T, cfg job.ProcessorConfig) (*Scheduler, *job.WorkerRegistry, *fakeBackend) {
	t.Helper()
	b := job.NewBuilder()
	b.Config = cfg
	require.NoError(t, job.RegisterWorker[echoArgs](b, echoWorker{}, "q", nil))

	backend := newFakeBackend()
	sched, err := NewScheduler(backend, b.Registry, b.Config, nil)
	require.NoError(t, err)
	return sched, b.Registry, backend
}

func testConfig() job.ProcessorConfig {
	cfg := job.DefaultProcessorConfig()
	cfg.Queues = []job.QueueDescriptor{{Name: "q"}}
	cfg.BalanceStrategy = "round-robin"
	return cfg
}

func TestScheduler_SweepAcksSuccess(t *testing.T) {
	t.Parallel()
	sched, _, backend := newTestScheduler(t, testConfig())
	ctx := context.Background()

	backend.push("q", "echo", echoArgs{Fail: false})

	dispatched, err := sched.sweep(ctx)
	require.NoError(t, err)
	require.True(t, dispatched)
	require.Len(t, backend.acked, 1)
	require.Empty(t, backend.archived)
}

func TestScheduler_SweepRetriesFailure(t *testing.T) {
	t.Parallel()
	sched, _, backend := newTestScheduler(t, testConfig())
	ctx := context.Background()

	backend.push("q", "echo", echoArgs{Fail: true})

	dispatched, err := sched.sweep(ctx)
	require.NoError(t, err)
	require.True(t, dispatched)
	require.Len(t, backend.nacked, 1)
	require.Empty(t, backend.archived)
}

func TestScheduler_SweepArchivesUnknownWorker(t *testing.T) {
	t.Parallel()
	sched, _, backend := newTestScheduler(t, testConfig())
	ctx := context.Background()

	backend.push("q", "does-not-exist", echoArgs{})

	dispatched, err := sched.sweep(ctx)
	require.NoError(t, err)
	require.True(t, dispatched)
	require.Len(t, backend.archived, 1)
	require.Contains(t, backend.archived[0], job.ReasonUnknownWorker)
}

func TestScheduler_SweepEmptyQueueReturnsFalse(t *testing.T) {
	t.Parallel()
	sched, _, _ := newTestScheduler(t, testConfig())
	dispatched, err := sched.sweep(context.Background())
	require.NoError(t, err)
	require.False(t, dispatched)
}

// promotingFakeBackend embeds fakeBackend and adds PromoteDue, so Run's
// duePromoter type assertion picks it up the way job/redisqueue.Backend
// would in production.
type promotingFakeBackend struct {
	*fakeBackend
	promotions chan struct{}
}

func (p *promotingFakeBackend) PromoteDue(ctx context.Context) (int, error) {
	select {
	case p.promotions <- struct{}{}:
	default:
	}
	return 0, nil
}

func TestScheduler_Run_PromotesDueEntriesWhenBackendSupportsIt(t *testing.T) {
	t.Parallel()

	b := job.NewBuilder()
	b.Config = testConfig()
	b.Config.PollInterval = 1
	require.NoError(t, job.RegisterWorker[echoArgs](b, echoWorker{}, "q", nil))

	backend := &promotingFakeBackend{fakeBackend: newFakeBackend(), promotions: make(chan struct{}, 1)}
	sched, err := NewScheduler(backend, b.Registry, b.Config, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	select {
	case <-backend.promotions:
	case <-time.After(time.Second):
		t.Fatal("PromoteDue was never called")
	}

	cancel()
	require.NoError(t, <-done)
}

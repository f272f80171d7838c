package job

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, name string) Executor {
	t.Helper()
	return NewWorkerWrapper[struct{}](fixedNameWorker{name: name}, DefaultWorkerConfig(), nil)
}

type fixedNameWorker struct{ name string }

func (w fixedNameWorker) Name() string                           { return w.name }
func (w fixedNameWorker) Handle(context.Context, struct{}) error { return nil }

func TestWorkerRegistry_RegisterAndDispatch(t *testing.T) {
	t.Parallel()

	r := NewWorkerRegistry()
	executor := newTestExecutor(t, "greet")
	require.NoError(t, r.Register("greet", executor, EnqueueConfig{Queue: "default"}, NewRetryPolicy(3)))

	outcome := r.Dispatch(context.Background(), "greet", []byte(`{}`))
	assert.Equal(t, OutcomeSuccess, outcome.Outcome)

	cfg, ok := r.Queue("greet")
	require.True(t, ok)
	assert.Equal(t, "default", cfg.Queue)

	policy, ok := r.RetryPolicy("greet")
	require.True(t, ok)
	assert.Equal(t, uint32(3), policy.MaxRetries)
}

func TestWorkerRegistry_DuplicateRegistrationRejected(t *testing.T) {
	t.Parallel()

	r := NewWorkerRegistry()
	executor := newTestExecutor(t, "greet")
	require.NoError(t, r.Register("greet", executor, EnqueueConfig{Queue: "default"}, NewRetryPolicy(3)))

	err := r.Register("greet", executor, EnqueueConfig{Queue: "default"}, NewRetryPolicy(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyRegistered))
}

func TestWorkerRegistry_RegisterRequiresQueue(t *testing.T) {
	t.Parallel()

	r := NewWorkerRegistry()
	executor := newTestExecutor(t, "greet")
	err := r.Register("greet", executor, EnqueueConfig{}, NewRetryPolicy(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoQueue))
}

func TestWorkerRegistry_Dispatch_UnknownWorkerIsPermanentWithoutTouchingRetryState(t *testing.T) {
	t.Parallel()

	r := NewWorkerRegistry()
	outcome := r.Dispatch(context.Background(), "ghost", []byte(`{}`))
	assert.Equal(t, OutcomePermanent, outcome.Outcome)
	assert.Equal(t, ReasonUnknownWorker, outcome.Reason)
	assert.True(t, errors.Is(outcome.Err, ErrUnknownWorker))
}

func TestWorkerRegistry_QueueNames_Deduplicates(t *testing.T) {
	t.Parallel()

	r := NewWorkerRegistry()
	require.NoError(t, r.Register("a", newTestExecutor(t, "a"), EnqueueConfig{Queue: "default"}, NewRetryPolicy(3)))
	require.NoError(t, r.Register("b", newTestExecutor(t, "b"), EnqueueConfig{Queue: "default"}, NewRetryPolicy(3)))
	require.NoError(t, r.Register("c", newTestExecutor(t, "c"), EnqueueConfig{Queue: "emails"}, NewRetryPolicy(3)))

	names := r.QueueNames()
	assert.ElementsMatch(t, []string{"default", "emails"}, names)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, r.Names())
}

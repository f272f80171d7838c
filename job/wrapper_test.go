package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetArgs struct {
	Name string `json:"name"`
}

type greetWorker struct {
	fn func(ctx context.Context, args greetArgs) error
}

func (w greetWorker) Name() string { return "greet" }
func (w greetWorker) Handle(ctx context.Context, args greetArgs) error {
	return w.fn(ctx, args)
}

func TestWorkerWrapper_Success(t *testing.T) {
	t.Parallel()

	called := make(chan greetArgs, 1)
	w := greetWorker{fn: func(_ context.Context, args greetArgs) error {
		called <- args
		return nil
	}}
	executor := NewWorkerWrapper[greetArgs](w, DefaultWorkerConfig(), nil)

	outcome := executor.Call(context.Background(), json.RawMessage(`{"name":"ada"}`))
	assert.Equal(t, OutcomeSuccess, outcome.Outcome)
	assert.Equal(t, "greet", executor.Name())
	assert.Equal(t, greetArgs{Name: "ada"}, <-called)
}

func TestWorkerWrapper_HandlerErrorIsRetry(t *testing.T) {
	t.Parallel()

	w := greetWorker{fn: func(context.Context, greetArgs) error { return errors.New("boom") }}
	executor := NewWorkerWrapper[greetArgs](w, DefaultWorkerConfig(), nil)

	outcome := executor.Call(context.Background(), json.RawMessage(`{}`))
	assert.Equal(t, OutcomeRetry, outcome.Outcome)
	assert.Equal(t, "handler_error: boom", outcome.Reason)
}

func TestWorkerWrapper_PanicIsPermanent(t *testing.T) {
	t.Parallel()

	w := greetWorker{fn: func(context.Context, greetArgs) error { panic("kaboom") }}
	executor := NewWorkerWrapper[greetArgs](w, DefaultWorkerConfig(), nil)

	outcome := executor.Call(context.Background(), json.RawMessage(`{}`))
	assert.Equal(t, OutcomePermanent, outcome.Outcome)
	assert.Equal(t, ReasonPanic, outcome.Reason)
}

func TestWorkerWrapper_DeserializeFailureIsPermanent(t *testing.T) {
	t.Parallel()

	w := greetWorker{fn: func(context.Context, greetArgs) error { return nil }}
	executor := NewWorkerWrapper[greetArgs](w, DefaultWorkerConfig(), nil)

	outcome := executor.Call(context.Background(), json.RawMessage(`not json`))
	assert.Equal(t, OutcomePermanent, outcome.Outcome)
	assert.Equal(t, ReasonDeserialize, outcome.Reason)
}

func TestWorkerWrapper_TimeoutIsRetry(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	w := greetWorker{fn: func(context.Context, greetArgs) error {
		<-block // never unblocks on its own; only the timeout path should resolve the outcome
		return nil
	}}
	cfg := WorkerConfig{Timeout: true, MaxDuration: 10 * time.Millisecond}
	executor := NewWorkerWrapper[greetArgs](w, cfg, nil)

	outcome := executor.Call(context.Background(), json.RawMessage(`{}`))
	assert.Equal(t, OutcomeRetry, outcome.Outcome)
	assert.Equal(t, ReasonTimeout, outcome.Reason)
	close(block)
}

func TestWorkerWrapper_OnCompleteFiresForTerminalOutcomesOnly(t *testing.T) {
	t.Parallel()

	w := greetWorker{fn: func(context.Context, greetArgs) error { return errors.New("boom") }}
	executor := NewWorkerWrapper[greetArgs](w, DefaultWorkerConfig(), nil)

	var fired bool
	WithOnComplete(executor, func(context.Context, string, DispatchOutcome) { fired = true })

	outcome := executor.Call(context.Background(), json.RawMessage(`{}`))
	require.Equal(t, OutcomeRetry, outcome.Outcome)
	assert.False(t, fired, "onComplete must not fire on a retry outcome")

	permanentW := greetWorker{fn: func(context.Context, greetArgs) error { panic("x") }}
	permanentExecutor := NewWorkerWrapper[greetArgs](permanentW, DefaultWorkerConfig(), nil)
	WithOnComplete(permanentExecutor, func(context.Context, string, DispatchOutcome) { fired = true })
	permanentExecutor.Call(context.Background(), json.RawMessage(`{}`))
	assert.True(t, fired, "onComplete must fire on a permanent outcome")
}

func TestWorkerWrapper_StrictDecodeRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	w := greetWorker{fn: func(context.Context, greetArgs) error { return nil }}
	cfg := DefaultWorkerConfig()
	cfg.DisableArgumentCoercion = true
	executor := NewWorkerWrapper[greetArgs](w, cfg, nil)

	outcome := executor.Call(context.Background(), json.RawMessage(`{"name":"ada","extra":1}`))
	assert.Equal(t, OutcomePermanent, outcome.Outcome)
	assert.Equal(t, ReasonDeserialize, outcome.Reason)
}

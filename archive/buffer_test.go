package archive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	mu      sync.Mutex
	batches []Batch
}

func (f *fakeExporter) Export(ctx context.Context, batch Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return nil
}

func TestBuffer_FlushesOnBatchSize(t *testing.T) {
	t.Parallel()

	exp := &fakeExporter{}
	buf := NewBuffer(exp, WithBatchSize(2), WithFlushInterval(time.Hour))
	ctx := context.Background()

	buf.Add(ctx, Record{JobID: "1"})
	buf.Add(ctx, Record{JobID: "2"})

	exp.mu.Lock()
	defer exp.mu.Unlock()
	require.Len(t, exp.batches, 1)
	assert.Len(t, exp.batches[0].Records, 2)
}

func TestBuffer_FlushIsNoOpWhenEmpty(t *testing.T) {
	t.Parallel()

	exp := &fakeExporter{}
	buf := NewBuffer(exp)

	require.NoError(t, buf.Flush(context.Background()))
	assert.Empty(t, exp.batches)
}

func TestBuffer_RunFlushesOnCancel(t *testing.T) {
	t.Parallel()

	exp := &fakeExporter{}
	buf := NewBuffer(exp, WithFlushInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	buf.Add(context.Background(), Record{JobID: "1"})

	done := make(chan error, 1)
	go func() { done <- buf.Run(ctx) }()

	cancel()
	require.NoError(t, <-done)

	exp.mu.Lock()
	defer exp.mu.Unlock()
	require.Len(t, exp.batches, 1)
}

func TestSerializeRecords_ProducesNDJSON(t *testing.T) {
	t.Parallel()

	data, err := serializeRecords([]Record{
		{JobID: "a", Queue: "q", WorkerName: "w", Outcome: "permanent"},
		{JobID: "b", Queue: "q", WorkerName: "w", Outcome: "permanent"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"job_id":"a"`)
	assert.Contains(t, string(data), `"job_id":"b"`)
}

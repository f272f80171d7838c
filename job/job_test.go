package job

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob_FramesArgsWithFreshID(t *testing.T) {
	t.Parallel()

	j1, err := NewJob("send_email", json.RawMessage(`{"to":"a@example.com"}`))
	require.NoError(t, err)
	j2, err := NewJob("send_email", json.RawMessage(`{"to":"a@example.com"}`))
	require.NoError(t, err)

	assert.Equal(t, "send_email", j1.Metadata.WorkerName)
	assert.NotEmpty(t, j1.Metadata.ID)
	assert.NotEqual(t, j1.Metadata.ID, j2.Metadata.ID, "every enqueue gets a fresh ID even with identical args")
	assert.Nil(t, j1.Metadata.Periodic)
}

func TestNewPeriodicJob_TagsPeriodicConfig(t *testing.T) {
	t.Parallel()

	cfg := PeriodicConfig{Hash: 42, Schedule: "0 0 * * * *"}
	j, err := NewPeriodicJob("heartbeat", nil, cfg)
	require.NoError(t, err)

	require.NotNil(t, j.Metadata.Periodic)
	assert.Equal(t, cfg, *j.Metadata.Periodic)
}

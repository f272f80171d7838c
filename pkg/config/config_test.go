package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskforge/job"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/taskforge.yaml")
	require.NoError(t, err)

	assert.True(t, cfg.Service.Worker.PG.Enable)
	assert.Equal(t, 10, cfg.Service.Worker.PG.NumWorkers)
	assert.Equal(t, "round-robin", cfg.Service.Worker.PG.BalanceStrategy)
	assert.Equal(t, "auto-clean-stale", cfg.Service.Worker.Periodic.StaleCleanup)
	assert.Equal(t, "default", cfg.Service.Worker.EnqueueConfig.Queue)
	assert.False(t, cfg.Service.Worker.Redis.Enable)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVICE_WORKER_PG_NUM_WORKERS", "42")
	t.Setenv("SERVICE_WORKER_REDIS_ENABLE", "true")

	cfg, err := Load("/nonexistent/taskforge.yaml")
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Service.Worker.PG.NumWorkers)
	assert.True(t, cfg.Service.Worker.Redis.Enable)
}

func TestValidate_RequiresAtLeastOneBackend(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Service.Worker.PG.Enable = false
	cfg.Service.Worker.Redis.Enable = false

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_RejectsUnknownStaleCleanup(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Service.Worker.Periodic.StaleCleanup = "nonsense"

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidate_RejectsRedisWorkersExceedingFetchPool(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Service.Worker.Redis.Enable = true
	cfg.Service.Worker.Redis.NumWorkers = 20
	cfg.Service.Worker.Redis.FetchPool.MaxConnections = 10

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, job.ErrPoolTooSmall)
}

func TestToProcessorConfig_BuildsQueueDescriptors(t *testing.T) {
	t.Parallel()

	b := BackendWorkerConfig{
		NumWorkers:      5,
		BalanceStrategy: "weighted",
		Queues:          []string{"high", "low"},
		QueueConfig: map[string]QueueOverride{
			"high": {NumWorkers: 3},
		},
	}
	periodic := PeriodicServiceConfig{StaleCleanup: "manual"}
	enqueue := EnqueueServiceConfig{Queue: "default"}
	worker := WorkerDefaultConfig{MaxRetries: 5, Timeout: true, MaxDurationSecs: 60}

	cfg, err := ToProcessorConfig(b, periodic, enqueue, worker)
	require.NoError(t, err)

	require.Len(t, cfg.Queues, 2)
	assert.Equal(t, "high", cfg.Queues[0].Name)
	assert.Equal(t, 3, cfg.Queues[0].NumWorkers)
	assert.Equal(t, "low", cfg.Queues[1].Name)
	assert.Equal(t, 0, cfg.Queues[1].NumWorkers)
}

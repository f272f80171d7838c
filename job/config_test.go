package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWorkerConfig_OverrideWinsOverDefaults(t *testing.T) {
	t.Parallel()

	defaults := DefaultWorkerConfig()
	override := &WorkerConfig{MaxRetries: 3, MaxDuration: 5 * time.Second}

	resolved := ResolveWorkerConfig(defaults, override)
	assert.Equal(t, uint32(3), resolved.MaxRetries)
	assert.Equal(t, 5*time.Second, resolved.MaxDuration)
	assert.False(t, resolved.Timeout, "Timeout is not zero-value-skipped, it always takes the override's value")
}

func TestResolveWorkerConfig_NilOverrideReturnsDefaults(t *testing.T) {
	t.Parallel()

	defaults := DefaultWorkerConfig()
	resolved := ResolveWorkerConfig(defaults, nil)
	assert.Equal(t, defaults, resolved)
}

func TestResolveWorkerConfig_ZeroFieldsFallBackToDefault(t *testing.T) {
	t.Parallel()

	defaults := WorkerConfig{MaxRetries: 7, Timeout: true, MaxDuration: 30 * time.Second}
	resolved := ResolveWorkerConfig(defaults, &WorkerConfig{})
	assert.Equal(t, uint32(7), resolved.MaxRetries)
	assert.Equal(t, 30*time.Second, resolved.MaxDuration)
	assert.False(t, resolved.Timeout)
}

func TestParseStaleCleanupPolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    StaleCleanupPolicy
		wantErr bool
	}{
		{"", StaleCleanupAutoStale, false},
		{"auto-clean-stale", StaleCleanupAutoStale, false},
		{"manual", StaleCleanupManual, false},
		{"auto-clean-all", StaleCleanupAutoAll, false},
		{"bogus", StaleCleanupAutoStale, true},
	}
	for _, c := range cases {
		got, err := ParseStaleCleanupPolicy(c.in)
		if c.wantErr {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
		}
		assert.Equal(t, c.want, got)
	}
}

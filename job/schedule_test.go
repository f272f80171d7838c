package job

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule_NormalizesFiveFieldToSixField(t *testing.T) {
	t.Parallel()

	_, canonical, err := ParseSchedule("0 * * * *")
	require.NoError(t, err)
	assert.Equal(t, "0 0 * * * *", canonical)
}

func TestParseSchedule_SixFieldPassesThroughUnchanged(t *testing.T) {
	t.Parallel()

	_, canonical, err := ParseSchedule("*/30 * * * * *")
	require.NoError(t, err)
	assert.Equal(t, "*/30 * * * * *", canonical)
}

func TestParseSchedule_DescriptorPassesThroughUnchanged(t *testing.T) {
	t.Parallel()

	_, canonical, err := ParseSchedule("@hourly")
	require.NoError(t, err)
	assert.Equal(t, "@hourly", canonical)
}

func TestParseSchedule_EquivalentFiveAndSixFieldFormsMatch(t *testing.T) {
	t.Parallel()

	_, c1, err := ParseSchedule("0 * * * *")
	require.NoError(t, err)
	_, c2, err := ParseSchedule("0 0 * * * *")
	require.NoError(t, err)
	assert.Equal(t, c1, c2, "5-field and equivalent 6-field expressions must hash identically")
}

func TestParseSchedule_InvalidExprWrapsErrCron(t *testing.T) {
	t.Parallel()

	_, _, err := ParseSchedule("not a cron expression")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCron))
}

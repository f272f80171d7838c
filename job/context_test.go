package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextWithJobID_RoundTrips(t *testing.T) {
	t.Parallel()

	ctx := ContextWithJobID(context.Background(), "01J0000000000000000000000")
	assert.Equal(t, "01J0000000000000000000000", dispatchID(ctx))
}

func TestDispatchID_EmptyWithoutValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", dispatchID(context.Background()))
}

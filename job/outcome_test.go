package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "retry", OutcomeRetry.String())
	assert.Equal(t, "permanent", OutcomePermanent.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}

func TestHandlerErrorReason_PrefixesMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "handler_error: boom", handlerErrorReason("boom"))
}

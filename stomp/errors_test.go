package stomp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := errConnClosedByTransport(cause)
	assert.ErrorIs(t, err, cause)
}

func TestErrorMessageIncludesHintAndKind(t *testing.T) {
	err := errAccessRefused()
	msg := err.Error()
	assert.Contains(t, msg, "abort")
	assert.Contains(t, msg, "access_refused")
}

func TestHintString(t *testing.T) {
	assert.Equal(t, "abort", HintAbort.String())
	assert.Equal(t, "reconnect", HintReconnect.String())
	assert.Equal(t, "retry", HintRetry.String())
	assert.Equal(t, "none", HintNone.String())
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureReason_RetryableOnlyForTransportPhases(t *testing.T) {
	assert.True(t, FailureNetworkError.Retryable())
	assert.True(t, FailureConnectionTimeout.Retryable())
	assert.True(t, FailureHandshakeTimeout.Retryable())
	assert.False(t, FailureAuthFailed.Retryable())
	assert.False(t, FailureCommandFailed.Retryable())
	assert.False(t, FailureCommandTimeout.Retryable())
	assert.False(t, FailureNone.Retryable())
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	assert.True(t, TaskStatusSucceeded.IsTerminal())
	assert.True(t, TaskStatusFailed.IsTerminal())
	assert.True(t, TaskStatusTimeout.IsTerminal())
	assert.True(t, TaskStatusCancelled.IsTerminal())
	assert.False(t, TaskStatusPending.IsTerminal())
	assert.False(t, TaskStatusRunning.IsTerminal())
}

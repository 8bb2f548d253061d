package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters_Rollup_AllSucceeded(t *testing.T) {
	c := Counters{Total: 3, Succeeded: 3}
	assert.Equal(t, JobStatusCompleted, c.Rollup())
}

func TestCounters_Rollup_MixedSuccessAndFailure(t *testing.T) {
	c := Counters{Total: 3, Succeeded: 2, Failed: 1}
	assert.Equal(t, JobStatusPartiallySucceeded, c.Rollup())
}

func TestCounters_Rollup_AllFailed(t *testing.T) {
	c := Counters{Total: 2, Failed: 2}
	assert.Equal(t, JobStatusFailed, c.Rollup())
}

func TestCounters_Rollup_AllTimeout(t *testing.T) {
	c := Counters{Total: 2, Timeout: 2}
	assert.Equal(t, JobStatusFailed, c.Rollup())
}

func TestCounters_Rollup_AllCancelledNoSuccess(t *testing.T) {
	c := Counters{Total: 2, Cancelled: 2}
	assert.Equal(t, JobStatusCancelled, c.Rollup())
}

func TestCounters_StillRunning_TrueWhilePending(t *testing.T) {
	c := Counters{Total: 2, Pending: 1, Succeeded: 1}
	assert.True(t, c.StillRunning())
}

func TestCounters_StillRunning_FalseOnceTerminal(t *testing.T) {
	c := Counters{Total: 2, Succeeded: 2}
	assert.False(t, c.StillRunning())
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.True(t, JobStatusPartiallySucceeded.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.False(t, JobStatusAwaitingApproval.IsTerminal())
}

package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueueName_BindsCapabilityAndEnv(t *testing.T) {
	assert.Equal(t, "ops:tasks:ssh:prod", TaskQueueName("ssh", "prod"))
	assert.Equal(t, "ops:tasks:build:dev", TaskQueueName("build", "dev"))
}

func TestControlChannel_IsPerTask(t *testing.T) {
	assert.Equal(t, "control:task:t-1", ControlChannel("t-1"))
	assert.NotEqual(t, ControlChannel("t-1"), ControlChannel("t-2"))
}

func TestJobControlChannel_IsPerJob(t *testing.T) {
	assert.Equal(t, "control:job:j-1", JobControlChannel("j-1"))
}

func TestResultMessage_StepRoundTrip(t *testing.T) {
	msg := ResultMessage{
		Kind: KindStepResult,
		Step: &StepMessage{
			TaskID:     "t-1",
			JobID:      "j-1",
			BuildJobID: "b-1",
			Order:      2,
			Status:     "succeeded",
			Summary:    "ok",
			DurationMs: 1500,
		},
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded ResultMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, KindStepResult, decoded.Kind)
	require.NotNil(t, decoded.Step)
	assert.Equal(t, "b-1", decoded.Step.BuildJobID)
	assert.Equal(t, 2, decoded.Step.Order)
	assert.Nil(t, decoded.Terminal)
	assert.Nil(t, decoded.Progress)
}

func TestHeartbeatMessage_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	msg := HeartbeatMessage{RunnerID: "r-1", InFlightCount: 3, Status: "active", Timestamp: now}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded HeartbeatMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, msg, decoded)
}

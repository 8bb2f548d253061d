package sshexec

import (
	"testing"
	"time"

	"github.com/fleetops/fleetops/internal/queue"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPhaseTimeouts_LeavesBulkToCommand(t *testing.T) {
	timeouts := DefaultPhaseTimeouts(60 * time.Second)
	assert.Equal(t, 10*time.Second, timeouts.Connect)
	assert.Equal(t, 10*time.Second, timeouts.Handshake)
	assert.Equal(t, 40*time.Second, timeouts.Command)
}

func TestDefaultPhaseTimeouts_ShrinksForTinyOverallBudget(t *testing.T) {
	timeouts := DefaultPhaseTimeouts(8 * time.Second)
	assert.Equal(t, 2*time.Second, timeouts.Connect)
	assert.Equal(t, 2*time.Second, timeouts.Handshake)
	assert.Equal(t, 4*time.Second, timeouts.Command)
}

func TestAuthMethodsFor_PrefersPrivateKeyOverPassword(t *testing.T) {
	_, err := authMethodsFor(queue.Credential{Username: "svc", Password: "irrelevant", PrivateKey: "not a real key"})
	assert.Error(t, err)
}

func TestAuthMethodsFor_FallsBackToPassword(t *testing.T) {
	methods, err := authMethodsFor(queue.Credential{Username: "svc", Password: "hunter2"})
	assert.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestAuthMethodsFor_NoUsableCredential(t *testing.T) {
	_, err := authMethodsFor(queue.Credential{Username: "svc"})
	assert.ErrorIs(t, err, errNoAuthMethod)
}

func TestExecute_NoCredentialFailsFast(t *testing.T) {
	e := NewEngine()
	res := e.Execute(queue.TaskEnvelope{HostAddress: "10.0.0.1", HostPort: 22, TimeoutSecs: 30}, nil)
	assert.Equal(t, "auth_failed", string(res.FailureReason))
}

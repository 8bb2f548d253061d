package sshexec

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetops/fleetops/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestClassifyDialErr_Timeout(t *testing.T) {
	reason, msg := classifyDialErr(errConnectTimeout)
	assert.Equal(t, model.FailureConnectionTimeout, reason)
	assert.Contains(t, msg, "connect timeout")
}

func TestClassifyDialErr_ContextDeadlineIsTreatedAsTimeout(t *testing.T) {
	// context.DeadlineExceeded satisfies net.Error with Timeout() == true.
	reason, _ := classifyDialErr(context.DeadlineExceeded)
	assert.Equal(t, model.FailureConnectionTimeout, reason)
}

func TestClassifyDialErr_GenericNetworkFailure(t *testing.T) {
	reason, msg := classifyDialErr(errors.New("connection refused"))
	assert.Equal(t, model.FailureNetworkError, reason)
	assert.Equal(t, "connection refused", msg)
}

func TestClassifyHandshakeErr_NoAuthMethod(t *testing.T) {
	reason, _ := classifyHandshakeErr(errNoAuthMethod)
	assert.Equal(t, model.FailureAuthFailed, reason)
}

func TestClassifyHandshakeErr_AuthRejected(t *testing.T) {
	reason, msg := classifyHandshakeErr(errors.New("ssh: unable to authenticate, attempted methods [none password]"))
	assert.Equal(t, model.FailureAuthFailed, reason)
	assert.Contains(t, msg, "unable to authenticate")
}

func TestClassifyHandshakeErr_OtherFailsAsHandshakeTimeout(t *testing.T) {
	reason, _ := classifyHandshakeErr(errors.New("ssh: handshake failed: EOF"))
	assert.Equal(t, model.FailureHandshakeTimeout, reason)
}

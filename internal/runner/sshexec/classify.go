package sshexec

import (
	"errors"
	"net"
	"strings"

	"github.com/fleetops/fleetops/internal/model"
)

var (
	errCancelled      = errors.New("operation cancelled")
	errConnectTimeout = errors.New("connect timeout exceeded")
	errNoAuthMethod   = errors.New("no usable auth method for credential")
)

// classifyDialErr maps a TCP dial failure onto the closed failure_reason
// enumeration (spec §3, §4.3).
func classifyDialErr(err error) (model.FailureReason, string) {
	if errors.Is(err, errConnectTimeout) {
		return model.FailureConnectionTimeout, err.Error()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.FailureConnectionTimeout, err.Error()
	}
	return model.FailureNetworkError, err.Error()
}

// classifyHandshakeErr maps an SSH handshake/auth failure onto the closed
// failure_reason enumeration.
func classifyHandshakeErr(err error) (model.FailureReason, string) {
	if err == errNoAuthMethod {
		return model.FailureAuthFailed, err.Error()
	}
	msg := err.Error()
	if strings.Contains(msg, "unable to authenticate") || strings.Contains(msg, "auth") {
		return model.FailureAuthFailed, msg
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.FailureHandshakeTimeout, msg
	}
	return model.FailureHandshakeTimeout, msg
}

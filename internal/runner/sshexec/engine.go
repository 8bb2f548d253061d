package sshexec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/queue"
	"golang.org/x/crypto/ssh"
)

// SummaryRingSize bounds output_summary. Unlike the teacher's Docker
// executor, which captures whole logs unbounded, SSH tasks can run far
// longer commands, so the summary is kept to a fixed tail (spec §4.3, §8).
const SummaryRingSize = 4096

// Result is the outcome of one SSH task execution — the runner-side
// counterpart to queue.TerminalMessage, built before it's wrapped onto the
// wire.
type Result struct {
	Status         model.TaskStatus
	FailureReason  model.FailureReason
	FailureMessage string
	ExitCode       *int
	OutputSummary  string
	OutputDetail   string
	Truncated      bool
	StartedAt      time.Time
	CompletedAt    time.Time
}

// PhaseTimeouts decomposes the overall per-task timeout into the three
// phase budgets the state machine enforces independently (spec §4.3 — "no
// phase may exceed its budget by borrowing from another").
type PhaseTimeouts struct {
	Connect   time.Duration
	Handshake time.Duration
	Command   time.Duration
}

// DefaultPhaseTimeouts derives conservative connect/handshake budgets from
// the job's overall command timeout, leaving the bulk of the budget to the
// command phase itself.
func DefaultPhaseTimeouts(overall time.Duration) PhaseTimeouts {
	connect := 10 * time.Second
	handshake := 10 * time.Second
	if overall < connect+handshake {
		connect = overall / 4
		handshake = overall / 4
	}
	return PhaseTimeouts{Connect: connect, Handshake: handshake, Command: overall - connect - handshake}
}

// Engine drives a single task through the dialing -> handshaking ->
// authenticating -> executing -> captured state machine (spec §4.3).
type Engine struct{}

// NewEngine constructs an Engine. It carries no state; every field needed
// per execution arrives in the envelope and cancel channel.
func NewEngine() *Engine {
	return &Engine{}
}

// Execute runs envelope to completion or to the first failure/cancel,
// never retrying internally — retry is the caller's (pool's) concern,
// since only it knows the attempt/backoff bookkeeping.
func (e *Engine) Execute(envelope queue.TaskEnvelope, cancel <-chan struct{}) *Result {
	started := time.Now()
	res := &Result{StartedAt: started}

	if envelope.Credential.Username == "" {
		// No credential anywhere: fail immediately, no network round-trip
		// (spec §4.3 credential selection paragraph).
		return e.fail(res, model.FailureAuthFailed, "no credential available for host", nil)
	}

	timeouts := DefaultPhaseTimeouts(time.Duration(envelope.TimeoutSecs) * time.Second)

	conn, err := e.dial(envelope, timeouts.Connect, cancel)
	if err != nil {
		if errors.Is(err, errCancelled) {
			return e.cancelled(res)
		}
		reason, msg := classifyDialErr(err)
		return e.fail(res, reason, msg, nil)
	}
	defer conn.Close()

	client, err := e.handshake(conn, envelope, timeouts.Handshake, cancel)
	if err != nil {
		if errors.Is(err, errCancelled) {
			return e.cancelled(res)
		}
		reason, msg := classifyHandshakeErr(err)
		return e.fail(res, reason, msg, nil)
	}
	defer client.Close()

	return e.run(client, envelope, timeouts.Command, cancel, res)
}

func (e *Engine) dial(envelope queue.TaskEnvelope, timeout time.Duration, cancel <-chan struct{}) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", envelope.HostAddress, envelope.HostPort)
	dialer := net.Dialer{Timeout: timeout}
	type dialResult struct {
		conn net.Conn
		err  error
	}
	done := make(chan dialResult, 1)
	go func() {
		conn, err := dialer.Dial("tcp", addr)
		done <- dialResult{conn, err}
	}()
	select {
	case r := <-done:
		return r.conn, r.err
	case <-cancel:
		return nil, errCancelled
	case <-time.After(timeout + time.Second):
		return nil, errConnectTimeout
	}
}

func (e *Engine) handshake(conn net.Conn, envelope queue.TaskEnvelope, timeout time.Duration, cancel <-chan struct{}) (*ssh.Client, error) {
	authMethods, err := authMethodsFor(envelope.Credential)
	if err != nil {
		return nil, err
	}
	config := &ssh.ClientConfig{
		User:            envelope.Credential.Username,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	type handshakeResult struct {
		client *ssh.Client
		err    error
	}
	done := make(chan handshakeResult, 1)
	go func() {
		sshConn, chans, reqs, err := ssh.NewClientConn(conn, conn.RemoteAddr().String(), config)
		if err != nil {
			done <- handshakeResult{nil, err}
			return
		}
		done <- handshakeResult{ssh.NewClient(sshConn, chans, reqs), nil}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		_ = conn.SetDeadline(time.Time{})
		return r.client, nil
	case <-cancel:
		// Unblock the goroutine's blocking NewClientConn call; its result
		// is discarded on the done channel once it lands.
		conn.Close()
		return nil, errCancelled
	}
}

func (e *Engine) run(client *ssh.Client, envelope queue.TaskEnvelope, timeout time.Duration, cancel <-chan struct{}, res *Result) *Result {
	session, err := client.NewSession()
	if err != nil {
		return e.fail(res, model.FailureAuthFailed, err.Error(), nil)
	}
	defer session.Close()

	summary := newBoundedRing(SummaryRingSize)
	detail := &bytes.Buffer{}
	stdout := io.MultiWriter(summary, detail)
	stderr := io.MultiWriter(summary, detail)
	session.Stdout = stdout
	session.Stderr = stderr

	command := envelope.Command
	if command == "" {
		command = envelope.Script
	}
	if envelope.ExecuteUser != "" {
		command = fmt.Sprintf("sudo -u %s -- sh -c %q", envelope.ExecuteUser, command)
	}

	done := make(chan error, 1)
	if err := session.Start(command); err != nil {
		return e.fail(res, model.FailureCommandFailed, err.Error(), nil)
	}
	go func() { done <- session.Wait() }()

	select {
	case err := <-done:
		return e.finish(res, summary, detail, err)
	case <-cancel:
		_ = session.Signal(ssh.SIGKILL)
		res.Status = model.TaskStatusCancelled
		res.CompletedAt = time.Now()
		return res
	case <-time.After(timeout):
		_ = session.Signal(ssh.SIGKILL)
		return e.fail(res, model.FailureCommandTimeout, "command exceeded timeout", nil)
	}
}

func (e *Engine) finish(res *Result, summary *boundedRing, detail *bytes.Buffer, waitErr error) *Result {
	res.CompletedAt = time.Now()
	text, truncated := summary.Summary()
	res.OutputSummary = text
	res.OutputDetail = detail.String()
	res.Truncated = truncated

	if waitErr == nil {
		zero := 0
		res.Status = model.TaskStatusSucceeded
		res.ExitCode = &zero
		return res
	}
	if exitErr, ok := waitErr.(*ssh.ExitError); ok {
		code := exitErr.ExitStatus()
		res.Status = model.TaskStatusFailed
		res.FailureReason = model.FailureCommandFailed
		res.FailureMessage = fmt.Sprintf("command exited %d", code)
		res.ExitCode = &code
		return res
	}
	res.Status = model.TaskStatusFailed
	res.FailureReason = model.FailureCommandFailed
	res.FailureMessage = waitErr.Error()
	return res
}

func (e *Engine) cancelled(res *Result) *Result {
	res.Status = model.TaskStatusCancelled
	res.CompletedAt = time.Now()
	return res
}

func (e *Engine) fail(res *Result, reason model.FailureReason, message string, exitCode *int) *Result {
	res.CompletedAt = time.Now()
	switch reason {
	case model.FailureConnectionTimeout, model.FailureHandshakeTimeout, model.FailureCommandTimeout:
		res.Status = model.TaskStatusTimeout
	default:
		res.Status = model.TaskStatusFailed
	}
	res.FailureReason = reason
	res.FailureMessage = message
	res.ExitCode = exitCode
	return res
}

func authMethodsFor(cred queue.Credential) ([]ssh.AuthMethod, error) {
	if cred.PrivateKey != "" {
		var signer ssh.Signer
		var err error
		if cred.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(cred.PrivateKey), []byte(cred.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey([]byte(cred.PrivateKey))
		}
		if err != nil {
			return nil, err
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if cred.Password != "" {
		return []ssh.AuthMethod{ssh.Password(cred.Password)}, nil
	}
	return nil, errNoAuthMethod
}

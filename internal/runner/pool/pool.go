package pool

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/queue"
	"github.com/fleetops/fleetops/internal/runner/build"
	"github.com/fleetops/fleetops/internal/runner/sshexec"
)

// Pool drives a runner's bounded-concurrency worker loop (spec §4.3
// concurrency model): one goroutine per in-flight task, bounded by the
// broker consumer's own concurrency setting rather than a second internal
// queue.
type Pool struct {
	consumer      queue.TaskConsumer
	publisher     queue.ResultPublisher
	subscriber    queue.ControlSubscriber
	engine        *sshexec.Engine
	buildExecutor *build.Executor
}

// New constructs a Pool from its collaborators. buildExecutor may be nil on
// runners that advertise no build capability; a build-type task dispatched
// to such a runner fails fast rather than panicking.
func New(consumer queue.TaskConsumer, publisher queue.ResultPublisher, subscriber queue.ControlSubscriber, buildExecutor *build.Executor) *Pool {
	return &Pool{consumer: consumer, publisher: publisher, subscriber: subscriber, engine: sshexec.NewEngine(), buildExecutor: buildExecutor}
}

// Run blocks, consuming from queues (queue name -> priority weight)
// until ctx is cancelled.
func (p *Pool) Run(ctx context.Context, queues map[string]int) error {
	return p.consumer.Run(ctx, queues, p.handle)
}

// Shutdown stops the underlying broker consumer.
func (p *Pool) Shutdown() {
	p.consumer.Shutdown()
}

func (p *Pool) handle(ctx context.Context, envelope queue.TaskEnvelope) error {
	logger := common.GetLogger().Sugar()

	p.publishProgress(ctx, envelope, "running")

	cancelCh, unsubscribe, err := p.subscriber.SubscribeTask(ctx, envelope.TaskID)
	if err != nil {
		logger.Warnw("control subscribe failed, proceeding without cancellation support", "task_id", envelope.TaskID, "err", err)
	}
	if unsubscribe != nil {
		defer unsubscribe()
	}

	done := make(chan struct{})
	cancelSignal := make(chan struct{})
	if cancelCh != nil {
		go func() {
			select {
			case <-cancelCh:
				close(cancelSignal)
			case <-done:
			}
		}()
	}
	defer close(done)

	if model.JobType(envelope.JobType) == model.JobTypeBuild {
		return p.handleBuild(ctx, envelope)
	}

	result := p.engine.Execute(envelope, cancelSignal)

	for result.FailureReason.Retryable() && envelope.Attempt <= envelope.MaxRetries {
		backoff := retryBackoff(envelope.Attempt)
		logger.Infow("retrying task", "task_id", envelope.TaskID, "attempt", envelope.Attempt, "backoff", backoff)
		time.Sleep(backoff)
		envelope.Attempt++
		result = p.engine.Execute(envelope, cancelSignal)
	}

	return p.publishTerminal(ctx, envelope, result)
}

// handleBuild runs a build task's step pipeline through the Docker
// executor, streaming one step_result message per step and a single
// terminal message once the pipeline stops (spec §4.4).
func (p *Pool) handleBuild(ctx context.Context, envelope queue.TaskEnvelope) error {
	started := time.Now()
	if p.buildExecutor == nil {
		return p.publishTerminal(ctx, envelope, &sshexec.Result{
			Status:         model.TaskStatusFailed,
			FailureReason:  model.FailureUnknown,
			FailureMessage: "runner advertises no build capability",
			StartedAt:      started,
			CompletedAt:    time.Now(),
		})
	}

	buildJobID := ""
	if len(envelope.BuildSteps) > 0 {
		buildJobID = envelope.BuildSteps[0].WorkspaceDir
	}

	status, err := p.buildExecutor.Run(ctx, envelope, func(step build.StepResult) {
		_ = p.publisher.PublishResult(ctx, queue.ResultMessage{
			Kind: queue.KindStepResult,
			Step: &queue.StepMessage{
				TaskID: envelope.TaskID, JobID: envelope.JobID, BuildJobID: buildJobID,
				Order: step.Order, Status: string(step.Status),
				Summary: step.Summary, Detail: step.Detail, DurationMs: step.DurationMs,
				Artifact: step.Artifact,
			},
		})
	})

	completed := time.Now()
	result := &sshexec.Result{StartedAt: started, CompletedAt: completed}
	if err != nil || status == model.JobStatusFailed {
		result.Status = model.TaskStatusFailed
		result.FailureReason = model.FailureCommandFailed
		if err != nil {
			result.FailureMessage = err.Error()
			result.FailureReason = model.FailureUnknown
			if errno, ok := err.(common.ErrNo); ok && errno.ErrCode == common.WorkspaceViolation {
				result.FailureReason = model.FailureWorkspaceViolation
			}
		}
	} else {
		result.Status = model.TaskStatusSucceeded
	}
	return p.publishTerminal(ctx, envelope, result)
}

func (p *Pool) publishProgress(ctx context.Context, envelope queue.TaskEnvelope, status string) {
	_ = p.publisher.PublishResult(ctx, queue.ResultMessage{
		Kind: queue.KindProgress,
		Progress: &queue.ProgressMessage{
			TaskID: envelope.TaskID, JobID: envelope.JobID, Attempt: envelope.Attempt,
			Status: status, Timestamp: time.Now(),
		},
	})
}

func (p *Pool) publishTerminal(ctx context.Context, envelope queue.TaskEnvelope, result *sshexec.Result) error {
	return p.publisher.PublishResult(ctx, queue.ResultMessage{
		Kind: queue.KindTerminal,
		Terminal: &queue.TerminalMessage{
			TaskID:         envelope.TaskID,
			JobID:          envelope.JobID,
			Attempt:        envelope.Attempt,
			Status:         string(result.Status),
			FailureReason:  string(result.FailureReason),
			FailureMessage: result.FailureMessage,
			ExitCode:       result.ExitCode,
			StartedAt:      result.StartedAt,
			CompletedAt:    result.CompletedAt,
			DurationMs:     result.CompletedAt.Sub(result.StartedAt).Milliseconds(),
			OutputSummary:  result.OutputSummary,
			OutputDetail:   result.OutputDetail,
			Truncated:      result.Truncated,
		},
	})
}

// retryBackoff is exponential with jitter (spec §4.3): the base delay
// doubles from 500ms and is capped at 30s, then up to 30% jitter is added.
func retryBackoff(attempt int) time.Duration {
	base := math.Min(math.Pow(2, float64(attempt-1))*500, 30000)
	jitter := rand.Float64() * base * 0.3
	return time.Duration(base+jitter) * time.Millisecond
}

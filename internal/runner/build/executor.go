package build

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/queue"
)

// StepResult is one executed step's outcome, reported back to the
// orchestrator as it happens (spec §4.4).
type StepResult struct {
	Order      int
	Status     model.BuildStepStatus
	Summary    string
	Detail     string
	DurationMs int64
	// Artifact is set only when this was a successful package step with an
	// ArtifactPath (spec §4.4 Artifacts).
	Artifact *queue.ArtifactInfo
	// WorkspaceViolation is set when Status is Failed because this step's
	// CleanupPath escaped the workspace prefix, so the pool can report the
	// task-level failure reason workspace_violation instead of a generic
	// command failure (spec §4.4, §8 end-to-end scenario 6).
	WorkspaceViolation bool
}

// Executor runs a build job's ordered step list inside short-lived
// containers, the same one-container-per-unit-of-work shape the teacher's
// DockerEngine/DockerClient use for pipeline tasks
// (peace/internal/task_executor/runner/engine.go,
// peace/internal/task_executor/docker/client.go), generalized from a flat
// command list to typed clone/install/test/build/package steps.
type Executor struct {
	cli             *client.Client
	workspacePrefix string
	defaultImage    string
}

// NewExecutor opens a Docker client against the configured host.
func NewExecutor() (*Executor, error) {
	cfg := common.GetConfig()
	cli, err := client.NewClientWithOpts(
		client.WithHost(cfg.DockerHost),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, err
	}
	return &Executor{cli: cli, workspacePrefix: cfg.WorkspacePrefix, defaultImage: cfg.DefaultImage}, nil
}

// Run executes every step of a build task in order, calling onStep after
// each one completes so the caller can publish progress/terminal
// messages. It stops at the first failing step whose ContinueOnFailure is
// false, marking the remainder skipped (spec §4.4).
func (e *Executor) Run(ctx context.Context, envelope queue.TaskEnvelope, onStep func(StepResult)) (model.JobStatus, error) {
	if len(envelope.BuildSteps) == 0 {
		return model.JobStatusCompleted, nil
	}
	workspaceDir := filepath.Join(e.workspacePrefix, envelope.BuildSteps[0].WorkspaceDir)
	if err := e.verifyWorkspace(workspaceDir); err != nil {
		return model.JobStatusFailed, err
	}

	failed := false
	var failErr error
	for _, step := range envelope.BuildSteps {
		if failed {
			onStep(StepResult{Order: step.Order, Status: model.BuildStepSkipped})
			continue
		}

		result := e.runStep(ctx, step, workspaceDir)
		onStep(result)
		if result.Status == model.BuildStepFailed && !step.ContinueOnFailure {
			failed = true
			if result.WorkspaceViolation {
				failErr = common.NewErrNo(common.WorkspaceViolation)
			}
		}
	}
	if failed {
		return model.JobStatusFailed, failErr
	}
	return model.JobStatusCompleted, nil
}

// verifyWorkspace is the single hard invariant preventing host-file
// damage (spec §4.4): the workspace directory this executor bind-mounts
// into every step container must live under the configured prefix.
// Per-step cleanup paths are checked separately by cleanupStep.
func (e *Executor) verifyWorkspace(dir string) error {
	if !isUnderPrefix(e.workspacePrefix, dir) {
		return common.NewErrNo(common.WorkspaceViolation)
	}
	return nil
}

func (e *Executor) runStep(ctx context.Context, step queue.BuildStepSpec, workspaceDir string) StepResult {
	started := time.Now()
	image := step.Image
	if image == "" {
		image = e.defaultImage
	}

	stepCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	resp, err := e.cli.ContainerCreate(
		stepCtx,
		&container.Config{
			Image:      image,
			Cmd:        []string{"sh", "-c", step.Command},
			WorkingDir: "/workspace",
		},
		&container.HostConfig{
			Binds: []string{workspaceDir + ":/workspace"},
		},
		nil, nil, "",
	)
	if err != nil {
		return failedStep(step.Order, started, err.Error())
	}
	containerID := resp.ID
	defer e.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})

	if err := e.cli.ContainerStart(stepCtx, containerID, container.StartOptions{}); err != nil {
		return failedStep(step.Order, started, err.Error())
	}

	statusCh, errCh := e.cli.ContainerWait(stepCtx, containerID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			return failedStep(step.Order, started, err.Error())
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	out, err := e.cli.ContainerLogs(stepCtx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return failedStep(step.Order, started, err.Error())
	}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	_, _ = stdcopy.StdCopy(stdout, stderr, out)
	detail := stdout.String() + stderr.String()

	status := model.BuildStepSucceeded
	if exitCode != 0 {
		status = model.BuildStepFailed
	}
	result := StepResult{
		Order:      step.Order,
		Status:     status,
		Summary:    summaryTail(detail, 2048),
		Detail:     detail,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if status == model.BuildStepSucceeded && step.StepType == string(model.StepPackage) && step.ArtifactPath != "" {
		artifact, err := hashArtifact(workspaceDir, step)
		if err != nil {
			result.Status = model.BuildStepFailed
			result.Summary = "artifact hashing failed: " + err.Error()
			result.Detail = result.Summary
			return result
		}
		result.Artifact = artifact
	}
	if result.Status == model.BuildStepSucceeded && step.CleanupPath != "" {
		if err := e.cleanupStep(workspaceDir, step.CleanupPath); err != nil {
			result.Status = model.BuildStepFailed
			result.Summary = "cleanup failed: " + err.Error()
			result.Detail = result.Summary
			if errno, ok := err.(common.ErrNo); ok && errno.ErrCode == common.WorkspaceViolation {
				result.WorkspaceViolation = true
			}
		}
	}
	return result
}

// hashArtifact measures the file a package step produced, relative to the
// task's workspace, for the (name, type, path, size, sha256, version)
// registration spec §4.4 requires.
func hashArtifact(workspaceDir string, step queue.BuildStepSpec) (*queue.ArtifactInfo, error) {
	path := filepath.Join(workspaceDir, step.ArtifactPath)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return nil, err
	}
	return &queue.ArtifactInfo{
		Name:      step.ArtifactName,
		Type:      step.ArtifactType,
		Path:      step.ArtifactPath,
		Version:   step.ArtifactVersion,
		SizeBytes: size,
		SHA256:    hex.EncodeToString(h.Sum(nil)),
	}, nil
}

func failedStep(order int, started time.Time, message string) StepResult {
	return StepResult{
		Order:      order,
		Status:     model.BuildStepFailed,
		Summary:    message,
		Detail:     message,
		DurationMs: time.Since(started).Milliseconds(),
	}
}

func summaryTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "...[truncated]...\n" + s[len(s)-n:]
}

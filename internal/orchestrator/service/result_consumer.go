package service

import (
	"context"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/queue"
	"github.com/google/uuid"
)

// ResultProcessor drains ops:results and routes each message to the
// owning service. Progress messages are advisory only — the spec's Open
// Question on progress dedup is resolved (SPEC_FULL.md §5.2) by treating
// them as idempotently re-appliable log lines, never touched by the
// (task_id, attempt) dedup guard that gates terminal messages.
type ResultProcessor struct {
	jobService   *JobService
	buildService *BuildService
}

// NewResultProcessor constructs a ResultProcessor bound to a JobService and
// BuildService — both drain the same ops:results queue since a build task's
// terminal message still flows through the shared Job/Task tables.
func NewResultProcessor(jobService *JobService, buildService *BuildService) *ResultProcessor {
	return &ResultProcessor{jobService: jobService, buildService: buildService}
}

// Handle implements queue.ResultHandler.
func (p *ResultProcessor) Handle(ctx context.Context, msg queue.ResultMessage) error {
	switch msg.Kind {
	case queue.KindTerminal:
		if msg.Terminal == nil {
			return nil
		}
		return p.jobService.ApplyTerminalResult(ctx, *msg.Terminal)
	case queue.KindStepResult:
		if msg.Step == nil {
			return nil
		}
		if err := p.buildService.ApplyStepResult(ctx, msg.Step.BuildJobID, msg.Step.Order,
			model.BuildStepStatus(msg.Step.Status), msg.Step.Summary, msg.Step.Detail, msg.Step.DurationMs); err != nil {
			return err
		}
		if msg.Step.Artifact != nil && model.BuildStepStatus(msg.Step.Status) == model.BuildStepSucceeded {
			a := msg.Step.Artifact
			return p.buildService.RegisterArtifact(ctx, &model.BuildArtifact{
				ID:           uuid.NewString(),
				BuildJobID:   msg.Step.BuildJobID,
				Name:         a.Name,
				ArtifactType: a.Type,
				Version:      a.Version,
				ArtifactPath: a.Path,
				SizeBytes:    a.SizeBytes,
				SHA256:       a.SHA256,
			})
		}
		return nil
	case queue.KindProgress:
		if msg.Progress == nil {
			return nil
		}
		common.GetLogger().Sugar().Infow("task progress",
			"task_id", msg.Progress.TaskID, "job_id", msg.Progress.JobID, "status", msg.Progress.Status)
		return nil
	default:
		return nil
	}
}

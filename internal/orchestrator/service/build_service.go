package service

import (
	"time"

	"context"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/dao"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/orchestrator/runnerregistry"
	"github.com/fleetops/fleetops/internal/queue"
	"github.com/google/uuid"
)

// BuildStepInput mirrors api.BuildStepInput without importing the HTTP DTO
// package, keeping the service layer transport-agnostic.
type BuildStepInput struct {
	StepType          string
	Command           string
	ContinueOnFailure bool
	ArtifactName      string
	ArtifactType      string
	ArtifactPath      string
	ArtifactVersion   string
	CleanupPath       string
}

// BuildSpec is the normalized build submission (spec §4.4).
type BuildSpec struct {
	Name               string
	ProjectName        string
	RepositoryURL      string
	Branch             string
	CommitSHA          string
	BuildType          model.BuildType
	EnvVars            map[string]string
	RequiredCapability string
	Steps              []BuildStepInput
	TimeoutSecs        int
	IdempotencyKey     string
}

// BuildService owns build-type job submission and dispatch. It shares the
// base Job/Task tables with JobService but persists the extended
// build_jobs/build_steps rows alongside them (spec §4.4).
type BuildService struct {
	jobDao    dao.JobDao
	taskDao   dao.TaskDao
	buildDao  dao.BuildDao
	registry  *runnerregistry.Registry
	publisher queue.TaskPublisher
	audit     common.Sink
}

// NewBuildService wires the default collaborators together.
func NewBuildService(publisher queue.TaskPublisher, audit common.Sink) *BuildService {
	return &BuildService{
		jobDao:    dao.NewJobDao(),
		taskDao:   dao.NewTaskDao(),
		buildDao:  dao.NewBuildDao(),
		registry:  runnerregistry.NewRegistry(),
		publisher: publisher,
		audit:     audit,
	}
}

// Submit checks that at least one active runner advertises
// RequiredCapability, creates the job/build_job/build_steps rows, and
// dispatches a single build-kind task carrying the step list to that
// capability's queue.
func (s *BuildService) Submit(ctx context.Context, createdBy string, spec BuildSpec) (*model.Job, error) {
	if existing, err := s.jobDao.GetByIdempotencyKey(ctx, createdBy, spec.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}
	if len(spec.Steps) == 0 {
		return nil, common.NewErrNo(common.ValidationFailed)
	}

	runners, err := s.registry.AvailableFor(ctx, spec.RequiredCapability)
	if err != nil {
		return nil, err
	}
	if len(runners) == 0 {
		// No runner advertises the capability: fail at submission rather
		// than fan out a task nothing can pick up (spec §4.1 dispatch
		// blocking rule, generalized to build capability routing).
		return nil, common.NewErrNo(common.QuotaExceeded)
	}

	jobID := uuid.NewString()
	buildJobID := uuid.NewString()
	taskID := uuid.NewString()

	job := &model.Job{
		ID:              jobID,
		JobType:         model.JobTypeBuild,
		Name:            spec.Name,
		Status:          model.JobStatusPending,
		ConcurrentLimit: 1,
		TimeoutSecs:     spec.TimeoutSecs,
		IdempotencyKey:  spec.IdempotencyKey,
		CreatedBy:       createdBy,
		TotalTasks:      1,
	}
	task := &model.Task{
		ID:         taskID,
		JobID:      jobID,
		Status:     model.TaskStatusPending,
		MaxRetries: 0,
		Attempt:    1,
	}

	envVars := make(model.JSONStringList, 0, len(spec.EnvVars))
	for k, v := range spec.EnvVars {
		envVars = append(envVars, k+"="+v)
	}
	buildJob := &model.BuildJob{
		ID:                 buildJobID,
		JobID:              jobID,
		ProjectName:        spec.ProjectName,
		RepositoryURL:      spec.RepositoryURL,
		Branch:             spec.Branch,
		CommitSHA:          spec.CommitSHA,
		BuildType:          spec.BuildType,
		EnvVars:            envVars,
		RequiredCapability: spec.RequiredCapability,
	}
	steps := make([]*model.BuildStep, len(spec.Steps))
	wireSteps := make([]queue.BuildStepSpec, len(spec.Steps))
	for i, st := range spec.Steps {
		steps[i] = &model.BuildStep{
			ID:                uuid.NewString(),
			Order:              i,
			StepType:          model.BuildStepType(st.StepType),
			Command:           st.Command,
			ContinueOnFailure: st.ContinueOnFailure,
			Status:            model.BuildStepPending,
			ArtifactName:      st.ArtifactName,
			ArtifactType:      st.ArtifactType,
			ArtifactPath:      st.ArtifactPath,
			ArtifactVersion:   st.ArtifactVersion,
			CleanupPath:       st.CleanupPath,
		}
		wireSteps[i] = queue.BuildStepSpec{
			Order:             i,
			StepType:          st.StepType,
			Command:           st.Command,
			ContinueOnFailure: st.ContinueOnFailure,
			WorkspaceDir:      buildJobID,
			ArtifactName:      st.ArtifactName,
			ArtifactType:      st.ArtifactType,
			ArtifactPath:      st.ArtifactPath,
			ArtifactVersion:   st.ArtifactVersion,
			CleanupPath:       st.CleanupPath,
		}
	}

	if err := s.jobDao.CreateWithTasks(ctx, job, []*model.Task{task}); err != nil {
		return nil, err
	}
	if err := s.buildDao.CreateWithSteps(ctx, buildJob, steps); err != nil {
		return nil, err
	}
	s.audit.Log(createdBy, jobID, common.AuditJobCreate, spec.ProjectName, "created")

	envelope := queue.TaskEnvelope{
		TaskID:      taskID,
		JobID:       jobID,
		Attempt:     1,
		JobType:     string(model.JobTypeBuild),
		TimeoutSecs: spec.TimeoutSecs,
		BuildSteps:  wireSteps,
	}
	if err := s.publisher.PublishTask(ctx, spec.RequiredCapability, "build", envelope); err != nil {
		_ = s.jobDao.MarkDispatchFailed(ctx, jobID)
		return nil, err
	}

	now := time.Now()
	job.StartedAt = &now
	job.Status = model.JobStatusRunning
	if err := s.jobDao.UpdateStatus(ctx, jobID, model.JobStatusRunning); err != nil {
		return nil, err
	}
	return job, nil
}

// Redispatch republishes a build job's single task, used by the recovery
// sweep when the runner-bound publish failed at submission time (spec
// §4.1, §7 Recovery, generalized to build-kind jobs).
func (s *BuildService) Redispatch(ctx context.Context, jobID string) error {
	job, err := s.jobDao.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return s.jobDao.ClearDispatchFailed(ctx, jobID)
	}
	tasks, err := s.taskDao.ListNonTerminalByJob(ctx, jobID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return s.jobDao.ClearDispatchFailed(ctx, jobID)
	}
	buildJob, err := s.buildDao.GetByJobID(ctx, jobID)
	if err != nil {
		return err
	}
	steps, err := s.buildDao.ListSteps(ctx, buildJob.ID)
	if err != nil {
		return err
	}
	wireSteps := make([]queue.BuildStepSpec, len(steps))
	for i, st := range steps {
		wireSteps[i] = queue.BuildStepSpec{
			Order: st.Order, StepType: string(st.StepType), Command: st.Command,
			ContinueOnFailure: st.ContinueOnFailure, WorkspaceDir: buildJob.ID,
			ArtifactName: st.ArtifactName, ArtifactType: st.ArtifactType,
			ArtifactPath: st.ArtifactPath, ArtifactVersion: st.ArtifactVersion,
			CleanupPath: st.CleanupPath,
		}
	}

	task := tasks[0]
	envelope := queue.TaskEnvelope{
		TaskID:      task.ID,
		JobID:       jobID,
		Attempt:     task.Attempt,
		JobType:     string(model.JobTypeBuild),
		TimeoutSecs: job.TimeoutSecs,
		BuildSteps:  wireSteps,
	}
	if err := s.publisher.PublishTask(ctx, buildJob.RequiredCapability, "build", envelope); err != nil {
		_ = s.jobDao.MarkDispatchFailed(ctx, jobID)
		return err
	}
	if job.Status == model.JobStatusPending {
		if err := s.jobDao.UpdateStatus(ctx, jobID, model.JobStatusRunning); err != nil {
			return err
		}
	}
	return s.jobDao.ClearDispatchFailed(ctx, jobID)
}

// ApplyStepResult updates one build step's outcome, used by the result
// consumer for each step_result message (a StepMessage keyed by build job
// ID and step order — the build executor emits one message per step).
func (s *BuildService) ApplyStepResult(ctx context.Context, buildJobID string, order int, status model.BuildStepStatus, summary, detail string, durationMs int64) error {
	steps, err := s.buildDao.ListSteps(ctx, buildJobID)
	if err != nil {
		return err
	}
	for _, st := range steps {
		if st.Order != order {
			continue
		}
		st.Status = status
		st.Summary = summary
		st.Detail = detail
		st.DurationMs = durationMs
		return s.buildDao.UpdateStep(ctx, st)
	}
	return common.NewErrNo(common.StepFailed)
}

// RegisterArtifact records a build artifact, rejecting a duplicate
// (version, artifact_type) pair with ArtifactConflict (spec §4.4, §8).
func (s *BuildService) RegisterArtifact(ctx context.Context, artifact *model.BuildArtifact) error {
	if err := s.buildDao.CreateArtifact(ctx, artifact); err != nil {
		return err
	}
	s.audit.Log("runner", artifact.ID, common.AuditBuildRegister, artifact.Name, "registered")
	return nil
}

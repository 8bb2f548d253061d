package service

import (
	"context"
	"time"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/dao"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/orchestrator/approval"
	"github.com/fleetops/fleetops/internal/orchestrator/assets"
	"github.com/fleetops/fleetops/internal/orchestrator/runnerregistry"
	"github.com/fleetops/fleetops/internal/queue"
	"github.com/google/uuid"
)

// CommandSpec is the orchestrator-internal shape a command/script
// submission is normalized to before persistence, independent of the
// transport-level api.CreateCommandJobRequest/CreateScriptJobRequest DTOs.
type CommandSpec struct {
	JobType         model.JobType
	Name            string
	Description     string
	TargetHostIDs   []string
	TargetGroupIDs  []string
	Command         string
	Script          string
	ScriptPath      string
	ExecuteUser     string
	ConcurrentLimit int
	TimeoutSecs     int
	RetryTimes      int
	Tags            []string
	IdempotencyKey  string
	RequiredCapability string
}

// JobService implements the Job Orchestrator (spec §4.1): submission
// validation, target resolution, atomic fan-out, idempotency, risk
// evaluation, dispatch, aggregation, and cancellation.
type JobService struct {
	jobDao      dao.JobDao
	taskDao     dao.TaskDao
	resolver    *assets.Resolver
	gate        *approval.Gate
	registry    *runnerregistry.Registry
	publisher   queue.TaskPublisher
	controlBus  queue.ControlPublisher
	audit       common.Sink
}

// NewJobService wires the default collaborators together.
func NewJobService(publisher queue.TaskPublisher, controlBus queue.ControlPublisher, audit common.Sink) *JobService {
	return &JobService{
		jobDao:     dao.NewJobDao(),
		taskDao:    dao.NewTaskDao(),
		resolver:   assets.NewResolver(),
		gate:       approval.NewGate(),
		registry:   runnerregistry.NewRegistry(),
		publisher:  publisher,
		controlBus: controlBus,
		audit:      audit,
	}
}

// Submit validates and creates a command/script job, returning the
// existing job unchanged if its idempotency key was already used by this
// creator (spec §4.1 idempotency contract).
func (s *JobService) Submit(ctx context.Context, createdBy string, spec CommandSpec) (*model.Job, error) {
	if existing, err := s.jobDao.GetByIdempotencyKey(ctx, createdBy, spec.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if err := validateCommandSpec(spec); err != nil {
		return nil, err
	}

	hosts, err := s.resolver.Resolve(ctx, spec.TargetHostIDs, spec.TargetGroupIDs)
	if err != nil {
		return nil, err
	}

	concurrentLimit := spec.ConcurrentLimit
	if concurrentLimit <= 0 {
		concurrentLimit = len(hosts)
	}
	if concurrentLimit > len(hosts) {
		return nil, common.NewErrNo(common.RequestInvalid)
	}

	job := &model.Job{
		ID:              uuid.NewString(),
		JobType:         spec.JobType,
		Name:            spec.Name,
		Description:     spec.Description,
		Status:          model.JobStatusPending,
		TargetHosts:     hostIDs(hosts),
		Command:         spec.Command,
		Script:          spec.Script,
		ScriptPath:      spec.ScriptPath,
		ConcurrentLimit: concurrentLimit,
		TimeoutSecs:     spec.TimeoutSecs,
		RetryTimes:      spec.RetryTimes,
		ExecuteUser:     spec.ExecuteUser,
		IdempotencyKey:  spec.IdempotencyKey,
		CreatedBy:       createdBy,
		TotalTasks:      len(hosts),
		Tags:            model.JSONStringList(spec.Tags),
	}

	tasks := make([]*model.Task, len(hosts))
	for i, h := range hosts {
		tasks[i] = &model.Task{
			ID:         uuid.NewString(),
			HostID:     h.ID,
			Status:     model.TaskStatusPending,
			MaxRetries: spec.RetryTimes,
			Attempt:    1,
		}
	}

	if err := s.jobDao.CreateWithTasks(ctx, job, tasks); err != nil {
		// Idempotency's unique constraint can still be raced; a collision
		// here means a concurrent submission already won (spec §4.1 — "the
		// uniqueness constraint is enforced at the storage layer").
		if existing, getErr := s.jobDao.GetByIdempotencyKey(ctx, createdBy, spec.IdempotencyKey); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	s.audit.Log(createdBy, job.ID, common.AuditJobCreate, spec.Name, "created")

	anyCritical, err := s.resolver.AnyCritical(ctx, spec.TargetGroupIDs)
	if err != nil {
		return nil, err
	}
	triggers := approval.EvaluateTriggers(dominantEnv(hosts), anyCritical, false)

	if len(triggers) > 0 {
		if _, err := s.gate.Open(ctx, job.ID, triggers, createdBy, ""); err != nil {
			return nil, err
		}
		job.Status = model.JobStatusAwaitingApproval
		if err := s.jobDao.UpdateStatus(ctx, job.ID, model.JobStatusAwaitingApproval); err != nil {
			return nil, err
		}
		return job, nil
	}

	if err := s.dispatch(ctx, job, tasks, hosts, spec); err != nil {
		return nil, err
	}
	if err := s.jobDao.UpdateStatus(ctx, job.ID, model.JobStatusRunning); err != nil {
		return nil, err
	}
	job.Status = model.JobStatusRunning
	return job, nil
}

// ResumeAfterApproval is invoked by the approval gate once a request
// reaches quorum; it transitions the job to running and publishes tasks.
func (s *JobService) ResumeAfterApproval(ctx context.Context, jobID string) error {
	job, err := s.jobDao.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	tasks, err := s.taskDao.ListByJob(ctx, jobID)
	if err != nil {
		return err
	}
	hosts, err := s.resolver.Resolve(ctx, job.TargetHosts, nil)
	if err != nil {
		return err
	}
	spec := CommandSpec{
		JobType:         job.JobType,
		Command:         job.Command,
		Script:          job.Script,
		ExecuteUser:     job.ExecuteUser,
		ConcurrentLimit: job.ConcurrentLimit,
		TimeoutSecs:     job.TimeoutSecs,
		RetryTimes:      job.RetryTimes,
	}
	if err := s.dispatch(ctx, job, tasks, hosts, spec); err != nil {
		return err
	}
	return s.jobDao.UpdateStatus(ctx, jobID, model.JobStatusRunning)
}

// CancelApprovalRejection cancels a job whose approval request was rejected
// (spec §4.5). Expired requests are handled by the approval Sweeper.
func (s *JobService) CancelApprovalRejection(ctx context.Context, jobID string) error {
	return s.jobDao.UpdateStatus(ctx, jobID, model.JobStatusCancelled)
}

// Redispatch republishes a command/script job's non-terminal tasks, used
// by the recovery sweep for jobs flagged needs_redispatch or stuck pending
// (spec §4.1, §7 Recovery).
func (s *JobService) Redispatch(ctx context.Context, jobID string) error {
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
	hosts, err := s.resolver.Resolve(ctx, job.TargetHosts, nil)
	if err != nil {
		return err
	}
	spec := CommandSpec{
		JobType:         job.JobType,
		Command:         job.Command,
		Script:          job.Script,
		ExecuteUser:     job.ExecuteUser,
		ConcurrentLimit: job.ConcurrentLimit,
		TimeoutSecs:     job.TimeoutSecs,
		RetryTimes:      job.RetryTimes,
	}
	if err := s.dispatch(ctx, job, tasks, hosts, spec); err != nil {
		return err
	}
	if job.Status == model.JobStatusPending {
		if err := s.jobDao.UpdateStatus(ctx, jobID, model.JobStatusRunning); err != nil {
			return err
		}
	}
	return s.jobDao.ClearDispatchFailed(ctx, jobID)
}

func (s *JobService) dispatch(ctx context.Context, job *model.Job, tasks []*model.Task, hosts []*model.Host, spec CommandSpec) error {
	hostByID := make(map[string]*model.Host, len(hosts))
	for _, h := range hosts {
		hostByID[h.ID] = h
	}
	now := time.Now()
	capability := spec.RequiredCapability
	if capability == "" {
		capability = "general"
	}
	for _, t := range tasks {
		h := hostByID[t.HostID]
		if h == nil {
			continue
		}
		envelope := queue.TaskEnvelope{
			TaskID:      t.ID,
			JobID:       job.ID,
			Attempt:     t.Attempt,
			JobType:     string(job.JobType),
			HostID:      h.ID,
			HostAddress: h.Address,
			HostPort:    h.Port,
			Credential:  credentialFor(h),
			Command:     job.Command,
			Script:      job.Script,
			ExecuteUser: job.ExecuteUser,
			TimeoutSecs: job.TimeoutSecs,
			MaxRetries:  t.MaxRetries,
		}
		if err := s.publisher.PublishTask(ctx, capability, h.Environment, envelope); err != nil {
			// Fatal to dispatch: leave job retriable for the reconciliation
			// sweep instead of surfacing synchronously (spec §4.1, §7).
			_ = s.jobDao.MarkDispatchFailed(ctx, job.ID)
			return err
		}
	}
	job.StartedAt = &now
	return nil
}

// Cancel with no taskIDs marks the job cancelled and signals every
// non-terminal task via the control bus (spec §4.1). With taskIDs it only
// signals those tasks; job and task rows change when the runners report.
func (s *JobService) Cancel(ctx context.Context, jobID string, taskIDs []string, issuedBy string) error {
	job, err := s.jobDao.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return nil // spec §8: cancel on terminal job is a no-op.
	}

	sig := queue.ControlSignal{Kind: "cancel", JobID: jobID, IssuedAt: time.Now(), IssuedBy: issuedBy}

	if len(taskIDs) == 0 {
		nonTerminal, err := s.taskDao.ListNonTerminalByJob(ctx, jobID)
		if err != nil {
			return err
		}
		if err := s.jobDao.UpdateStatus(ctx, jobID, model.JobStatusCancelled); err != nil {
			return err
		}
		s.audit.Log(issuedBy, jobID, common.AuditJobCancel, "", "cancelled")
		for _, t := range nonTerminal {
			taskSig := sig
			taskSig.TaskID = t.ID
			if err := s.controlBus.PublishTaskControl(ctx, t.ID, taskSig); err != nil {
				return err
			}
		}
		return nil
	}

	for _, taskID := range taskIDs {
		taskSig := sig
		taskSig.TaskID = taskID
		if err := s.controlBus.PublishTaskControl(ctx, taskID, taskSig); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTerminalResult is invoked by the result consumer for every terminal
// message; it deduplicates by (task_id, attempt), updates the task row,
// and rolls up the job's aggregate counters under the optimistic lock.
func (s *JobService) ApplyTerminalResult(ctx context.Context, msg queue.TerminalMessage) error {
	applied, err := s.taskDao.ApplyTerminal(ctx, msg.TaskID, msg.Attempt, func(t *model.Task) error {
		t.Status = model.TaskStatus(msg.Status)
		t.FailureReason = model.FailureReason(msg.FailureReason)
		t.FailureMessage = msg.FailureMessage
		t.ExitCode = msg.ExitCode
		t.StartedAt = &msg.StartedAt
		t.CompletedAt = &msg.CompletedAt
		t.DurationMs = msg.DurationMs
		t.OutputSummary = msg.OutputSummary
		t.OutputDetail = msg.OutputDetail
		t.Truncated = msg.Truncated
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		// Duplicate terminal redelivery: job counters must stay unchanged
		// (spec §8 round-trip property).
		return nil
	}

	counters, err := s.taskDao.CountByJobAndStatus(ctx, msg.JobID)
	if err != nil {
		return err
	}

	return s.jobDao.ApplyCounters(ctx, msg.JobID, func(j *model.Job) error {
		j.SucceededTasks = counters.Succeeded
		j.FailedTasks = counters.Failed
		j.TimeoutTasks = counters.Timeout
		j.CancelledTasks = counters.Cancelled
		if j.Status.IsTerminal() {
			// Already terminal (e.g. cancelled by an operator): only the
			// counters follow late results; the status stays as it is.
			return nil
		}
		if !counters.StillRunning() {
			now := time.Now()
			j.CompletedAt = &now
			j.Status = counters.Rollup()
		} else {
			j.Status = model.JobStatusRunning
		}
		if j.Status.IsTerminal() {
			s.audit.Log("runner", j.ID, common.AuditJobTerminal, string(j.Status), "terminal")
		}
		return nil
	})
}

// Get returns a job by ID.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	return s.jobDao.GetByID(ctx, id)
}

// ListTasks returns every task belonging to a job.
func (s *JobService) ListTasks(ctx context.Context, jobID string) ([]*model.Task, error) {
	return s.taskDao.ListByJob(ctx, jobID)
}

func validateCommandSpec(spec CommandSpec) error {
	if spec.JobType == model.JobTypeCommand && spec.Command == "" {
		return common.NewErrNo(common.ValidationFailed)
	}
	if spec.JobType == model.JobTypeScript && spec.Script == "" {
		return common.NewErrNo(common.ValidationFailed)
	}
	if len(spec.TargetHostIDs) == 0 && len(spec.TargetGroupIDs) == 0 {
		return common.NewErrNo(common.RequestInvalid)
	}
	maxTimeout := common.GetConfig().MaxTimeoutSecs
	if spec.TimeoutSecs <= 0 || spec.TimeoutSecs > maxTimeout {
		return common.NewErrNo(common.ValidationFailed)
	}
	return nil
}

func hostIDs(hosts []*model.Host) model.JSONStringList {
	ids := make(model.JSONStringList, len(hosts))
	for i, h := range hosts {
		ids[i] = h.ID
	}
	return ids
}

// dominantEnv reports prod if any resolved host is in prod — the trigger
// predicate is "any target with environment = prod" (spec §4.5), so the
// exact dispatch-queue environment label only matters per-host at publish
// time; this helper is used solely for the approval trigger check.
func dominantEnv(hosts []*model.Host) string {
	for _, h := range hosts {
		if h.Environment == "prod" {
			return "prod"
		}
	}
	if len(hosts) > 0 {
		return hosts[0].Environment
	}
	return "dev"
}

func credentialFor(h *model.Host) queue.Credential {
	if h.HasCredential() {
		return queue.Credential{Username: h.Username, Password: h.Password, PrivateKey: h.PrivateKey, Passphrase: h.Passphrase}
	}
	username, password, ok := common.GetConfig().DefaultCredentialFor(h.Environment)
	if !ok {
		return queue.Credential{}
	}
	return queue.Credential{Username: username, Password: password}
}

package handler

import (
	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/orchestrator/api"
	"github.com/fleetops/fleetops/internal/orchestrator/middleware"
	"github.com/fleetops/fleetops/internal/orchestrator/service"
	"github.com/gin-gonic/gin"
)

// JobHandler exposes the Submission API's job endpoints (spec §6).
type JobHandler struct {
	jobService *service.JobService
}

// NewJobHandler constructs a JobHandler bound to the given JobService.
func NewJobHandler(jobService *service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// CreateCommand handles POST /jobs/command.
func (h *JobHandler) CreateCommand(c *gin.Context) {
	var req api.CreateCommandJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}
	principalID, _ := middleware.PrincipalFrom(c)

	job, err := h.jobService.Submit(c, principalID, service.CommandSpec{
		JobType:         model.JobTypeCommand,
		Name:            req.Name,
		Description:     req.Description,
		TargetHostIDs:   req.TargetHosts,
		TargetGroupIDs:  req.TargetGroups,
		Command:         req.Command,
		ExecuteUser:     req.ExecuteUser,
		ConcurrentLimit: req.ConcurrentLimit,
		TimeoutSecs:     req.TimeoutSecs,
		RetryTimes:      req.RetryTimes,
		Tags:            req.Tags,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, toJobResponse(job))
}

// CreateScript handles POST /jobs/script.
func (h *JobHandler) CreateScript(c *gin.Context) {
	var req api.CreateScriptJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}
	principalID, _ := middleware.PrincipalFrom(c)

	job, err := h.jobService.Submit(c, principalID, service.CommandSpec{
		JobType:         model.JobTypeScript,
		Name:            req.Name,
		Description:     req.Description,
		TargetHostIDs:   req.TargetHosts,
		TargetGroupIDs:  req.TargetGroups,
		Script:          req.Script,
		ScriptPath:      req.ScriptPath,
		ExecuteUser:     req.ExecuteUser,
		ConcurrentLimit: req.ConcurrentLimit,
		TimeoutSecs:     req.TimeoutSecs,
		RetryTimes:      req.RetryTimes,
		Tags:            req.Tags,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, toJobResponse(job))
}

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobService.Get(c, c.Param("id"))
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, toJobResponse(job))
}

// ListTasks handles GET /jobs/:id/tasks.
func (h *JobHandler) ListTasks(c *gin.Context) {
	tasks, err := h.jobService.ListTasks(c, c.Param("id"))
	if err != nil {
		common.Error(c, err)
		return
	}
	resp := make([]api.TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = toTaskResponse(t)
	}
	common.Success(c, resp)
}

// Cancel handles POST /jobs/:id/cancel.
func (h *JobHandler) Cancel(c *gin.Context) {
	var req api.CancelJobRequest
	_ = c.ShouldBindJSON(&req)
	principalID, _ := middleware.PrincipalFrom(c)

	if err := h.jobService.Cancel(c, c.Param("id"), req.TaskIDs, principalID); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, nil)
}

func toJobResponse(j *model.Job) api.JobResponse {
	resp := api.JobResponse{
		ID:             j.ID,
		JobType:        string(j.JobType),
		Name:           j.Name,
		Status:         string(j.Status),
		TargetHosts:    j.TargetHosts,
		TotalTasks:     j.TotalTasks,
		SucceededTasks: j.SucceededTasks,
		FailedTasks:    j.FailedTasks,
		TimeoutTasks:   j.TimeoutTasks,
		CancelledTasks: j.CancelledTasks,
		CreatedAt:      j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if j.StartedAt != nil {
		resp.StartedAt = j.StartedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if j.CompletedAt != nil {
		resp.CompletedAt = j.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

func toTaskResponse(t *model.Task) api.TaskResponse {
	return api.TaskResponse{
		ID:             t.ID,
		HostID:         t.HostID,
		Status:         string(t.Status),
		FailureReason:  string(t.FailureReason),
		FailureMessage: t.FailureMessage,
		ExitCode:       t.ExitCode,
		DurationMs:     t.DurationMs,
		OutputSummary:  t.OutputSummary,
		Truncated:      t.Truncated,
		RetryCount:     t.RetryCount,
	}
}

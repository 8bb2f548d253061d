package handler

import (
	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/orchestrator/api"
	"github.com/fleetops/fleetops/internal/orchestrator/middleware"
	"github.com/fleetops/fleetops/internal/orchestrator/service"
	"github.com/fleetops/fleetops/internal/orchestrator/template"
	"github.com/gin-gonic/gin"
)

// BuildHandler exposes the build-job submission endpoint (spec §4.4, §6).
type BuildHandler struct {
	buildService *service.BuildService
	templates    *template.Store
}

// NewBuildHandler constructs a BuildHandler.
func NewBuildHandler(buildService *service.BuildService, templates *template.Store) *BuildHandler {
	return &BuildHandler{buildService: buildService, templates: templates}
}

// Create handles POST /jobs/build.
func (h *BuildHandler) Create(c *gin.Context) {
	var req api.CreateBuildJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}
	principalID, _ := middleware.PrincipalFrom(c)

	var steps []service.BuildStepInput
	if len(req.Steps) > 0 {
		steps = make([]service.BuildStepInput, len(req.Steps))
		for i, s := range req.Steps {
			steps[i] = service.BuildStepInput{
				StepType: s.StepType, Command: s.Command, ContinueOnFailure: s.ContinueOnFailure,
				ArtifactName: s.ArtifactName, ArtifactType: s.ArtifactType,
				ArtifactPath: s.ArtifactPath, ArtifactVersion: s.ArtifactVersion,
				CleanupPath: s.CleanupPath,
			}
		}
	} else if h.templates != nil {
		for _, s := range h.templates.DefaultSteps(req.BuildType) {
			steps = append(steps, service.BuildStepInput{
				StepType: s.StepType, Command: s.Command, ContinueOnFailure: s.ContinueOnFailure,
				ArtifactName: s.ArtifactName, ArtifactType: s.ArtifactType,
				ArtifactPath: s.ArtifactPath, ArtifactVersion: s.ArtifactVersion,
				CleanupPath: s.CleanupPath,
			})
		}
	}

	job, err := h.buildService.Submit(c, principalID, service.BuildSpec{
		Name:               req.Name,
		ProjectName:        req.ProjectName,
		RepositoryURL:      req.RepositoryURL,
		Branch:             req.Branch,
		CommitSHA:          req.CommitSHA,
		BuildType:          model.BuildType(req.BuildType),
		EnvVars:            req.EnvVars,
		RequiredCapability: req.RequiredCapability,
		Steps:              steps,
		TimeoutSecs:        req.TimeoutSecs,
		IdempotencyKey:     req.IdempotencyKey,
	})
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, toJobResponse(job))
}

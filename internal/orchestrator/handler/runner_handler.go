package handler

import (
	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/orchestrator/api"
	"github.com/fleetops/fleetops/internal/orchestrator/runnerregistry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RunnerHandler exposes the registration endpoint a runner process calls
// once on startup (spec §3.7).
type RunnerHandler struct {
	registry *runnerregistry.Registry
}

// NewRunnerHandler wires the default registry.
func NewRunnerHandler() *RunnerHandler {
	return &RunnerHandler{registry: runnerregistry.NewRegistry()}
}

// Register upserts a runner row keyed by name and hands back its ID.
func (h *RunnerHandler) Register(c *gin.Context) {
	var req api.RegisterRunnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}

	runner := &model.Runner{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Capabilities:      model.JSONStringList(req.Capabilities),
		MaxConcurrentJobs: req.MaxConcurrentJobs,
	}
	if err := h.registry.Upsert(c.Request.Context(), runner); err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, api.RegisterRunnerResponse{ID: runner.ID})
}

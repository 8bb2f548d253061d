package handler

import (
	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/orchestrator/api"
	"github.com/fleetops/fleetops/internal/orchestrator/middleware"
	"github.com/fleetops/fleetops/internal/orchestrator/service"
	"github.com/gin-gonic/gin"
)

// ApprovalHandler exposes the approval-decision endpoint (spec §6).
type ApprovalHandler struct {
	approvalService *service.ApprovalService
}

// NewApprovalHandler constructs an ApprovalHandler.
func NewApprovalHandler(approvalService *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// Get handles GET /approvals/:id.
func (h *ApprovalHandler) Get(c *gin.Context) {
	req, err := h.approvalService.Get(c, c.Param("id"))
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, toApprovalResponse(req))
}

// Decide handles POST /approvals/:id/decide.
func (h *ApprovalHandler) Decide(c *gin.Context) {
	var req api.DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}
	principalID, _ := middleware.PrincipalFrom(c)

	updated, err := h.approvalService.Decide(c, c.Param("id"), principalID, req.Decision, req.Comment)
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, toApprovalResponse(updated))
}

func toApprovalResponse(r *model.ApprovalRequest) api.ApprovalResponse {
	resp := api.ApprovalResponse{
		ID:                r.ID,
		JobID:             r.JobID,
		Status:            string(r.Status),
		Triggers:          r.Triggers,
		RequiredApprovers: r.RequiredApprovers,
		CurrentApprovals:  r.CurrentApprovals,
	}
	if r.ExpiresAt != nil {
		resp.ExpiresAt = r.ExpiresAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

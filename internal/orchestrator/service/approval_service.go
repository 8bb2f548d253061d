package service

import (
	"context"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/orchestrator/approval"
)

// ApprovalService bridges approval decisions to the job lifecycle: a
// decision that closes a request (approved or rejected) must resume or
// cancel the gated job in the same call (spec §4.5).
type ApprovalService struct {
	gate       *approval.Gate
	jobService *JobService
	audit      common.Sink
}

// NewApprovalService wires the default Gate to a JobService.
func NewApprovalService(jobService *JobService, audit common.Sink) *ApprovalService {
	return &ApprovalService{gate: approval.NewGate(), jobService: jobService, audit: audit}
}

// Decide validates and records an approver's decision, enforcing "not the
// requester" at this layer (the DAO enforces "not already decided" and
// terminal-request rejection; requester-eligibility is a policy check the
// data layer has no opinion on).
func (s *ApprovalService) Decide(ctx context.Context, requestID, approverID, decision, comment string) (*model.ApprovalRequest, error) {
	req, err := s.gate.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if approverID == req.RequestedBy {
		return nil, common.NewErrNo(common.ApproverNotEligible)
	}
	if req.ApprovalGroupID != "" {
		group, err := s.gate.GetGroup(ctx, req.ApprovalGroupID)
		if err != nil {
			return nil, err
		}
		if !group.HasMember(approverID) {
			return nil, common.NewErrNo(common.ApproverNotEligible)
		}
	}

	var dec model.ApprovalDecision
	switch decision {
	case "approve":
		dec = model.DecisionApprove
	case "reject":
		dec = model.DecisionReject
	default:
		return nil, common.NewErrNo(common.RequestInvalid)
	}

	updated, err := s.gate.Decide(ctx, requestID, approverID, dec, comment)
	if err != nil {
		return nil, err
	}

	switch updated.Status {
	case model.ApprovalStatusApproved:
		s.audit.Log(approverID, updated.JobID, common.AuditApprovalGrant, comment, "approved")
		if err := s.jobService.ResumeAfterApproval(ctx, updated.JobID); err != nil {
			return nil, err
		}
	case model.ApprovalStatusRejected:
		s.audit.Log(approverID, updated.JobID, common.AuditApprovalReject, comment, "rejected")
		if err := s.jobService.CancelApprovalRejection(ctx, updated.JobID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Get returns an approval request by ID.
func (s *ApprovalService) Get(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	return s.gate.Get(ctx, id)
}

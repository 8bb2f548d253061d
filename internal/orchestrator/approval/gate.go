package approval

import (
	"context"
	"time"

	"github.com/fleetops/fleetops/internal/dao"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/google/uuid"
)

// ExpiryWindow is how long an approval request stays open before the
// sweeper expires it (spec §4.5).
const ExpiryWindow = 24 * time.Hour

// DefaultApprovalGroupID names the fleet's standing "default approvers"
// group. Nothing in this package reads it: Open uses only the groupID its
// caller passes, and an empty groupID requires a single approval.
var DefaultApprovalGroupID = "default-approvers"

// Gate evaluates whether a job must be held for approval before dispatch,
// and owns the request/decision lifecycle once it is (spec §4.5).
type Gate struct {
	approvalDao dao.ApprovalDao
}

// NewGate constructs a Gate against the default ApprovalDao.
func NewGate() *Gate {
	return &Gate{approvalDao: dao.NewApprovalDao()}
}

// EvaluateTriggers returns the subset of triggers that hold for a
// submission. Any non-empty result means the job must wait for approval
// instead of dispatching immediately.
func EvaluateTriggers(env string, anyCriticalGroup, templateRequiresApproval bool) []model.Trigger {
	var triggers []model.Trigger
	if env == "prod" {
		triggers = append(triggers, model.TriggerProdEnv)
	}
	if anyCriticalGroup {
		triggers = append(triggers, model.TriggerCriticalGroup)
	}
	if templateRequiresApproval {
		triggers = append(triggers, model.TriggerTemplateRequiresApproval)
	}
	return triggers
}

// Open creates the approval_requests row gating jobID, using the group's
// own quorum if groupID is given, or requiring a single approval otherwise.
func (g *Gate) Open(ctx context.Context, jobID string, triggers []model.Trigger, requestedBy, groupID string) (*model.ApprovalRequest, error) {
	required := 1
	if groupID != "" {
		group, err := g.approvalDao.GetGroup(ctx, groupID)
		if err != nil {
			return nil, err
		}
		required = group.RequiredApprovals
	}

	triggerStrs := make(model.JSONStringList, len(triggers))
	for i, t := range triggers {
		triggerStrs[i] = string(t)
	}

	expiresAt := time.Now().Add(ExpiryWindow)
	req := &model.ApprovalRequest{
		ID:                uuid.NewString(),
		JobID:             jobID,
		Triggers:          triggerStrs,
		RequiredApprovers: required,
		ApprovalGroupID:   groupID,
		Status:            model.ApprovalStatusPending,
		RequestedBy:       requestedBy,
		RequestedAt:       time.Now(),
		ExpiresAt:         &expiresAt,
	}
	if err := g.approvalDao.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Decide records approverID's decision and returns the updated request,
// whose Status reflects whether quorum (or a reject) closed it.
func (g *Gate) Decide(ctx context.Context, requestID, approverID string, decision model.ApprovalDecision, comment string) (*model.ApprovalRequest, error) {
	rec := &model.ApprovalRecord{
		ID:                uuid.NewString(),
		ApprovalRequestID: requestID,
		ApproverID:        approverID,
		Decision:          decision,
		Comment:           comment,
		DecidedAt:         time.Now(),
	}
	return g.approvalDao.RecordDecision(ctx, rec)
}

// Get returns a request by ID.
func (g *Gate) Get(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	return g.approvalDao.GetByID(ctx, id)
}

// GetByJob returns the approval request, if any, gating a job.
func (g *Gate) GetByJob(ctx context.Context, jobID string) (*model.ApprovalRequest, error) {
	return g.approvalDao.GetByJobID(ctx, jobID)
}

// GetGroup returns an approval group by ID, used by ApprovalService to
// check approver membership before recording a decision.
func (g *Gate) GetGroup(ctx context.Context, id string) (*model.ApprovalGroup, error) {
	return g.approvalDao.GetGroup(ctx, id)
}

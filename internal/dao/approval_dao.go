package dao

import (
	"context"
	"errors"
	"time"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"gorm.io/gorm"
)

// ApprovalDao owns the approval_requests/approval_records/approval_groups
// tables (spec §4.5).
type ApprovalDao interface {
	Create(ctx context.Context, req *model.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*model.ApprovalRequest, error)
	GetByJobID(ctx context.Context, jobID string) (*model.ApprovalRequest, error)
	ListPending(ctx context.Context) ([]*model.ApprovalRequest, error)
	ListExpiring(ctx context.Context) ([]*model.ApprovalRequest, error)

	// RecordDecision inserts the approver's decision and, within the same
	// transaction, advances the request's status once the quorum (or a
	// single reject) is reached. Returns common.AlreadyDecided if the
	// approver already has a record on this request (the uniqueIndex on
	// (ApprovalRequestID, ApproverID) is the actual enforcement; this check
	// gives callers a clean ErrNo instead of a raw constraint error).
	RecordDecision(ctx context.Context, rec *model.ApprovalRecord) (*model.ApprovalRequest, error)
	MarkExpired(ctx context.Context, requestID string) error

	GetGroup(ctx context.Context, id string) (*model.ApprovalGroup, error)
}

type approvalDAO struct{}

// NewApprovalDao constructs the default GORM-backed ApprovalDao.
func NewApprovalDao() ApprovalDao {
	return &approvalDAO{}
}

func (d *approvalDAO) Create(ctx context.Context, req *model.ApprovalRequest) error {
	return db.WithContext(ctx).Create(req).Error
}

func (d *approvalDAO) GetByID(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.ApprovalNotFound)
		}
		return nil, err
	}
	return &req, nil
}

func (d *approvalDAO) GetByJobID(ctx context.Context, jobID string) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := db.WithContext(ctx).Where("job_id = ?", jobID).Take(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.ApprovalNotFound)
		}
		return nil, err
	}
	return &req, nil
}

func (d *approvalDAO) ListPending(ctx context.Context) ([]*model.ApprovalRequest, error) {
	var reqs []*model.ApprovalRequest
	err := db.WithContext(ctx).Where("status = ?", model.ApprovalStatusPending).Find(&reqs).Error
	return reqs, err
}

func (d *approvalDAO) ListExpiring(ctx context.Context) ([]*model.ApprovalRequest, error) {
	var reqs []*model.ApprovalRequest
	err := db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= NOW()", model.ApprovalStatusPending).
		Find(&reqs).Error
	return reqs, err
}

func (d *approvalDAO) RecordDecision(ctx context.Context, rec *model.ApprovalRecord) (*model.ApprovalRequest, error) {
	var result *model.ApprovalRequest
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.ApprovalRequest
		if err := tx.Where("id = ?", rec.ApprovalRequestID).Take(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NewErrNo(common.ApprovalNotFound)
			}
			return err
		}
		if req.Status.IsTerminal() {
			return common.NewErrNo(common.RequestExpired)
		}

		var existing model.ApprovalRecord
		err := tx.Where("approval_request_id = ? AND approver_id = ?", rec.ApprovalRequestID, rec.ApproverID).
			Take(&existing).Error
		switch {
		case err == nil:
			return common.NewErrNo(common.AlreadyDecided)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Create(rec).Error; err != nil {
			return err
		}

		if rec.Decision == model.DecisionReject {
			// A single reject is terminal regardless of quorum (spec §4.5).
			req.Status = model.ApprovalStatusRejected
		} else {
			req.CurrentApprovals++
			if req.CurrentApprovals >= req.RequiredApprovers {
				req.Status = model.ApprovalStatusApproved
			}
		}
		if req.Status.IsTerminal() {
			now := time.Now()
			req.CompletedAt = &now
		}
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		result = &req
		return nil
	})
	return result, err
}

func (d *approvalDAO) MarkExpired(ctx context.Context, requestID string) error {
	return db.WithContext(ctx).Model(&model.ApprovalRequest{}).
		Where("id = ? AND status = ?", requestID, model.ApprovalStatusPending).
		Update("status", model.ApprovalStatusExpired).Error
}

func (d *approvalDAO) GetGroup(ctx context.Context, id string) (*model.ApprovalGroup, error) {
	var g model.ApprovalGroup
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

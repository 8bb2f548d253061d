package model

import "time"

// ApprovalStatus is the approval request's own small state machine
// (spec §3, §4.5).
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
	ApprovalStatusExpired  ApprovalStatus = "expired"
)

// IsTerminal reports whether the request may accept further decisions.
func (s ApprovalStatus) IsTerminal() bool {
	switch s {
	case ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusExpired:
		return true
	default:
		return false
	}
}

// Trigger names a risk predicate that can hold a job for approval
// (spec §4.5).
type Trigger string

const (
	TriggerProdEnv                 Trigger = "prod_env"
	TriggerCriticalGroup           Trigger = "critical_group"
	TriggerTemplateRequiresApproval Trigger = "template_requires_approval"
)

// ApprovalRequest gates dispatch of a job that tripped a risk trigger.
type ApprovalRequest struct {
	ID      string  `gorm:"type:varchar(36);primaryKey"`
	JobID   string  `gorm:"type:varchar(36);not null;index"`
	Triggers JSONStringList `gorm:"type:text"`

	RequiredApprovers int    `gorm:"not null"`
	ApprovalGroupID   string `gorm:"type:varchar(36)"`

	Status           ApprovalStatus `gorm:"type:varchar(16);not null;index"`
	CurrentApprovals int            `gorm:"not null;default:0"`

	RequestedBy string    `gorm:"type:varchar(36);not null"`
	RequestedAt time.Time `gorm:"not null"`

	ExpiresAt *time.Time `gorm:"index"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// TableName pins the GORM table name.
func (ApprovalRequest) TableName() string { return "approval_requests" }

// ApprovalDecision is an individual approver's recorded decision.
type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "approve"
	DecisionReject  ApprovalDecision = "reject"
)

// ApprovalRecord is one approver's decision on a request.
type ApprovalRecord struct {
	ID                string           `gorm:"type:varchar(36);primaryKey"`
	ApprovalRequestID string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_request_approver"`
	ApproverID        string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_request_approver"`
	Decision          ApprovalDecision `gorm:"type:varchar(16);not null"`
	Comment           string           `gorm:"type:text"`
	DecidedAt         time.Time        `gorm:"not null"`
	CreatedAt         time.Time
}

// TableName pins the GORM table name.
func (ApprovalRecord) TableName() string { return "approval_records" }

// ApprovalGroup scopes which principals may decide on a request.
type ApprovalGroup struct {
	ID                string         `gorm:"type:varchar(36);primaryKey"`
	Name              string         `gorm:"type:varchar(255);not null"`
	MemberIDs         JSONStringList `gorm:"type:text"`
	RequiredApprovals int            `gorm:"not null;default:1"`
	IsActive          bool           `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName pins the GORM table name.
func (ApprovalGroup) TableName() string { return "approval_groups" }

// HasMember reports whether principalID belongs to the group.
func (g ApprovalGroup) HasMember(principalID string) bool {
	return g.MemberIDs.Contains(principalID)
}

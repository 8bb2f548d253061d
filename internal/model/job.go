package model

import (
	"time"
)

// JobType distinguishes the three payload shapes a job can carry.
type JobType string

const (
	JobTypeCommand JobType = "command"
	JobTypeScript  JobType = "script"
	JobTypeBuild   JobType = "build"
)

// JobStatus is the aggregate status rolled up from task outcomes (spec §4.1).
type JobStatus string

const (
	JobStatusPending            JobStatus = "pending"
	JobStatusAwaitingApproval   JobStatus = "awaiting_approval"
	JobStatusRunning            JobStatus = "running"
	JobStatusCompleted          JobStatus = "completed"
	JobStatusFailed             JobStatus = "failed"
	JobStatusPartiallySucceeded JobStatus = "partially_succeeded"
	JobStatusCancelled          JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are legal for this status.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusPartiallySucceeded, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// StringList is a plain []string. Unlike JSONStringList it has no
// Value/Scan methods, so it does not serialize into a column; the model's
// list columns (target_hosts/target_groups/tags) use JSONStringList.
type StringList []string

// Job is the top-level batch operation row the orchestrator owns.
type Job struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	JobType     JobType `gorm:"type:varchar(16);not null;index"`
	Name        string  `gorm:"type:varchar(255);not null"`
	Description string  `gorm:"type:text"`
	Status      JobStatus `gorm:"type:varchar(32);not null;index"`

	// Frozen target set (spec §4.1): immutable once the job is created.
	TargetHosts JSONStringList `gorm:"type:text"`

	Command        string `gorm:"type:text"`
	Script         string `gorm:"type:text"`
	ScriptPath     string `gorm:"type:varchar(512)"`
	ConcurrentLimit int    `gorm:"not null"`
	TimeoutSecs     int    `gorm:"not null"`
	RetryTimes      int    `gorm:"not null;default:0"`
	ExecuteUser     string `gorm:"type:varchar(64)"`

	IdempotencyKey string `gorm:"type:varchar(255);uniqueIndex:idx_job_creator_idem"`
	CreatedBy      string `gorm:"type:varchar(36);not null;uniqueIndex:idx_job_creator_idem"`

	TotalTasks     int `gorm:"not null;default:0"`
	SucceededTasks int `gorm:"not null;default:0"`
	FailedTasks    int `gorm:"not null;default:0"`
	TimeoutTasks   int `gorm:"not null;default:0"`
	CancelledTasks int `gorm:"not null;default:0"`

	// Version guards the optimistic lock used by counter aggregation
	// (spec §5, §9 — "optimistic locking vs row locks").
	Version int `gorm:"not null;default:0"`

	Tags JSONStringList `gorm:"type:text"`

	NeedsRedispatch bool `gorm:"not null;default:false;index"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// TableName pins the GORM table name.
func (Job) TableName() string { return "jobs" }

// Counters bundles the rolling outcome counts for aggregation math.
type Counters struct {
	Total     int
	Succeeded int
	Failed    int
	Timeout   int
	Cancelled int
	Running   int
	Pending   int
}

// Rollup computes the terminal job status for a finished counter set,
// implementing the four-way decision table of spec §4.1 verbatim.
func (c Counters) Rollup() JobStatus {
	switch {
	case c.Succeeded == c.Total:
		return JobStatusCompleted
	case c.Failed+c.Timeout > 0 && c.Succeeded > 0:
		return JobStatusPartiallySucceeded
	case c.Succeeded == 0 && c.Failed+c.Timeout > 0:
		return JobStatusFailed
	case c.Cancelled > 0 && c.Succeeded == 0:
		return JobStatusCancelled
	default:
		return JobStatusFailed
	}
}

// StillRunning reports whether any task has not yet reached a terminal state.
func (c Counters) StillRunning() bool {
	return c.Running+c.Pending > 0
}

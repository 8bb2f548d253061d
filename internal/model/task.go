package model

import "time"

// TaskStatus is the per-host task's state machine status (spec §3, §4.3).
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusTimeout   TaskStatus = "timeout"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the task may no longer transition (spec §3
// invariant: a terminal task is never reopened).
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusTimeout, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// FailureReason is the closed tagged enumeration the UI and retry policy
// depend on (spec §9 — never a free-form string).
type FailureReason string

const (
	FailureNone              FailureReason = ""
	FailureNetworkError      FailureReason = "network_error"
	FailureAuthFailed        FailureReason = "auth_failed"
	FailureConnectionTimeout FailureReason = "connection_timeout"
	FailureHandshakeTimeout  FailureReason = "handshake_timeout"
	FailureCommandTimeout    FailureReason = "command_timeout"
	FailureCommandFailed     FailureReason = "command_failed"
	FailureWorkspaceViolation FailureReason = "workspace_violation"
	FailureUnknown           FailureReason = "unknown"
)

// Retryable reports whether this failure reason is eligible for a retry
// (spec §4.3): only transport-phase failures are, never auth/command ones.
func (f FailureReason) Retryable() bool {
	switch f {
	case FailureNetworkError, FailureConnectionTimeout, FailureHandshakeTimeout:
		return true
	default:
		return false
	}
}

// Task is one (job, host) execution unit.
type Task struct {
	ID     string `gorm:"type:varchar(36);primaryKey"`
	JobID  string `gorm:"type:varchar(36);not null;index"`
	HostID string `gorm:"type:varchar(36);not null;index"`

	Status         TaskStatus    `gorm:"type:varchar(16);not null;index"`
	FailureReason  FailureReason `gorm:"type:varchar(32)"`
	FailureMessage string        `gorm:"type:text"`

	ExitCode      *int       `gorm:""`
	StartedAt     *time.Time `gorm:""`
	CompletedAt   *time.Time `gorm:""`
	DurationMs    int64      `gorm:"not null;default:0"`

	// OutputSummary is the bounded tail (spec §4.3 — e.g. last 4 KiB).
	OutputSummary string `gorm:"type:text"`
	// OutputDetail is the full captured output, stored inline per the
	// Open Question resolution recorded in SPEC_FULL.md §5.1.
	OutputDetail string `gorm:"type:longtext"`
	Truncated    bool   `gorm:"not null;default:false"`

	RetryCount int `gorm:"not null;default:0"`
	MaxRetries int `gorm:"not null;default:0"`
	// Attempt increments on every retry while TaskID stays fixed; used for
	// (task_id, attempt) deduplication at the orchestrator (spec §4.2, §7).
	Attempt int `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the GORM table name.
func (Task) TableName() string { return "tasks" }

// LastAppliedAttempt records the highest attempt number whose terminal
// result has already been applied to a task, so redelivered duplicates can
// be discarded (spec §4.2, §7, §8 round-trip property).
type LastAppliedAttempt struct {
	TaskID  string `gorm:"type:varchar(36);primaryKey"`
	Attempt int    `gorm:"not null"`
}

// TableName pins the GORM table name.
func (LastAppliedAttempt) TableName() string { return "task_applied_attempts" }

package model

import "time"

// RunnerStatus is the registration-side lifecycle of a runner process
// (spec §3, §4.3 heartbeat paragraph).
type RunnerStatus string

const (
	RunnerStatusActive      RunnerStatus = "active"
	RunnerStatusMaintenance RunnerStatus = "maintenance"
	RunnerStatusDisabled    RunnerStatus = "disabled"
	RunnerStatusUnavailable RunnerStatus = "unavailable"
)

// Runner is a registered worker process's durable row.
type Runner struct {
	ID                string         `gorm:"type:varchar(36);primaryKey"`
	Name              string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	Capabilities      JSONStringList `gorm:"type:text"`
	MaxConcurrentJobs int            `gorm:"not null"`
	InFlightCount     int            `gorm:"not null;default:0"`
	Status            RunnerStatus   `gorm:"type:varchar(16);not null;index"`
	LastHeartbeat     time.Time      `gorm:"index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName pins the GORM table name.
func (Runner) TableName() string { return "runners" }

// HasCapability reports whether the runner advertises cap.
func (r Runner) HasCapability(cap string) bool {
	return r.Capabilities.Contains(cap)
}

package model

import "time"

// BuildType classifies the project being built (spec §3).
type BuildType string

const (
	BuildTypeNode     BuildType = "node"
	BuildTypeJava     BuildType = "java"
	BuildTypeRust     BuildType = "rust"
	BuildTypeFrontend BuildType = "frontend"
	BuildTypeOther    BuildType = "other"
)

// BuildStepType is one of the five typed pipeline stages (spec §4.4).
type BuildStepType string

const (
	StepClone   BuildStepType = "clone"
	StepInstall BuildStepType = "install"
	StepTest    BuildStepType = "test"
	StepBuild   BuildStepType = "build"
	StepPackage BuildStepType = "package"
)

// BuildStepStatus is the per-step outcome (spec §4.4).
type BuildStepStatus string

const (
	BuildStepPending   BuildStepStatus = "pending"
	BuildStepRunning   BuildStepStatus = "running"
	BuildStepSucceeded BuildStepStatus = "succeeded"
	BuildStepFailed    BuildStepStatus = "failed"
	BuildStepSkipped   BuildStepStatus = "skipped"
)

// BuildJob is a build-type Job's extended attributes, stored alongside the
// base Job row (jobs.job_type = 'build').
type BuildJob struct {
	ID                  string    `gorm:"type:varchar(36);primaryKey"`
	JobID               string    `gorm:"type:varchar(36);not null;uniqueIndex"`
	ProjectName         string    `gorm:"type:varchar(255);not null"`
	RepositoryURL       string    `gorm:"type:varchar(1024);not null"`
	Branch              string    `gorm:"type:varchar(255)"`
	CommitSHA           string    `gorm:"type:varchar(64)"`
	BuildType           BuildType `gorm:"type:varchar(16);not null"`
	EnvVars             JSONStringList `gorm:"type:text"`
	RequiredCapability  string    `gorm:"type:varchar(64);not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName pins the GORM table name.
func (BuildJob) TableName() string { return "build_jobs" }

// BuildStep is one ordered step of a build job's pipeline.
type BuildStep struct {
	ID            string          `gorm:"type:varchar(36);primaryKey"`
	BuildJobID    string          `gorm:"type:varchar(36);not null;index"`
	Order         int             `gorm:"not null"`
	StepType      BuildStepType   `gorm:"type:varchar(16);not null"`
	Command       string          `gorm:"type:text;not null"`
	ContinueOnFailure bool        `gorm:"not null;default:false"`
	Status        BuildStepStatus `gorm:"type:varchar(16);not null"`
	DurationMs    int64           `gorm:"not null;default:0"`
	Summary       string          `gorm:"type:text"`
	Detail        string          `gorm:"type:longtext"`
	// Artifact* are only meaningful when StepType is StepPackage: they tell
	// the runner what to register once the step succeeds (spec §4.4
	// Artifacts).
	ArtifactName    string `gorm:"type:varchar(255)"`
	ArtifactType    string `gorm:"type:varchar(32)"`
	ArtifactPath    string `gorm:"type:varchar(1024)"`
	ArtifactVersion string `gorm:"type:varchar(64)"`
	// CleanupPath, if set, is removed from the workspace on the host after
	// this step succeeds, gated by the workspace-prefix invariant (spec
	// §4.4, §8 end-to-end scenario 6).
	CleanupPath string `gorm:"type:varchar(1024)"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName pins the GORM table name.
func (BuildStep) TableName() string { return "build_steps" }

// BuildArtifact is an immutable artifact metadata row. Bytes live in a
// separate blob store (spec §4.4, §6); this row holds only metadata plus
// the store's opaque handle.
type BuildArtifact struct {
	ID           string `gorm:"type:varchar(36);primaryKey"`
	BuildJobID   string `gorm:"type:varchar(36);not null;index"`
	Name         string `gorm:"type:varchar(255);not null"`
	ArtifactType string `gorm:"type:varchar(32);not null;uniqueIndex:idx_artifact_version_type"`
	Version      string `gorm:"type:varchar(64);not null;uniqueIndex:idx_artifact_version_type"`
	ArtifactPath string `gorm:"type:varchar(1024);not null"`
	SizeBytes    int64  `gorm:"not null"`
	SHA256       string `gorm:"type:varchar(64);not null"`
	DownloadCount int64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
}

// TableName pins the GORM table name.
func (BuildArtifact) TableName() string { return "build_artifacts" }

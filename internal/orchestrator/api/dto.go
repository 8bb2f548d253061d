package api

// CreateCommandJobRequest submits a command-type job against an explicit
// target set (spec §4.1, §7).
type CreateCommandJobRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	TargetHosts     []string `json:"target_hosts"`
	TargetGroups    []string `json:"target_groups"`
	Command         string   `json:"command" binding:"required"`
	ExecuteUser     string   `json:"execute_user"`
	ConcurrentLimit int      `json:"concurrent_limit"`
	TimeoutSecs     int      `json:"timeout_secs"`
	RetryTimes      int      `json:"retry_times"`
	Tags            []string `json:"tags"`
	IdempotencyKey  string   `json:"idempotency_key"`
}

// CreateScriptJobRequest submits a script-type job.
type CreateScriptJobRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	TargetHosts     []string `json:"target_hosts"`
	TargetGroups    []string `json:"target_groups"`
	Script          string   `json:"script" binding:"required"`
	ScriptPath      string   `json:"script_path"`
	ExecuteUser     string   `json:"execute_user"`
	ConcurrentLimit int      `json:"concurrent_limit"`
	TimeoutSecs     int      `json:"timeout_secs"`
	RetryTimes      int      `json:"retry_times"`
	Tags            []string `json:"tags"`
	IdempotencyKey  string   `json:"idempotency_key"`
}

// CreateBuildJobRequest submits a build-type job (spec §4.4).
type CreateBuildJobRequest struct {
	Name               string            `json:"name" binding:"required"`
	ProjectName        string            `json:"project_name" binding:"required"`
	RepositoryURL      string            `json:"repository_url" binding:"required"`
	Branch             string            `json:"branch"`
	CommitSHA          string            `json:"commit_sha"`
	BuildType          string            `json:"build_type" binding:"required"`
	EnvVars            map[string]string `json:"env_vars"`
	RequiredCapability string            `json:"required_capability" binding:"required"`
	Steps              []BuildStepInput  `json:"steps"`
	TimeoutSecs        int               `json:"timeout_secs"`
	IdempotencyKey     string            `json:"idempotency_key"`
}

// BuildStepInput is one client-supplied pipeline step. ArtifactName/Type/
// Path/Version are only meaningful when StepType is "package" (spec §4.4
// Artifacts).
type BuildStepInput struct {
	StepType          string `json:"step_type" binding:"required"`
	Command           string `json:"command" binding:"required"`
	ContinueOnFailure bool   `json:"continue_on_failure"`
	ArtifactName      string `json:"artifact_name,omitempty"`
	ArtifactType      string `json:"artifact_type,omitempty"`
	ArtifactPath      string `json:"artifact_path,omitempty"`
	ArtifactVersion   string `json:"artifact_version,omitempty"`
	CleanupPath       string `json:"cleanup_path,omitempty"`
}

// JobResponse is the read model returned from submission and status calls.
type JobResponse struct {
	ID              string   `json:"id"`
	JobType         string   `json:"job_type"`
	Name            string   `json:"name"`
	Status          string   `json:"status"`
	TargetHosts     []string `json:"target_hosts"`
	TotalTasks      int      `json:"total_tasks"`
	SucceededTasks  int      `json:"succeeded_tasks"`
	FailedTasks     int      `json:"failed_tasks"`
	TimeoutTasks    int      `json:"timeout_tasks"`
	CancelledTasks  int      `json:"cancelled_tasks"`
	CreatedAt       string   `json:"created_at"`
	StartedAt       string   `json:"started_at,omitempty"`
	CompletedAt     string   `json:"completed_at,omitempty"`
}

// TaskResponse is the per-host read model nested under a job's detail view.
type TaskResponse struct {
	ID             string `json:"id"`
	HostID         string `json:"host_id"`
	Status         string `json:"status"`
	FailureReason  string `json:"failure_reason,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
	ExitCode       *int   `json:"exit_code,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
	OutputSummary  string `json:"output_summary"`
	Truncated      bool   `json:"truncated"`
	RetryCount     int    `json:"retry_count"`
}

// CancelJobRequest optionally scopes a cancel to a subset of tasks; an
// empty TaskIDs cancels the whole job (spec §4.1).
type CancelJobRequest struct {
	TaskIDs []string `json:"task_ids,omitempty"`
	Reason  string   `json:"reason"`
}

// DecideApprovalRequest records one approver's decision (spec §4.5).
type DecideApprovalRequest struct {
	Decision string `json:"decision" binding:"required"` // approve|reject
	Comment  string `json:"comment"`
}

// ApprovalResponse is the read model for an approval request.
type ApprovalResponse struct {
	ID                string `json:"id"`
	JobID             string `json:"job_id"`
	Status            string `json:"status"`
	Triggers          []string `json:"triggers"`
	RequiredApprovers int    `json:"required_approvers"`
	CurrentApprovals  int    `json:"current_approvals"`
	ExpiresAt         string `json:"expires_at,omitempty"`
}

// LoginRequest authenticates a principal at the auth boundary (identity
// storage itself is external — spec §6 — this endpoint only mints a JWT
// once the caller is authenticated by that external store).
type LoginRequest struct {
	PrincipalID   string `json:"principal_id" binding:"required"`
	PrincipalKind string `json:"principal_kind" binding:"required"`
	Password      string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token the CLI stores for subsequent calls.
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterRunnerRequest is what a runner process posts on startup (spec
// §3.7) to upsert its row and declare what it can execute.
type RegisterRunnerRequest struct {
	Name              string   `json:"name" binding:"required"`
	Capabilities      []string `json:"capabilities" binding:"required"`
	MaxConcurrentJobs int      `json:"max_concurrent_jobs"`
}

// RegisterRunnerResponse hands the runner back the ID it should use on
// every subsequent heartbeat.
type RegisterRunnerResponse struct {
	ID string `json:"id"`
}

package queue

import "time"

// TaskTypeDispatch is the asynq task type name every dispatched unit of
// work is enqueued under; the capability/env routing lives in the queue
// name, not the type name, so a single handler can serve every queue a
// runner is bound to.
const TaskTypeDispatch = "ops:task:dispatch"

// TaskTypeResult is the asynq task type name every published result
// envelope carries, regardless of whether it's a progress or terminal
// message — Kind disambiguates once the handler unmarshals it.
const TaskTypeResult = "ops:task:result"

// ResultQueue is the single durable queue the orchestrator's result
// consumer drains — the realization of the spec's fanout `ops.results`
// exchange (SPEC_FULL.md §3.2).
const ResultQueue = "ops:results"

// TaskQueueName builds the per-(capability, env) queue name the topic
// exchange `ops.tasks` is realized as. Binding a runner to this string is
// the equivalent of a routing-key bind.
func TaskQueueName(capability, env string) string {
	return "ops:tasks:" + capability + ":" + env
}

// ControlChannel and JobControlChannel name the go-redis pub/sub channels
// standing in for the topic exchange `ops.control` (fanout that must reach
// an already-dequeued, in-flight consumer — something no asynq queue can
// express, since a queue only delivers to whichever consumer pops next).
func ControlChannel(taskID string) string   { return "control:task:" + taskID }
func JobControlChannel(jobID string) string { return "control:job:" + jobID }

// HeartbeatChannel is the single fanout channel every runner publishes its
// liveness beat on; the orchestrator keeps one subscriber draining it
// (SPEC_FULL.md §3.7).
const HeartbeatChannel = "control:heartbeat"

// HeartbeatMessage is what a runner publishes on HeartbeatChannel.
type HeartbeatMessage struct {
	RunnerID      string    `json:"runner_id"`
	InFlightCount int       `json:"in_flight_count"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

// TaskEnvelope is the payload asynq carries on the tasks queue. It is
// deliberately flat: the runner never needs to look anything up to start
// work.
type TaskEnvelope struct {
	TaskID      string            `json:"task_id"`
	JobID       string            `json:"job_id"`
	Attempt     int               `json:"attempt"`
	JobType     string            `json:"job_type"`
	HostID      string            `json:"host_id"`
	HostAddress string            `json:"host_address"`
	HostPort    int               `json:"host_port"`
	Credential  Credential        `json:"credential"`
	Command     string            `json:"command,omitempty"`
	Script      string            `json:"script,omitempty"`
	ExecuteUser string            `json:"execute_user,omitempty"`
	TimeoutSecs int               `json:"timeout_secs"`
	MaxRetries  int               `json:"max_retries"`
	Env         map[string]string `json:"env,omitempty"`
	// BuildSteps is populated only for job_type=build; each entry mirrors
	// model.BuildStep in wire form.
	BuildSteps []BuildStepSpec `json:"build_steps,omitempty"`
}

// Credential is the minimal login material a runner needs to open the SSH
// session; it is resolved by the orchestrator at dispatch time so the
// runner never queries the inventory service directly.
type Credential struct {
	Username   string `json:"username"`
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

// BuildStepSpec is the wire form of one build pipeline step.
type BuildStepSpec struct {
	Order             int    `json:"order"`
	StepType          string `json:"step_type"`
	Command           string `json:"command"`
	ContinueOnFailure bool   `json:"continue_on_failure"`
	Image             string `json:"image,omitempty"`
	WorkspaceDir      string `json:"workspace_dir"`
	// CleanupPath, if set, is removed from the host filesystem after the
	// step succeeds, relative to WorkspaceDir; it must resolve under the
	// runner's configured workspace prefix or the build fails with
	// workspace_violation (spec §4.4, §8 end-to-end scenario 6).
	CleanupPath string `json:"cleanup_path,omitempty"`
	// ArtifactName/Type/Path/Version are set only on step_type=package and
	// tell the runner what to hash and register once the step succeeds
	// (spec §4.4 Artifacts). Path is relative to WorkspaceDir.
	ArtifactName    string `json:"artifact_name,omitempty"`
	ArtifactType    string `json:"artifact_type,omitempty"`
	ArtifactPath    string `json:"artifact_path,omitempty"`
	ArtifactVersion string `json:"artifact_version,omitempty"`
}

// MessageKind discriminates the three shapes carried on ops:results.
type MessageKind string

const (
	KindProgress   MessageKind = "progress"
	KindTerminal   MessageKind = "terminal"
	KindStepResult MessageKind = "step_result"
)

// ResultMessage is the single envelope type published to ops:results; Kind
// selects which of Progress/Terminal/Step is populated, matching the fanout
// exchange's "discriminated union" realization noted in SPEC_FULL.md §3.2.
type ResultMessage struct {
	Kind     MessageKind      `json:"kind"`
	Progress *ProgressMessage `json:"progress,omitempty"`
	Terminal *TerminalMessage `json:"terminal,omitempty"`
	Step     *StepMessage     `json:"step,omitempty"`
}

// StepMessage reports one build step's outcome as it finishes, letting the
// orchestrator update build_steps row-by-row instead of waiting on the
// task's single terminal message (spec §4.4).
type StepMessage struct {
	TaskID     string        `json:"task_id"`
	JobID      string        `json:"job_id"`
	BuildJobID string        `json:"build_job_id"`
	Order      int           `json:"order"`
	Status     string        `json:"status"`
	Summary    string        `json:"summary"`
	Detail     string        `json:"detail"`
	DurationMs int64         `json:"duration_ms"`
	// Artifact is set only for a succeeded package step (spec §4.4
	// Artifacts) and carries what the runner hashed on disk.
	Artifact *ArtifactInfo `json:"artifact,omitempty"`
}

// ArtifactInfo is the metadata a successful package step produced, computed
// by the runner (name/type/version come from the step spec; path, size, and
// sha256 are measured off the built file) and registered by the
// orchestrator on receipt (spec §4.4 Artifacts, §8 uniqueness invariant).
type ArtifactInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Path      string `json:"path"`
	Version   string `json:"version"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
}

// ProgressMessage reports a non-terminal task transition (e.g. pending ->
// running). The orchestrator only logs it; the task row changes only on
// the terminal message.
type ProgressMessage struct {
	TaskID    string    `json:"task_id"`
	JobID     string    `json:"job_id"`
	Attempt   int       `json:"attempt"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// TerminalMessage carries a task's final outcome. Redelivery of the same
// (TaskID, Attempt) pair must be a no-op at the consumer — the dedup
// property task_dao.ApplyTerminal enforces.
type TerminalMessage struct {
	TaskID         string    `json:"task_id"`
	JobID          string    `json:"job_id"`
	Attempt        int       `json:"attempt"`
	Status         string    `json:"status"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	FailureMessage string    `json:"failure_message,omitempty"`
	ExitCode       *int      `json:"exit_code,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
	DurationMs     int64     `json:"duration_ms"`
	OutputSummary  string    `json:"output_summary"`
	OutputDetail   string    `json:"output_detail"`
	Truncated      bool      `json:"truncated"`
}

// ControlSignal is the small message shape published on control channels.
type ControlSignal struct {
	Kind      string    `json:"kind"` // "cancel"
	TaskID    string    `json:"task_id,omitempty"`
	JobID     string    `json:"job_id,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	IssuedBy  string    `json:"issued_by"`
}

package common

import "go.uber.org/zap"

// AuditAction enumerates the audit-worthy transitions the core emits.
// Storage of the resulting rows is external (spec §6); this package only
// defines the contract the core writes through.
type AuditAction string

const (
	AuditJobCreate     AuditAction = "job_create"
	AuditJobCancel     AuditAction = "job_cancel"
	AuditJobTerminal   AuditAction = "job_terminal"
	AuditApprovalGrant AuditAction = "approval_grant"
	AuditApprovalReject AuditAction = "approval_reject"
	AuditApprovalExpire AuditAction = "approval_expire"
	AuditBuildRegister  AuditAction = "build_artifact_register"
)

// Sink is the narrow contract the core writes audit rows through. The
// storage-backed implementation lives outside this module (spec §6); the
// logging sink below keeps call sites real during development and tests.
type Sink interface {
	Log(subject, resource string, action AuditAction, changes string, result string)
}

type logSink struct {
	logger *zap.Logger
}

// NewLogSink returns an audit Sink that writes structured log lines instead
// of talking to the external audit store. Production wiring would swap in
// a sink backed by the `audit_logs` table's owning service.
func NewLogSink(logger *zap.Logger) Sink {
	return &logSink{logger: logger}
}

func (s *logSink) Log(subject, resource string, action AuditAction, changes string, result string) {
	s.logger.Info("audit",
		zap.String("subject", subject),
		zap.String("resource", resource),
		zap.String("action", string(action)),
		zap.String("changes", changes),
		zap.String("result", result),
	)
}

package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyWorkspace_RejectsPathOutsidePrefix(t *testing.T) {
	e := &Executor{workspacePrefix: "/var/lib/fleetops/workspaces"}
	err := e.verifyWorkspace("/etc")
	errno, ok := err.(common.ErrNo)
	assert.True(t, ok)
	assert.Equal(t, common.WorkspaceViolation, errno.ErrCode)
}

func TestVerifyWorkspace_RejectsSiblingPrefixCollision(t *testing.T) {
	e := &Executor{workspacePrefix: "/var/lib/fleetops/workspaces"}
	err := e.verifyWorkspace("/var/lib/fleetops/workspaces-evil/job-1")
	assert.Error(t, err)
}

func TestVerifyWorkspace_AcceptsNestedPath(t *testing.T) {
	e := &Executor{workspacePrefix: "/var/lib/fleetops/workspaces"}
	err := e.verifyWorkspace("/var/lib/fleetops/workspaces/job-123")
	assert.NoError(t, err)
}

func TestVerifyWorkspace_AcceptsPrefixItself(t *testing.T) {
	e := &Executor{workspacePrefix: "/var/lib/fleetops/workspaces"}
	err := e.verifyWorkspace("/var/lib/fleetops/workspaces")
	assert.NoError(t, err)
}

func TestSummaryTail_PassesThroughShortText(t *testing.T) {
	assert.Equal(t, "hello", summaryTail("hello", 10))
}

func TestSummaryTail_TruncatesLongText(t *testing.T) {
	out := summaryTail("0123456789abcdef", 4)
	assert.Contains(t, out, "cdef")
	assert.Contains(t, out, "truncated")
}

func TestFailedStep_MarksOrderAndMessage(t *testing.T) {
	result := failedStep(3, time.Now(), "boom")
	assert.Equal(t, 3, result.Order)
	assert.Equal(t, model.BuildStepFailed, result.Status)
	assert.Equal(t, "boom", result.Summary)
}

func TestCleanupStep_RejectsPathOutsidePrefix(t *testing.T) {
	prefix := t.TempDir()
	e := &Executor{workspacePrefix: prefix}
	err := e.cleanupStep(filepath.Join(prefix, "job-1"), "../../../etc")
	errno, ok := err.(common.ErrNo)
	require.True(t, ok)
	assert.Equal(t, common.WorkspaceViolation, errno.ErrCode)
}

func TestCleanupStep_RemovesPathUnderPrefix(t *testing.T) {
	prefix := t.TempDir()
	workspaceDir := filepath.Join(prefix, "job-1")
	require.NoError(t, os.MkdirAll(filepath.Join(workspaceDir, "scratch"), 0o755))

	e := &Executor{workspacePrefix: prefix}
	require.NoError(t, e.cleanupStep(workspaceDir, "scratch"))

	_, err := os.Stat(filepath.Join(workspaceDir, "scratch"))
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupStep_EmptyPathIsNoop(t *testing.T) {
	e := &Executor{workspacePrefix: t.TempDir()}
	assert.NoError(t, e.cleanupStep("/anything", ""))
}

func TestHashArtifact_ComputesSizeAndSHA256(t *testing.T) {
	workspaceDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workspaceDir, "app.tar.gz"), []byte("package contents"), 0o644))

	artifact, err := hashArtifact(workspaceDir, queue.BuildStepSpec{
		ArtifactName: "app", ArtifactType: "tarball", ArtifactVersion: "1.2.3", ArtifactPath: "app.tar.gz",
	})
	require.NoError(t, err)
	assert.Equal(t, "app", artifact.Name)
	assert.Equal(t, "1.2.3", artifact.Version)
	assert.Equal(t, int64(len("package contents")), artifact.SizeBytes)
	assert.NotEmpty(t, artifact.SHA256)
}

func TestHashArtifact_MissingFileErrors(t *testing.T) {
	workspaceDir := t.TempDir()
	_, err := hashArtifact(workspaceDir, queue.BuildStepSpec{ArtifactPath: "missing.bin"})
	assert.Error(t, err)
}

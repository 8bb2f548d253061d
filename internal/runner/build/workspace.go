package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fleetops/fleetops/internal/common"
)

// isUnderPrefix reports whether path is prefix itself or a descendant of
// it once both are cleaned — the single gate every host-side filesystem
// operation this package performs must pass (spec §4.4 workspace
// invariant).
func isUnderPrefix(prefix, path string) bool {
	cleanedPrefix := filepath.Clean(prefix)
	cleanedPath := filepath.Clean(path)
	return cleanedPath == cleanedPrefix || strings.HasPrefix(cleanedPath, cleanedPrefix+string(filepath.Separator))
}

// cleanupStep removes a step's declared cleanup path, refusing anything
// that resolves outside the configured workspace prefix (spec §4.4 — a
// package step whose cleanup path escapes the prefix must fail the build
// with workspace_violation, never touch the host filesystem).
func (e *Executor) cleanupStep(workspaceDir, cleanupPath string) error {
	if cleanupPath == "" {
		return nil
	}
	target := filepath.Join(workspaceDir, cleanupPath)
	if !isUnderPrefix(e.workspacePrefix, target) {
		return common.NewErrNo(common.WorkspaceViolation)
	}
	return os.RemoveAll(target)
}

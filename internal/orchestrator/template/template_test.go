package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingPathYieldsEmptyStore(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, s.DefaultSteps("node"))
}

func TestLoad_NonexistentFileYieldsEmptyStore(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Nil(t, s.DefaultSteps("node"))
}

func TestLoad_ParsesTemplatesByBuildType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := `
templates:
  node:
    - step_type: install
      command: npm ci
    - step_type: test
      command: npm test
      continue_on_failure: true
  rust:
    - step_type: build
      command: cargo build --release
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	nodeSteps := s.DefaultSteps("node")
	require.Len(t, nodeSteps, 2)
	assert.Equal(t, "npm ci", nodeSteps[0].Command)
	assert.True(t, nodeSteps[1].ContinueOnFailure)

	assert.Len(t, s.DefaultSteps("rust"), 1)
	assert.Nil(t, s.DefaultSteps("java"))
}

func TestLoad_InvalidYamlReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates: [this is not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

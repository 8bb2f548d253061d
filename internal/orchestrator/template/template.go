package template

import (
	"os"
	"sync"

	"github.com/fleetops/fleetops/internal/common"
	"gopkg.in/yaml.v3"
)

// Step is one default pipeline step a template contributes, the same shape
// a client would otherwise have to spell out on every build submission.
type Step struct {
	StepType          string `yaml:"step_type"`
	Command           string `yaml:"command"`
	ContinueOnFailure bool   `yaml:"continue_on_failure"`
	ArtifactName      string `yaml:"artifact_name,omitempty"`
	ArtifactType      string `yaml:"artifact_type,omitempty"`
	ArtifactPath      string `yaml:"artifact_path,omitempty"`
	ArtifactVersion   string `yaml:"artifact_version,omitempty"`
	CleanupPath       string `yaml:"cleanup_path,omitempty"`
}

type document struct {
	Templates map[string][]Step `yaml:"templates"`
}

// Store holds the default step pipeline per build_type, loaded once from a
// YAML file (spec §4.4 — submitting a build job with an empty step list
// falls back to its build_type's template instead of being rejected).
type Store struct {
	mu        sync.RWMutex
	templates map[string][]Step
}

// Load parses the template file at path. A missing path yields an empty,
// usable Store — templates are an optional convenience, never required.
func Load(path string) (*Store, error) {
	s := &Store{templates: map[string][]Step{}}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, common.NewErrNoMsg(common.YamlInvalid, err.Error())
	}
	s.templates = doc.Templates
	return s, nil
}

// DefaultSteps returns the configured pipeline for buildType, or nil if
// none is registered.
func (s *Store) DefaultSteps(buildType string) []Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates[buildType]
}

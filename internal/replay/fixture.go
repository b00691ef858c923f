package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
)

// #region fixture-loader

// LoadFixture reads a JSON or YAML fixture file. YAML is converted to JSON
// first so both formats share the json field names.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("parse fixture %s: %w", path, err)
		}
		if data, err = json.Marshal(generic); err != nil {
			return nil, fmt.Errorf("convert fixture %s: %w", path, err)
		}
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Start returns the snapshot the fixture's steps play against.
func (f *Fixture) Start() (governance.Session, []governance.Artifact) {
	var (
		session   governance.Session
		artifacts []governance.Artifact
	)
	if f.Session != nil {
		session = f.Session.Clone()
		artifacts = governance.CloneArtifacts(f.Artifacts)
	} else {
		session = governance.ExampleSession(f.clock())
		artifacts = governance.ExampleArtifacts()
	}
	if f.Recovery != nil {
		artifacts = append(artifacts, governance.NewRecoveryArtifact(f.Recovery.ID,
			seedsweep.NewPhaseState(f.Recovery.Trigger, f.Recovery.Reason)))
	}
	return session, artifacts
}

// #endregion fixture-loader

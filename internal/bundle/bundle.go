package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bridgeos/govern/internal/governance"
)

// New builds a bundle from a snapshot. Inputs are cloned.
func New(session governance.Session, artifacts []governance.Artifact, app AppInfo, now time.Time) Bundle {
	b := Bundle{
		Version:    Version,
		ExportedAt: now.UTC(),
		App:        app,
		Data: Data{
			Session:   session.Clone(),
			Artifacts: governance.CloneArtifacts(artifacts),
		},
	}
	if b.Data.Artifacts == nil {
		b.Data.Artifacts = []governance.Artifact{}
	}
	if a, ok := governance.ActiveRecovery(b.Data.Artifacts); ok {
		if st, ok := governance.RecoveryState(a); ok {
			b.Data.RecoveryState = &st
		}
	}
	return b
}

// FormatFromPath picks YAML for .yaml/.yml and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// #region marshal
// Marshal encodes b. YAML output is produced from the JSON form so both
// encodings share the same field names.
func Marshal(b Bundle, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}
	if format != FormatYAML {
		return append(data, '\n'), nil
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("marshal bundle yaml: %w", err)
	}
	return out, nil
}

// Unmarshal decodes a bundle and rejects any version other than Version.
func Unmarshal(data []byte, format Format) (Bundle, error) {
	if format == FormatYAML {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return Bundle{}, fmt.Errorf("parse bundle yaml: %w", err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return Bundle{}, fmt.Errorf("convert bundle yaml: %w", err)
		}
		data = converted
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("parse bundle: %w", err)
	}
	if b.Version != Version {
		return Bundle{}, fmt.Errorf("bundle version %q: %w", b.Version, ErrUnsupportedVersion)
	}
	return b, nil
}

// #endregion marshal

// #region files
// Save writes b to path in the format implied by its extension.
func Save(path string, b Bundle) error {
	data, err := Marshal(b, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

// Load reads a bundle file in the format implied by its extension.
func Load(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("read bundle: %w", err)
	}
	return Unmarshal(data, FormatFromPath(path))
}

// #endregion files

package bundle

import (
	"errors"
	"time"

	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
)

// Version is the only bundle format Load accepts.
const Version = "GOVERN_EXPORT_V1"

var ErrUnsupportedVersion = errors.New("unsupported bundle version")

// #region bundle
// Bundle is the portable export of one session and its artifacts.
type Bundle struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	App        AppInfo   `json:"app"`
	Data       Data      `json:"data"`
}

// AppInfo identifies the build that wrote the bundle.
type AppInfo struct {
	Name  string `json:"name"`
	Build string `json:"build"`
}

// Data carries the exported snapshot. RecoveryState mirrors the phase state
// of the active recovery artifact, if any.
type Data struct {
	Session       governance.Session    `json:"session"`
	Artifacts     []governance.Artifact `json:"artifacts"`
	RecoveryState *seedsweep.PhaseState `json:"recovery_state,omitempty"`
}

// #endregion bundle

// Format selects the file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

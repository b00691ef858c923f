package state

import (
	"errors"
	"time"

	"github.com/bridgeos/govern/internal/eval"
	"github.com/bridgeos/govern/internal/governance"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrVersionNotFound = errors.New("version not found")
)

// #region session-version
// SessionVersion is one accepted snapshot of a session and its artifact
// collection. Versions form a parent chain per session.
type SessionVersion struct {
	VersionID string
	ParentID  string
	SessionID string
	Session   governance.Session
	Artifacts []governance.Artifact
	CreatedAt time.Time
}

// #endregion session-version

// #region apply-result
// ApplyResult is what Store.Apply hands back: the evaluator's verdict and,
// when the action was allowed, the version it was committed as.
type ApplyResult struct {
	Result    governance.Result
	VersionID string
}

// SweepOutcome pairs a recovery sweep result with its committed version.
type SweepOutcome struct {
	eval.SweepResult
	VersionID string
}

// #endregion apply-result

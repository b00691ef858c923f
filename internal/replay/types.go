package replay

import (
	"time"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
	"github.com/bridgeos/govern/internal/stoplight"
)

// #region fixture-types

// Fixture is a scripted run: a starting snapshot and the steps to play
// against it. When Session is absent the example session and its four core
// artifacts are used.
type Fixture struct {
	Description string                `json:"description"`
	Clock       time.Time             `json:"clock"`
	Session     *governance.Session   `json:"session,omitempty"`
	Artifacts   []governance.Artifact `json:"artifacts,omitempty"`
	Recovery    *RecoverySeed         `json:"recovery,omitempty"`
	Steps       []Step                `json:"steps"`
}

// RecoverySeed appends a fresh recovery artifact to the starting artifacts.
type RecoverySeed struct {
	ID      string            `json:"id"`
	Trigger seedsweep.Trigger `json:"trigger"`
	Reason  string            `json:"reason,omitempty"`
}

// Step is one scripted action with its expected outcome. ExpectCode is only
// checked when the step is expected to be denied.
type Step struct {
	Label         string            `json:"label"`
	Role          actor.Role        `json:"role"`
	Action        governance.Action `json:"action"`
	ExpectAllowed bool              `json:"expect_allowed"`
	ExpectCode    governance.Code   `json:"expect_code,omitempty"`
}

// #endregion fixture-types

// #region result-types

// StepResult is one transcript line.
type StepResult struct {
	Step             int                     `json:"step"`
	Label            string                  `json:"label"`
	Role             actor.Role              `json:"role"`
	Action           governance.Action       `json:"action"`
	Allowed          bool                    `json:"allowed"`
	Errors           []governance.EvalError  `json:"errors"`
	SessionState     governance.SessionState `json:"session_state"`
	SessionStoplight stoplight.Stoplight     `json:"session_stoplight"`
	Matched          bool                    `json:"matched"`
	Mismatch         string                  `json:"mismatch,omitempty"`
}

// Summary provides aggregate stats from a run.
type Summary struct {
	Total          int
	Allowed        int
	Denied         int
	Mismatches     int
	FinalState     governance.SessionState
	FinalStoplight stoplight.Stoplight
}

// Run is the full outcome of replaying a fixture.
type Run struct {
	Description string
	Results     []StepResult
	Session     governance.Session
	Artifacts   []governance.Artifact
}

// #endregion result-types

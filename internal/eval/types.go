package eval

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// #region eval-config
// EvalConfig supplies the evaluator's only sources of nondeterminism.
type EvalConfig struct {
	Clock func() time.Time // stamps updated_at, approvals, signoffs
	NewID func() string    // ids for synthesized recovery artifacts
}

// DefaultEvalConfig uses the wall clock and random recovery ids.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Clock: time.Now,
		NewID: NewRecoveryID,
	}
}

// NewRecoveryID returns an id of the form ss_<8 hex digits>.
func NewRecoveryID() string {
	return "ss_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// #endregion eval-config

// #region stages
// StageName identifies one step of the evaluation pipeline.
type StageName string

const (
	StageSchema     StageName = "schema"
	StageAuthority  StageName = "authority"
	StageRecovery   StageName = "recovery"
	StageBind       StageName = "bind"
	StageTransition StageName = "transition"
	StageApply      StageName = "apply"
	StageRebind     StageName = "rebind"
)

// Policy decides what happens after a stage that leaves errors behind.
type Policy int

const (
	// Accumulate keeps going so later stages can add their errors.
	Accumulate Policy = iota
	// FailFast stops the pipeline and denies when any error is present.
	FailFast
)

func (p Policy) String() string {
	switch p {
	case Accumulate:
		return "accumulate"
	case FailFast:
		return "fail-fast"
	}
	return "unknown"
}

// StageInfo describes one pipeline stage.
type StageInfo struct {
	Name   StageName
	Policy Policy
}

// Trace records which stages ran and where the pipeline stopped.
type Trace struct {
	Ran      []StageName
	HaltedAt StageName // empty when the action was applied
}

// #endregion stages

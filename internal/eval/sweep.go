package eval

import (
	"errors"
	"fmt"
	"time"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
)

var (
	ErrNoRecovery       = errors.New("no active recovery artifact")
	ErrRecoveryExists   = errors.New("a recovery artifact is already active")
	ErrRecoveryApproved = errors.New("recovery artifact is APPROVED; reset it before editing")
	ErrSessionFinal     = errors.New("session is FINALIZED")
)

// #region sweep-op
// SweepKind names an operation on a recovery procedure.
type SweepKind string

const (
	SweepStart   SweepKind = "start"
	SweepEdit    SweepKind = "edit"
	SweepConfirm SweepKind = "confirm"
	SweepAdvance SweepKind = "advance"
	SweepReset   SweepKind = "reset"
)

// SweepOp is one edit to the procedure carried by the session's recovery
// artifact. Trigger and Reason are read by start and reset, Phase by
// confirm, State by edit.
type SweepOp struct {
	Kind    SweepKind             `json:"kind"`
	Trigger seedsweep.Trigger     `json:"trigger,omitempty"`
	Reason  string                `json:"reason,omitempty"`
	Phase   seedsweep.Phase       `json:"phase,omitempty"`
	State   *seedsweep.PhaseState `json:"state,omitempty"`
}

// SweepResult is the outcome of a successful SweepOp.
type SweepResult struct {
	NewSession   governance.Session
	NewArtifacts []governance.Artifact
	ArtifactID   string
	Note         string
}

// #endregion sweep-op

// #region sweep
// Sweep applies op to the recovery artifact linked to session, or the first
// non-rejected one when none is linked. Inputs are never modified.
func (e *Evaluator) Sweep(session governance.Session, artifacts []governance.Artifact, op SweepOp, role actor.Role) (SweepResult, error) {
	if session.State == governance.StateFinalized {
		return SweepResult{}, ErrSessionFinal
	}
	now := e.config.Clock().UTC()
	s := session.Clone()
	arts := governance.CloneArtifacts(artifacts)

	if op.Kind == SweepStart {
		if _, ok := governance.ActiveRecovery(arts); ok {
			return SweepResult{}, ErrRecoveryExists
		}
		trigger := op.Trigger
		if trigger == "" {
			trigger = seedsweep.TriggerPreflight
		}
		if !trigger.Valid() {
			return SweepResult{}, fmt.Errorf("unknown trigger %q", trigger)
		}
		a := governance.NewRecoveryArtifact(e.config.NewID(), seedsweep.NewPhaseState(trigger, op.Reason))
		arts = append(arts, a)
		return e.finishSweep(s, arts, a.ID, now, fmt.Sprintf("Recovery artifact %s created (%s).", a.ID, trigger)), nil
	}

	idx := recoveryIndex(s, arts)
	if idx < 0 {
		return SweepResult{}, ErrNoRecovery
	}
	a := arts[idx]
	state, _ := governance.RecoveryState(a)

	var (
		next seedsweep.PhaseState
		note string
		err  error
	)
	switch op.Kind {
	case SweepReset:
		trigger := op.Trigger
		if trigger == "" {
			trigger = state.Trigger
		}
		next = seedsweep.Reset(trigger, op.Reason)
		a.Status = governance.StatusDraft
		a.Approval = governance.Approval{}
		a.Payload = governance.SeedSweepPayload{State: next}
		note = fmt.Sprintf("Recovery %s reset to STOP.", a.ID)
	case SweepEdit, SweepConfirm, SweepAdvance:
		if a.Status == governance.StatusApproved {
			return SweepResult{}, ErrRecoveryApproved
		}
		switch op.Kind {
		case SweepEdit:
			if op.State == nil {
				return SweepResult{}, errors.New("edit requires a phase state")
			}
			next = mergeContent(state, *op.State)
			note = fmt.Sprintf("Recovery %s content updated.", a.ID)
		case SweepConfirm:
			next, err = seedsweep.Confirm(state, op.Phase, role, now)
			note = fmt.Sprintf("Recovery %s phase %s confirmed.", a.ID, op.Phase)
		case SweepAdvance:
			next, err = seedsweep.Advance(state, role, now)
			note = fmt.Sprintf("Recovery %s advanced to %s.", a.ID, next.Phase)
		}
	default:
		return SweepResult{}, fmt.Errorf("unknown sweep operation %q", op.Kind)
	}
	if err != nil {
		return SweepResult{}, err
	}

	synced, err := governance.SyncRecoveryArtifact(a, next)
	if err != nil {
		return SweepResult{}, err
	}
	arts[idx] = synced
	return e.finishSweep(s, arts, a.ID, now, note), nil
}

func (e *Evaluator) finishSweep(s governance.Session, arts []governance.Artifact, id string, now time.Time, note string) SweepResult {
	s.Stoplight = BindStoplight(s, arts)
	s.UpdatedAt = now
	return SweepResult{NewSession: s, NewArtifacts: arts, ArtifactID: id, Note: note}
}

// recoveryIndex prefers the artifact the session links to.
func recoveryIndex(s governance.Session, arts []governance.Artifact) int {
	if s.ActiveRecoveryID != "" {
		if i := governance.FindArtifact(arts, s.ActiveRecoveryID); i >= 0 && arts[i].Kind == governance.KindSeedSweep {
			return i
		}
	}
	for i, a := range arts {
		if a.Kind == governance.KindSeedSweep && a.Status != governance.StatusRejected {
			return i
		}
	}
	return -1
}

// mergeContent takes the editable fields from in and keeps phase position,
// confirmations and completion from cur.
func mergeContent(cur, in seedsweep.PhaseState) seedsweep.PhaseState {
	c := cur.Clone()
	out := in.Clone()
	out.Phase = c.Phase
	out.Trigger = c.Trigger
	out.Reason = c.Reason
	out.CompletedAt = c.CompletedAt
	out.Stop.Confirmation = c.Stop.Confirmation
	out.Witness.Confirmation = c.Witness.Confirmation
	out.Sweep.Confirmation = c.Sweep.Confirmation
	out.Seed.Confirmation = c.Seed.Confirmation
	out.Stabilize.Confirmation = c.Stabilize.Confirmation
	out.Stoplight = seedsweep.ComputeStoplight(out)
	return out
}

// #endregion sweep

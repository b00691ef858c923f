package gate

import (
	"fmt"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/stoplight"
)

// #region authority
// RequiresHuman reports whether action may only be performed by a human:
// approving or rejecting an artifact, signing off, or finalizing.
func RequiresHuman(action governance.Action) bool {
	switch action.Type {
	case governance.ActionSetStatus:
		return action.Status == governance.StatusApproved || action.Status == governance.StatusRejected
	case governance.ActionSignoff, governance.ActionFinalize:
		return true
	case governance.ActionStartCompilation, governance.ActionTriggerRecovery, governance.ActionResumeRecovery,
		governance.ActionRequestFinalize, governance.ActionSetStoplight:
		return false
	}
	return false
}

// Authority blocks human-only actions requested by any other role.
func Authority(role actor.Role, action governance.Action) []governance.EvalError {
	if role.IsHuman() || !RequiresHuman(action) {
		return nil
	}
	return []governance.EvalError{{
		Code:    governance.CodeHumanGateRequired,
		Message: fmt.Sprintf("action %s requires HUMAN authority, got %s", action.Type, role),
	}}
}

// #endregion authority

// #region recovery
// Preflight requires an approved, GREEN recovery artifact before a DRAFT
// session may start compilation. Other actions pass.
func Preflight(session governance.Session, artifacts []governance.Artifact, action governance.Action) Decision {
	if action.Type != governance.ActionStartCompilation || session.State != governance.StateDraft {
		return allow()
	}

	var approved *governance.Artifact
	for i := range artifacts {
		if artifacts[i].Kind == governance.KindSeedSweep && artifacts[i].Status == governance.StatusApproved {
			approved = &artifacts[i]
			break
		}
	}
	if approved == nil {
		return deny(governance.CodePreflightRequired,
			"cannot start compilation: an APPROVED recovery artifact is required as preflight")
	}
	if approved.Stoplight != stoplight.Green {
		return deny(governance.CodeRecoveryNotGreen,
			fmt.Sprintf("cannot start compilation: recovery artifact must be GREEN, currently %s", approved.Stoplight))
	}
	return allow()
}

// Resume requires the session's linked recovery artifact to exist, be a
// SEEDSWEEP artifact, be APPROVED and be GREEN. The first failure wins.
func Resume(session governance.Session, artifacts []governance.Artifact, action governance.Action) Decision {
	if action.Type != governance.ActionResumeRecovery {
		return allow()
	}

	// 1. Linked
	if session.ActiveRecoveryID == "" {
		return deny(governance.CodeNoActiveRecovery,
			"cannot resume: no active recovery artifact is linked to the session")
	}

	// 2. Present
	idx := governance.FindArtifact(artifacts, session.ActiveRecoveryID)
	if idx < 0 {
		return deny(governance.CodeRecoveryArtifactMissing,
			fmt.Sprintf("cannot resume: active recovery artifact %s not found", session.ActiveRecoveryID))
	}
	active := artifacts[idx]

	// 3. Kind
	if active.Kind != governance.KindSeedSweep {
		return deny(governance.CodeRecoveryWrongKind,
			fmt.Sprintf("cannot resume: linked artifact %s is %s, not SEEDSWEEP", active.ID, active.Kind))
	}

	// 4. Approved
	if active.Status != governance.StatusApproved {
		return deny(governance.CodeRecoveryNotApproved,
			fmt.Sprintf("cannot resume: recovery artifact must be APPROVED, currently %s", active.Status))
	}

	// 5. Green
	if active.Stoplight != stoplight.Green {
		return deny(governance.CodeRecoveryNotGreen,
			fmt.Sprintf("cannot resume: recovery artifact must be GREEN, currently %s", active.Stoplight))
	}

	return allow()
}

// Recovery runs Preflight then Resume and returns the first denial. A
// FINALIZED session is denied outright, whatever the action.
func Recovery(session governance.Session, artifacts []governance.Artifact, action governance.Action) Decision {
	if session.State == governance.StateFinalized {
		return deny(governance.CodeSessionAlreadyFinal, "session is already FINALIZED")
	}
	if d := Preflight(session, artifacts, action); !d.Allowed {
		return d
	}
	if d := Resume(session, artifacts, action); !d.Allowed {
		return d
	}
	return allow()
}

// #endregion recovery

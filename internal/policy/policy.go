// Package policy checks the structural and workflow prerequisites of a
// requested transition. Every applicable check runs and all errors are
// returned together.
package policy

import (
	"fmt"

	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/stoplight"
)

// #region summary
// coreSummary is the view of the core artifact set the rules need.
type coreSummary struct {
	missing     []governance.Kind
	duplicated  []governance.Kind
	allApproved bool
	anyRed      bool
}

func summarize(artifacts []governance.Artifact) coreSummary {
	byKind := governance.ByKind(artifacts)
	sum := coreSummary{allApproved: true}
	for _, k := range governance.CoreKinds {
		matches := byKind[k]
		switch {
		case len(matches) == 0:
			sum.missing = append(sum.missing, k)
		case len(matches) > 1:
			sum.duplicated = append(sum.duplicated, k)
		}

		approved := false
		for _, a := range matches {
			if a.Status == governance.StatusApproved {
				approved = true
			}
			if a.Stoplight == stoplight.Red {
				sum.anyRed = true
			}
		}
		if !approved {
			sum.allApproved = false
		}
	}
	return sum
}

// #endregion summary

// #region check
// Check returns every transition error for applying action to session and
// artifacts. Session and artifacts are expected to be risk-bound already.
func Check(session governance.Session, artifacts []governance.Artifact, action governance.Action) []governance.EvalError {
	var errs []governance.EvalError
	add := func(code governance.Code, format string, args ...any) {
		errs = append(errs, governance.EvalError{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	core := summarize(artifacts)
	for _, k := range core.missing {
		add(governance.CodeCoreArtifactMissing, "missing required %s artifact", k)
	}
	for _, k := range core.duplicated {
		add(governance.CodeDuplicateCoreArtifact, "multiple %s artifacts; only one is allowed", k)
	}

	// A finalized session accepts nothing.
	if session.State == governance.StateFinalized {
		add(governance.CodeSessionAlreadyFinal, "session is already FINALIZED")
		return errs
	}

	anyRed := core.anyRed || session.Stoplight == stoplight.Red

	switch action.Type {
	case governance.ActionStartCompilation:
		if len(core.missing) > 0 {
			add(governance.CodeMissingCoreArtifacts, "cannot start: missing one or more core artifacts")
		}

	case governance.ActionResumeRecovery:
		if session.State != governance.StateRecoveryInProgress {
			add(governance.CodeNotInRecovery, "session is %s, not RECOVERY_IN_PROGRESS", session.State)
		}
		if session.ActiveRecoveryID == "" {
			add(governance.CodeNoActiveRecovery, "cannot resume: no active recovery artifact")
			break
		}
		idx := governance.FindArtifact(artifacts, session.ActiveRecoveryID)
		switch {
		case idx < 0:
			add(governance.CodeRecoveryArtifactMissing, "active recovery artifact %s not found", session.ActiveRecoveryID)
		case artifacts[idx].Kind != governance.KindSeedSweep:
			add(governance.CodeRecoveryWrongKind, "active recovery artifact %s is not a SEEDSWEEP artifact", session.ActiveRecoveryID)
		case artifacts[idx].Status != governance.StatusApproved:
			add(governance.CodeRecoveryNotApproved, "cannot resume: recovery artifact must be APPROVED")
		}

	case governance.ActionRequestFinalize:
		if !core.allApproved {
			add(governance.CodeCoreNotApproved, "cannot request finalize: all core artifacts must be APPROVED")
		}
		if anyRed {
			add(governance.CodeRedBlocksFinalize, "cannot request finalize: RED stoplight blocks finalization")
		}

	case governance.ActionSignoff:
		if session.State != governance.StateAwaitingSignoff {
			add(governance.CodeNotAwaitingSignoff, "session is %s, not AWAITING_SIGNOFF", session.State)
		}

	case governance.ActionFinalize:
		if session.State != governance.StateAwaitingSignoff {
			add(governance.CodeNotReadyToFinalize, "session is %s, not AWAITING_SIGNOFF", session.State)
		}
		if !session.Signoff.Signed {
			add(governance.CodeSignoffRequired, "cannot finalize: human signoff is required")
		}
		if !core.allApproved {
			add(governance.CodeCoreNotApproved, "cannot finalize: all core artifacts must be APPROVED")
		}
		if anyRed {
			add(governance.CodeRedBlocksFinalize, "cannot finalize: RED stoplight blocks finalization")
		}

	case governance.ActionSetStatus, governance.ActionSetStoplight:
		if governance.FindArtifact(artifacts, action.ArtifactID) < 0 {
			add(governance.CodeArtifactNotFound, "artifact %s not found", action.ArtifactID)
		}

	case governance.ActionTriggerRecovery:
	}

	return errs
}

// #endregion check

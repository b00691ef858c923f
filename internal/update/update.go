package update

import (
	"fmt"
	"time"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
)

// #region apply
// Apply computes the session and artifacts that result from action. It
// assumes every gate and transition check has already passed and never
// touches its inputs: the returned values are fresh copies.
func Apply(session governance.Session, artifacts []governance.Artifact, action governance.Action, ctx UpdateContext) UpdateResult {
	s := session.Clone()
	arts := governance.CloneArtifacts(artifacts)
	now := ctx.Now.UTC()
	var notes []string

	switch action.Type {
	case governance.ActionStartCompilation:
		s.State = governance.StateInCompilation
		notes = append(notes, "Session moved to IN_COMPILATION.")

	case governance.ActionTriggerRecovery:
		var (
			id      string
			created bool
		)
		arts, id, created = ensureRecovery(arts, action.Reason, ctx)
		s.State = governance.StateRecoveryInProgress
		s.ActiveRecoveryID = id
		if created {
			notes = append(notes, fmt.Sprintf("Recovery artifact %s created.", id))
		}
		notes = append(notes, fmt.Sprintf("Recovery triggered: %s. Active artifact: %s.", action.Reason, id))

	case governance.ActionResumeRecovery:
		s.State = governance.StateInCompilation
		notes = append(notes, "Session resumed after recovery.")

	case governance.ActionRequestFinalize:
		s.State = governance.StateAwaitingSignoff
		notes = append(notes, "Session moved to AWAITING_SIGNOFF.")

	case governance.ActionSignoff:
		role := action.SignerRole
		if role == "" {
			role = string(actor.Human)
		}
		s.Signoff = governance.Signoff{
			Signed:     true,
			SignerName: action.SignerName,
			SignerRole: role,
			SignedAt:   &now,
		}
		notes = append(notes, fmt.Sprintf("Human signoff recorded for %s.", action.SignerName))

	case governance.ActionFinalize:
		s.State = governance.StateFinalized
		notes = append(notes, "Session FINALIZED.")

	case governance.ActionSetStatus:
		if i := governance.FindArtifact(arts, action.ArtifactID); i >= 0 {
			arts[i].Status = action.Status
			// non-APPROVED statuses keep whatever approval was recorded
			if action.Status == governance.StatusApproved {
				arts[i].Approval = approval(ctx.Role, now)
			}
		}
		notes = append(notes, fmt.Sprintf("Artifact %s status set to %s.", action.ArtifactID, action.Status))

	case governance.ActionSetStoplight:
		if i := governance.FindArtifact(arts, action.ArtifactID); i >= 0 {
			arts[i].Stoplight = action.Stoplight
		}
		notes = append(notes, fmt.Sprintf("Artifact %s stoplight set to %s.", action.ArtifactID, action.Stoplight))
	}

	s.UpdatedAt = now
	return UpdateResult{NewSession: s, NewArtifacts: arts, Notes: notes}
}

// #endregion apply

// #region helpers
func approval(role actor.Role, now time.Time) governance.Approval {
	if !role.IsHuman() {
		return governance.Approval{ApprovedByHuman: false}
	}
	return governance.Approval{
		ApprovedByHuman: true,
		ApprovedBy:      string(role),
		ApprovedAt:      &now,
	}
}

// ensureRecovery returns the id of the first non-rejected SEEDSWEEP
// artifact, synthesizing one from a fresh procedure when none exists. The
// input slice is never appended to in place.
func ensureRecovery(arts []governance.Artifact, reason string, ctx UpdateContext) ([]governance.Artifact, string, bool) {
	if existing, ok := governance.ActiveRecovery(arts); ok {
		return arts, existing.ID, false
	}

	state := seedsweep.NewPhaseState(seedsweep.TriggerHumanRequest, reason)
	created := governance.NewRecoveryArtifact(ctx.NewID(), state)

	out := make([]governance.Artifact, 0, len(arts)+1)
	out = append(out, arts...)
	out = append(out, created)
	return out, created.ID, true
}

// #endregion helpers

package governance

import (
	"fmt"
	"strings"
	"time"

	"github.com/bridgeos/govern/internal/seedsweep"
	"github.com/bridgeos/govern/internal/stoplight"
)

// #region recovery-artifact
// NewRecoveryArtifact packages a recovery procedure as a DRAFT SEEDSWEEP artifact.
func NewRecoveryArtifact(id string, state seedsweep.PhaseState) Artifact {
	return Artifact{
		ID:        id,
		Kind:      KindSeedSweep,
		Status:    StatusDraft,
		Stoplight: stoplight.Yellow,
		ReservedJudgment: []string{
			"Approve the recovery only when it genuinely stabilizes the next action.",
		},
		Payload: SeedSweepPayload{State: state.Clone()},
	}
}

// SyncRecoveryArtifact returns a copy of a carrying state. The artifact
// stoplight follows the procedure. A completed procedure renders its summary
// and moves a DRAFT artifact into review.
func SyncRecoveryArtifact(a Artifact, state seedsweep.PhaseState) (Artifact, error) {
	if a.Kind != KindSeedSweep {
		return a.Clone(), fmt.Errorf("artifact %s is %s, not %s", a.ID, a.Kind, KindSeedSweep)
	}
	out := a.Clone()

	summary := ""
	if p, ok := a.Payload.(SeedSweepPayload); ok {
		summary = p.Summary
	}
	if state.Phase == seedsweep.PhaseComplete {
		summary = RecoverySummary(state)
		if out.Status == StatusDraft {
			out.Status = StatusInReview
		}
	}

	out.Stoplight = seedsweep.ComputeStoplight(state)
	out.Payload = SeedSweepPayload{State: state.Clone(), Summary: summary}
	return out, nil
}

// RecoveryState extracts the procedure carried by a SEEDSWEEP artifact.
func RecoveryState(a Artifact) (seedsweep.PhaseState, bool) {
	p, ok := a.Payload.(SeedSweepPayload)
	if !ok {
		return seedsweep.PhaseState{}, false
	}
	return p.State.Clone(), true
}

// RecoverySummary renders a completed procedure as labelled lines.
func RecoverySummary(s seedsweep.PhaseState) string {
	debris := make([]string, len(s.Sweep.Debris))
	for i, d := range s.Sweep.Debris {
		debris[i] = string(d.Action) + ":" + d.Item
	}
	lines := []string{
		"Trigger: " + string(s.Trigger),
		"Objective: " + s.Stop.Objective,
		"Observations: " + strings.Join(s.Witness.Observations, " | "),
		"Contradictions: " + strings.Join(s.Witness.Contradictions, " | "),
		"Debris: " + strings.Join(debris, " | "),
		"Selected Seed: " + s.Seed.Selected,
		"Success Condition: " + s.Seed.SuccessCondition,
		"Next Action: " + s.Stabilize.NextAction,
		"Watch For: " + strings.Join(s.Stabilize.WatchFor, " | "),
		"Recheck: " + formatOptionalTime(s.Stabilize.RecheckAt),
		"CompletedAt: " + formatOptionalTime(s.CompletedAt),
	}
	return strings.Join(lines, "\n")
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "(none)"
	}
	return t.UTC().Format(time.RFC3339)
}

// #endregion recovery-artifact

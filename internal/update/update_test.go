package update

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func ctx(role actor.Role) UpdateContext {
	return UpdateContext{Role: role, Now: t0.Add(time.Minute), NewID: func() string { return "ss_fixed01" }}
}

func TestApplyStartCompilation(t *testing.T) {
	s := governance.ExampleSession(t0)
	result := Apply(s, governance.ExampleArtifacts(), governance.Action{Type: governance.ActionStartCompilation}, ctx(actor.Assistant))

	if result.NewSession.State != governance.StateInCompilation {
		t.Fatalf("state = %s", result.NewSession.State)
	}
	if !result.NewSession.UpdatedAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("UpdatedAt not refreshed: %v", result.NewSession.UpdatedAt)
	}
	if s.State != governance.StateDraft {
		t.Error("input session mutated")
	}
	if len(result.Notes) != 1 {
		t.Errorf("expected one note, got %v", result.Notes)
	}
}

func TestTriggerSynthesizesRecoveryWithoutTouchingInput(t *testing.T) {
	arts := make([]governance.Artifact, 0, 10) // spare capacity exposes in-place appends
	arts = append(arts, governance.ExampleArtifacts()...)
	before := governance.CloneArtifacts(arts)

	action := governance.Action{Type: governance.ActionTriggerRecovery, Reason: "looping on schema"}
	result := Apply(governance.ExampleSession(t0), arts, action, ctx(actor.Assistant))

	if diff := cmp.Diff(before, arts); diff != "" {
		t.Errorf("input artifacts mutated (-before +after):\n%s", diff)
	}
	if got := arts[:5][4].ID; got != "" {
		t.Errorf("backing array written: %q", got)
	}
	if len(result.NewArtifacts) != 5 {
		t.Fatalf("expected 5 artifacts, got %d", len(result.NewArtifacts))
	}

	rec := result.NewArtifacts[4]
	if rec.ID != "ss_fixed01" || rec.Kind != governance.KindSeedSweep || rec.Status != governance.StatusDraft {
		t.Fatalf("unexpected synthesized artifact: %+v", rec)
	}
	state, ok := governance.RecoveryState(rec)
	if !ok || state.Phase != seedsweep.PhaseStop || state.Reason != "looping on schema" {
		t.Errorf("unexpected recovery state: %+v", state)
	}
	if result.NewSession.State != governance.StateRecoveryInProgress || result.NewSession.ActiveRecoveryID != "ss_fixed01" {
		t.Errorf("session not linked: %+v", result.NewSession)
	}
	if len(result.Notes) != 2 {
		t.Errorf("expected creation and trigger notes, got %v", result.Notes)
	}
}

func TestTriggerReusesActiveRecovery(t *testing.T) {
	existing := governance.NewRecoveryArtifact("ss_existing", seedsweep.NewPhaseState(seedsweep.TriggerPreflight, ""))
	arts := append(governance.ExampleArtifacts(), existing)

	result := Apply(governance.ExampleSession(t0), arts, governance.Action{Type: governance.ActionTriggerRecovery, Reason: "again"}, ctx(actor.Human))
	if len(result.NewArtifacts) != len(arts) {
		t.Fatalf("artifact count changed: %d", len(result.NewArtifacts))
	}
	if result.NewSession.ActiveRecoveryID != "ss_existing" {
		t.Errorf("active = %s", result.NewSession.ActiveRecoveryID)
	}
}

func TestSignoffDefaultsRole(t *testing.T) {
	s := governance.ExampleSession(t0)
	s.State = governance.StateAwaitingSignoff
	result := Apply(s, nil, governance.Action{Type: governance.ActionSignoff, SignerName: "Ada"}, ctx(actor.Human))

	so := result.NewSession.Signoff
	if !so.Signed || so.SignerName != "Ada" || so.SignerRole != "HUMAN" || so.SignedAt == nil {
		t.Fatalf("unexpected signoff: %+v", so)
	}
}

func TestSetStatusStampsApproval(t *testing.T) {
	arts := governance.ExampleArtifacts()
	approve := governance.Action{Type: governance.ActionSetStatus, ArtifactID: "a_semantic", Status: governance.StatusApproved}

	result := Apply(governance.ExampleSession(t0), arts, approve, ctx(actor.Human))
	got := result.NewArtifacts[1]
	if got.Status != governance.StatusApproved || !got.Approval.ApprovedByHuman || got.Approval.ApprovedAt == nil {
		t.Fatalf("approval not stamped: %+v", got.Approval)
	}
	if arts[1].Status != governance.StatusDraft {
		t.Error("input artifact mutated")
	}

	review := governance.Action{Type: governance.ActionSetStatus, ArtifactID: "a_semantic", Status: governance.StatusInReview}
	again := Apply(result.NewSession, result.NewArtifacts, review, ctx(actor.Assistant))
	if diff := cmp.Diff(got.Approval, again.NewArtifacts[1].Approval); diff != "" {
		t.Errorf("approval should be kept on non-APPROVED status (-want +got):\n%s", diff)
	}
}

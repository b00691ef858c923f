package policy

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
	"github.com/bridgeos/govern/internal/stoplight"
)

func codes(errs []governance.EvalError) []governance.Code {
	var out []governance.Code
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func session(state governance.SessionState) governance.Session {
	s := governance.ExampleSession(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	s.State = state
	return s
}

func approvedCore() []governance.Artifact {
	arts := governance.ExampleArtifacts()
	for i := range arts {
		arts[i].Status = governance.StatusApproved
		arts[i].Stoplight = stoplight.Green
	}
	return arts
}

func TestMissingAndDuplicateFireTogether(t *testing.T) {
	arts := governance.ExampleArtifacts()
	arts = append(arts[:1], arts[2:]...) // drop SEMANTIC
	dup := arts[0].Clone()
	dup.ID = "a_ingestion_2"
	arts = append(arts, dup)

	got := codes(Check(session(governance.StateDraft), arts, governance.Action{Type: governance.ActionStartCompilation}))
	want := []governance.Code{
		governance.CodeCoreArtifactMissing,
		governance.CodeDuplicateCoreArtifact,
		governance.CodeMissingCoreArtifacts,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestFinalizeBlockedByRed(t *testing.T) {
	arts := approvedCore()
	arts[1].Stoplight = stoplight.Red

	got := codes(Check(session(governance.StateInCompilation), arts, governance.Action{Type: governance.ActionRequestFinalize}))
	if diff := cmp.Diff([]governance.Code{governance.CodeRedBlocksFinalize}, got); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestFinalizeBlockedBySessionRed(t *testing.T) {
	s := session(governance.StateInCompilation)
	s.Stoplight = stoplight.Red
	got := codes(Check(s, approvedCore(), governance.Action{Type: governance.ActionRequestFinalize}))
	if diff := cmp.Diff([]governance.Code{governance.CodeRedBlocksFinalize}, got); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestFinalizeAccumulatesEverything(t *testing.T) {
	arts := governance.ExampleArtifacts()
	arts[0].Stoplight = stoplight.Red

	got := codes(Check(session(governance.StateInCompilation), arts, governance.Action{Type: governance.ActionFinalize}))
	want := []governance.Code{
		governance.CodeNotReadyToFinalize,
		governance.CodeSignoffRequired,
		governance.CodeCoreNotApproved,
		governance.CodeRedBlocksFinalize,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestFinalizeReady(t *testing.T) {
	s := session(governance.StateAwaitingSignoff)
	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s.Signoff = governance.Signoff{Signed: true, SignerName: "Ada", SignerRole: "HUMAN", SignedAt: &at}
	if errs := Check(s, approvedCore(), governance.Action{Type: governance.ActionFinalize}); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestSignoffRequiresAwaiting(t *testing.T) {
	got := codes(Check(session(governance.StateInCompilation), approvedCore(), governance.Action{Type: governance.ActionSignoff, SignerName: "Ada"}))
	if diff := cmp.Diff([]governance.Code{governance.CodeNotAwaitingSignoff}, got); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestResumeAccumulates(t *testing.T) {
	resume := governance.Action{Type: governance.ActionResumeRecovery}

	got := codes(Check(session(governance.StateInCompilation), approvedCore(), resume))
	want := []governance.Code{governance.CodeNotInRecovery, governance.CodeNoActiveRecovery}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}

	s := session(governance.StateRecoveryInProgress)
	s.ActiveRecoveryID = "ss_1"
	rec := governance.NewRecoveryArtifact("ss_1", seedsweep.NewPhaseState(seedsweep.TriggerHumanRequest, "r"))
	arts := append(approvedCore(), rec)
	got = codes(Check(s, arts, resume))
	if diff := cmp.Diff([]governance.Code{governance.CodeRecoveryNotApproved}, got); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}

	arts[len(arts)-1].Status = governance.StatusApproved
	if errs := Check(s, arts, resume); len(errs) != 0 {
		t.Errorf("expected resume to pass, got %v", errs)
	}
}

func TestFinalizedSessionIsImmutable(t *testing.T) {
	for _, a := range []governance.Action{
		{Type: governance.ActionStartCompilation},
		{Type: governance.ActionSetStoplight, ArtifactID: "a_ingestion", Stoplight: stoplight.Red},
		{Type: governance.ActionTriggerRecovery, Reason: "late"},
	} {
		got := codes(Check(session(governance.StateFinalized), approvedCore(), a))
		if diff := cmp.Diff([]governance.Code{governance.CodeSessionAlreadyFinal}, got); diff != "" {
			t.Errorf("%s: codes mismatch (-want +got):\n%s", a, diff)
		}
	}
}

func TestArtifactActionsNeedKnownID(t *testing.T) {
	a := governance.Action{Type: governance.ActionSetStatus, ArtifactID: "nope", Status: governance.StatusInReview}
	got := codes(Check(session(governance.StateDraft), approvedCore(), a))
	if diff := cmp.Diff([]governance.Code{governance.CodeArtifactNotFound}, got); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
}

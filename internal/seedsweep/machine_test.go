package seedsweep

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/stoplight"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// filled returns a procedure whose content satisfies every phase suite.
func filled() PhaseState {
	s := NewPhaseState(TriggerHumanRequest, "drift in ingestion output")
	s.Stop.PauseAcknowledged = true
	s.Stop.Objective = "Restore a trustworthy ingestion baseline."
	s.Witness.Observations = []string{"normalized text drops headings"}
	s.Witness.Contradictions = []string{"summary claims headings are kept"}
	s.Sweep.Debris = []Debris{{Item: "stale heading rule", Action: DebrisRemove}}
	s.Seed.Candidates = []string{"re-run normalizer", "hand-edit headings"}
	s.Seed.Selected = "re-run normalizer"
	s.Seed.SuccessCondition = "headings survive normalization"
	s.Stabilize.NextAction = "diff normalized output"
	s.Stabilize.WatchFor = []string{"missing headings"}
	return s
}

func confirmAll(t *testing.T, s PhaseState) PhaseState {
	t.Helper()
	for _, p := range []Phase{PhaseStop, PhaseWitness, PhaseSweep, PhaseSeed, PhaseStabilize} {
		var err error
		s, err = Confirm(s, p, actor.Human, t0)
		if err != nil {
			t.Fatalf("Confirm %s: %v", p, err)
		}
	}
	return s
}

func phasesOf(errs []GateError) []Phase {
	var out []Phase
	for _, e := range errs {
		out = append(out, e.Phase)
	}
	return out
}

func TestNextPhase(t *testing.T) {
	want := []Phase{PhaseWitness, PhaseSweep, PhaseSeed, PhaseStabilize, PhaseComplete, PhaseComplete}
	for i, p := range Order {
		if got := NextPhase(p); got != want[i] {
			t.Errorf("NextPhase(%s) = %s, want %s", p, got, want[i])
		}
	}
}

func TestFreshStateStopGates(t *testing.T) {
	s := NewPhaseState(TriggerPreflight, "")
	errs := ValidatePhaseGates(s, actor.Human)
	if len(errs) != 2 {
		t.Fatalf("expected 2 STOP errors, got %d: %v", len(errs), errs)
	}
	for _, e := range errs {
		if e.Phase != PhaseStop {
			t.Errorf("expected STOP tag, got %s", e.Phase)
		}
	}
	if s.Stoplight != stoplight.Yellow {
		t.Errorf("fresh stoplight = %s, want YELLOW", s.Stoplight)
	}
}

func TestGatesAreCumulative(t *testing.T) {
	s := NewPhaseState(TriggerHumanRequest, "")
	s.Stop.PauseAcknowledged = true
	s.Stop.Objective = "x"
	s.Phase = PhaseSeed

	got := phasesOf(ValidatePhaseGates(s, actor.Human))
	want := []Phase{
		PhaseWitness,
		PhaseSweep,
		PhaseSeed, PhaseSeed, PhaseSeed,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("gate phases mismatch (-want +got):\n%s", diff)
	}
}

func TestBlankReservedJudgmentFails(t *testing.T) {
	s := filled()
	s.Stop.ReservedJudgment = []string{"ok", "   "}
	errs := Blocking(s, actor.Human)
	if len(errs) != 1 || errs[0].Phase != PhaseStop {
		t.Fatalf("expected one STOP error, got %v", errs)
	}
	if HasReservedJudgment(nil) {
		t.Error("nil notes should not satisfy the rule")
	}
}

func TestAdvanceBlockedByCurrentPhase(t *testing.T) {
	s := NewPhaseState(TriggerHumanRequest, "")
	next, err := Advance(s, actor.Human, t0)
	if !errors.Is(err, ErrPhaseBlocked) {
		t.Fatalf("expected ErrPhaseBlocked, got %v", err)
	}
	var be *BlockedError
	if !errors.As(err, &be) || be.Phase != PhaseStop || len(be.Errors) != 2 {
		t.Fatalf("unexpected blocked error: %#v", err)
	}
	if next.Phase != PhaseStop {
		t.Errorf("phase moved to %s", next.Phase)
	}
}

func TestAdvanceFullWalk(t *testing.T) {
	s := confirmAll(t, filled())

	for _, want := range []Phase{PhaseWitness, PhaseSweep, PhaseSeed, PhaseStabilize} {
		var err error
		s, err = Advance(s, actor.Human, t0)
		if err != nil {
			t.Fatalf("Advance to %s: %v", want, err)
		}
		if s.Phase != want {
			t.Fatalf("phase = %s, want %s", s.Phase, want)
		}
		if s.Stoplight != stoplight.Yellow {
			t.Errorf("stoplight at %s = %s, want YELLOW", s.Phase, s.Stoplight)
		}
	}

	done := t0.Add(time.Hour)
	s, err := Advance(s, actor.Human, done)
	if err != nil {
		t.Fatalf("Advance to COMPLETE: %v", err)
	}
	if s.Phase != PhaseComplete || s.Stoplight != stoplight.Green {
		t.Fatalf("got %s/%s, want COMPLETE/GREEN", s.Phase, s.Stoplight)
	}
	if s.CompletedAt == nil || !s.CompletedAt.Equal(done) {
		t.Errorf("CompletedAt = %v, want %v", s.CompletedAt, done)
	}

	again, err := Advance(s, actor.Human, done.Add(time.Hour))
	if err != nil || again.Phase != PhaseComplete || !again.CompletedAt.Equal(done) {
		t.Errorf("advance on COMPLETE should be a no-op, got %v %v", again.Phase, err)
	}
}

func TestCompleteRequiresAllConfirmations(t *testing.T) {
	s := filled()
	s.Phase = PhaseStabilize

	_, err := Advance(s, actor.Human, t0)
	var be *BlockedError
	if !errors.As(err, &be) || be.Phase != PhaseComplete {
		t.Fatalf("expected COMPLETE block, got %v", err)
	}

	s = confirmAll(t, s)
	s.Seed.ConfirmedByHuman = false
	s.Seed.ConfirmedAt = nil
	if _, err := Advance(s, actor.Human, t0); !errors.Is(err, ErrPhaseBlocked) {
		t.Fatalf("expected block with one phase unconfirmed, got %v", err)
	}
}

func TestAssistantConfirmationTaggedToCurrentPhase(t *testing.T) {
	s := confirmAll(t, filled())
	s.Phase = PhaseSweep

	errs := ValidatePhaseGates(s, actor.Assistant)
	if len(errs) != 1 || errs[0].Phase != PhaseSweep {
		t.Fatalf("expected one SWEEP authority error, got %v", errs)
	}
	if _, err := Advance(s, actor.Assistant, t0); !errors.Is(err, ErrPhaseBlocked) {
		t.Errorf("assistant should be blocked, got %v", err)
	}
}

func TestConfirmedWithoutTimestamp(t *testing.T) {
	s := filled()
	s.Witness.ConfirmedByHuman = true
	errs := ValidatePhaseGates(s, actor.Human)
	if len(errs) != 1 || errs[0].Phase != PhaseWitness {
		t.Fatalf("expected WITNESS timestamp error, got %v", errs)
	}
}

func TestConfirmRequiresHuman(t *testing.T) {
	s := filled()
	got, err := Confirm(s, PhaseStop, actor.Assistant, t0)
	if !errors.Is(err, ErrHumanRequired) {
		t.Fatalf("expected ErrHumanRequired, got %v", err)
	}
	if got.Stop.ConfirmedByHuman {
		t.Error("assistant confirmation should not stick")
	}
	if _, err := Confirm(s, PhaseComplete, actor.Human, t0); !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("COMPLETE has no confirmation, got %v", err)
	}
}

func TestComputeStoplight(t *testing.T) {
	recheck := t0.Add(24 * time.Hour)
	tests := []struct {
		name   string
		mutate func(*PhaseState)
		want   stoplight.Stoplight
	}{
		{"in progress", func(s *PhaseState) {}, stoplight.Yellow},
		{"untriaged contradictions", func(s *PhaseState) { s.Sweep.Debris = nil }, stoplight.Red},
		{"parked without recheck", func(s *PhaseState) {
			s.Sweep.Debris = append(s.Sweep.Debris, Debris{Item: "a", Action: DebrisPark})
		}, stoplight.Red},
		{"parked with recheck", func(s *PhaseState) {
			s.Sweep.Debris = append(s.Sweep.Debris, Debris{Item: "a", Action: DebrisPark})
			s.Stabilize.RecheckAt = &recheck
		}, stoplight.Yellow},
		{"complete", func(s *PhaseState) { s.Phase = PhaseComplete }, stoplight.Green},
		{"complete without watch signals", func(s *PhaseState) {
			s.Phase = PhaseComplete
			s.Stabilize.WatchFor = nil
		}, stoplight.Red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := filled()
			tt.mutate(&s)
			if got := ComputeStoplight(s); got != tt.want {
				t.Errorf("ComputeStoplight = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	s := confirmAll(t, filled())
	before := s.Clone()

	next, err := Advance(s, actor.Human, t0)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	next.Witness.Observations[0] = "changed"

	if diff := cmp.Diff(before, s); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestResetStartsOver(t *testing.T) {
	s := Reset(TriggerRecursionLoop, "looping on the same fix")
	if s.Phase != PhaseStop || s.Trigger != TriggerRecursionLoop || s.Reason == "" {
		t.Fatalf("unexpected reset state: %+v", s)
	}
	if s.anyConfirmed() {
		t.Error("reset state should carry no confirmations")
	}
}

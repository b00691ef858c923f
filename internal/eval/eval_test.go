package eval

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
	"github.com/bridgeos/govern/internal/stoplight"
)

var (
	t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func newEvaluator() *Evaluator {
	return NewEvaluator(EvalConfig{
		Clock: func() time.Time { return t1 },
		NewID: func() string { return "ss_test0001" },
	})
}

func approvedCore() []governance.Artifact {
	arts := governance.ExampleArtifacts()
	for i := range arts {
		at := t0
		arts[i].Status = governance.StatusApproved
		arts[i].Stoplight = stoplight.Green
		arts[i].Approval = governance.Approval{ApprovedByHuman: true, ApprovedBy: "HUMAN", ApprovedAt: &at}
	}
	return arts
}

func withState(state governance.SessionState) governance.Session {
	s := governance.ExampleSession(t0)
	s.State = state
	return s
}

func recovery(status governance.Status, light stoplight.Stoplight) governance.Artifact {
	a := governance.NewRecoveryArtifact("ss_1", seedsweep.NewPhaseState(seedsweep.TriggerPreflight, ""))
	a.Status = status
	a.Stoplight = light
	if status == governance.StatusApproved {
		at := t0
		a.Approval = governance.Approval{ApprovedByHuman: true, ApprovedBy: "HUMAN", ApprovedAt: &at}
	}
	return a
}

func requireCodes(t *testing.T, r governance.Result, want ...governance.Code) {
	t.Helper()
	if r.Allowed {
		t.Fatalf("expected denial with %v, got allowed", want)
	}
	if diff := cmp.Diff(want, r.Codes()); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
}

func requireAllowed(t *testing.T, r governance.Result) {
	t.Helper()
	if !r.Allowed {
		t.Fatalf("expected allowed, got %v", r.Errors)
	}
}

// #region scenarios
func TestPreflightRequiredOnDraftStart(t *testing.T) {
	e := newEvaluator()
	r, trace := e.EvaluateTrace(withState(governance.StateDraft), governance.ExampleArtifacts(),
		governance.Action{Type: governance.ActionStartCompilation}, actor.Human)

	requireCodes(t, r, governance.CodePreflightRequired)
	if trace.HaltedAt != StageRecovery {
		t.Errorf("halted at %s, want recovery", trace.HaltedAt)
	}
}

func TestAssistantApprovalNeedsHuman(t *testing.T) {
	e := newEvaluator()
	s := withState(governance.StateDraft)
	arts := governance.ExampleArtifacts()
	approve := governance.Action{Type: governance.ActionSetStatus, ArtifactID: "a_ingestion", Status: governance.StatusApproved}

	requireCodes(t, e.Evaluate(s, arts, approve, actor.Assistant), governance.CodeHumanGateRequired)

	r := e.Evaluate(s, arts, approve, actor.Human)
	requireAllowed(t, r)
	got := r.NewArtifacts[0]
	if got.Status != governance.StatusApproved || !got.Approval.ApprovedByHuman {
		t.Fatalf("approval not stamped: %+v", got)
	}
	if !got.Approval.ApprovedAt.Equal(t1) {
		t.Errorf("approved_at = %v, want injected clock %v", got.Approval.ApprovedAt, t1)
	}
}

func TestRecoveryMustBeGreenBeforeStart(t *testing.T) {
	e := newEvaluator()
	s := withState(governance.StateDraft)
	arts := append(governance.ExampleArtifacts(), recovery(governance.StatusApproved, stoplight.Yellow))
	start := governance.Action{Type: governance.ActionStartCompilation}

	requireCodes(t, e.Evaluate(s, arts, start, actor.Human), governance.CodeRecoveryNotGreen)

	r := e.Evaluate(s, arts, governance.Action{Type: governance.ActionSetStoplight, ArtifactID: "ss_1", Stoplight: stoplight.Green}, actor.Assistant)
	requireAllowed(t, r)

	r = e.Evaluate(r.NewSession, r.NewArtifacts, start, actor.Human)
	requireAllowed(t, r)
	if r.NewSession.State != governance.StateInCompilation {
		t.Fatalf("state = %s", r.NewSession.State)
	}
}

func TestRedCoreBlocksRequestFinalize(t *testing.T) {
	e := newEvaluator()
	arts := approvedCore()
	arts[2].Stoplight = stoplight.Red

	r, trace := e.EvaluateTrace(withState(governance.StateInCompilation), arts,
		governance.Action{Type: governance.ActionRequestFinalize}, actor.Human)
	requireCodes(t, r, governance.CodeRedBlocksFinalize)
	if trace.HaltedAt != StageTransition {
		t.Errorf("halted at %s, want transition", trace.HaltedAt)
	}
	// denial at the transition stage returns risk-bound copies
	if r.NewSession.Stoplight != stoplight.Red {
		t.Errorf("bound stoplight = %s, want RED", r.NewSession.Stoplight)
	}
	if r.NewSession.State != governance.StateInCompilation {
		t.Errorf("state changed on denial: %s", r.NewSession.State)
	}
}

func TestSignoffThenFinalize(t *testing.T) {
	e := newEvaluator()
	s := withState(governance.StateAwaitingSignoff)
	s.Stoplight = stoplight.Green

	r := e.Evaluate(s, approvedCore(), governance.Action{Type: governance.ActionSignoff, SignerName: "Ada Reviewer"}, actor.Human)
	requireAllowed(t, r)
	signed := r.NewSession.Signoff
	if !signed.Signed || signed.SignerName != "Ada Reviewer" || !signed.SignedAt.Equal(t1) {
		t.Fatalf("unexpected signoff: %+v", signed)
	}

	r = e.Evaluate(r.NewSession, r.NewArtifacts, governance.Action{Type: governance.ActionFinalize}, actor.Human)
	requireAllowed(t, r)
	if r.NewSession.State != governance.StateFinalized {
		t.Fatalf("state = %s", r.NewSession.State)
	}
	if diff := cmp.Diff(signed, r.NewSession.Signoff); diff != "" {
		t.Errorf("signoff changed by finalize (-want +got):\n%s", diff)
	}

	requireCodes(t, e.Evaluate(r.NewSession, r.NewArtifacts, governance.Action{Type: governance.ActionRequestFinalize}, actor.Human),
		governance.CodeSessionAlreadyFinal)
}

func TestFinalizedSessionRejectsEveryAction(t *testing.T) {
	e := newEvaluator()
	actions := []governance.Action{
		{Type: governance.ActionStartCompilation},
		{Type: governance.ActionTriggerRecovery, Reason: "drift"},
		{Type: governance.ActionResumeRecovery},
		{Type: governance.ActionRequestFinalize},
		{Type: governance.ActionSignoff, SignerName: "Ada Reviewer"},
		{Type: governance.ActionFinalize},
		{Type: governance.ActionSetStatus, ArtifactID: "a_ingestion", Status: governance.StatusApproved},
		{Type: governance.ActionSetStoplight, ArtifactID: "a_ingestion", Stoplight: stoplight.Green},
	}
	for _, a := range actions {
		r, trace := e.EvaluateTrace(withState(governance.StateFinalized), approvedCore(), a, actor.Human)
		if r.Allowed {
			t.Errorf("%s: expected denial", a)
			continue
		}
		if diff := cmp.Diff([]governance.Code{governance.CodeSessionAlreadyFinal}, r.Codes()); diff != "" {
			t.Errorf("%s: codes mismatch (-want +got):\n%s", a, diff)
		}
		if trace.HaltedAt != StageRecovery {
			t.Errorf("%s: halted at %s", a, trace.HaltedAt)
		}
	}
}

// #endregion scenarios

// #region properties
func TestEvaluateNeverMutatesInputs(t *testing.T) {
	e := newEvaluator()
	actions := []governance.Action{
		{Type: governance.ActionStartCompilation},
		{Type: governance.ActionTriggerRecovery, Reason: "confused"},
		{Type: governance.ActionResumeRecovery},
		{Type: governance.ActionRequestFinalize},
		{Type: governance.ActionSignoff, SignerName: "Ada"},
		{Type: governance.ActionFinalize},
		{Type: governance.ActionSetStatus, ArtifactID: "a_semantic", Status: governance.StatusApproved},
		{Type: governance.ActionSetStatus, ArtifactID: "ss_1", Status: governance.StatusRejected},
		{Type: governance.ActionSetStoplight, ArtifactID: "a_execution", Stoplight: stoplight.Red},
	}
	states := []governance.SessionState{
		governance.StateDraft, governance.StateInCompilation, governance.StateRecoveryInProgress,
		governance.StateAwaitingSignoff,
	}

	for _, st := range states {
		for _, a := range actions {
			for _, role := range []actor.Role{actor.Human, actor.Assistant} {
				s := withState(st)
				s.ActiveRecoveryID = "ss_1"
				arts := make([]governance.Artifact, 0, 8)
				arts = append(arts, governance.ExampleArtifacts()...)
				arts = append(arts, recovery(governance.StatusApproved, stoplight.Green))

				wantS, wantA := s.Clone(), governance.CloneArtifacts(arts)
				r := e.Evaluate(s, arts, a, role)

				if diff := cmp.Diff(wantS, s); diff != "" {
					t.Fatalf("%s/%s/%s mutated session:\n%s", st, a, role, diff)
				}
				if diff := cmp.Diff(wantA, arts); diff != "" {
					t.Fatalf("%s/%s/%s mutated artifacts:\n%s", st, a, role, diff)
				}
				if len(r.NewArtifacts) > 0 && &r.NewArtifacts[0] == &arts[0] {
					t.Fatalf("%s/%s/%s returned the input slice", st, a, role)
				}
				if r.Allowed && len(r.NewArtifacts) > 0 {
					r.NewArtifacts[0].ReservedJudgment[0] = "scribbled"
					if arts[0].ReservedJudgment[0] == "scribbled" {
						t.Fatalf("%s/%s/%s result shares memory with input", st, a, role)
					}
				}
			}
		}
	}
}

func TestAuthorityInvariantIgnoresState(t *testing.T) {
	e := newEvaluator()
	humanOnly := []governance.Action{
		{Type: governance.ActionSetStatus, ArtifactID: "a_ingestion", Status: governance.StatusApproved},
		{Type: governance.ActionSetStatus, ArtifactID: "a_ingestion", Status: governance.StatusRejected},
		{Type: governance.ActionSignoff, SignerName: "bot"},
		{Type: governance.ActionFinalize},
	}
	for _, st := range []governance.SessionState{
		governance.StateDraft, governance.StateInCompilation, governance.StateRecoveryInProgress,
		governance.StateAwaitingSignoff, governance.StateFinalized,
	} {
		for _, a := range humanOnly {
			r, trace := e.EvaluateTrace(withState(st), approvedCore(), a, actor.Assistant)
			if r.Allowed || !r.HasCode(governance.CodeHumanGateRequired) {
				t.Errorf("%s/%s: expected HUMAN_GATE_REQUIRED, got %v", st, a, r.Codes())
			}
			if trace.HaltedAt != StageAuthority {
				t.Errorf("%s/%s: halted at %s", st, a, trace.HaltedAt)
			}
		}
	}
}

func TestSchemaAndAuthorityErrorsAccumulate(t *testing.T) {
	e := newEvaluator()
	s := withState(governance.StateDraft)
	s.Title = ""
	approve := governance.Action{Type: governance.ActionSetStatus, ArtifactID: "a_ingestion", Status: governance.StatusApproved}

	r, trace := e.EvaluateTrace(s, governance.ExampleArtifacts(), approve, actor.Assistant)
	requireCodes(t, r, governance.CodeSchemaInvalid, governance.CodeHumanGateRequired)
	if diff := cmp.Diff([]StageName{StageSchema, StageAuthority}, trace.Ran); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	if r.Errors[0].Path != "session.title" {
		t.Errorf("path = %q", r.Errors[0].Path)
	}
}

func TestBoundStoplightIsWorstOfContributors(t *testing.T) {
	e := newEvaluator()
	lights := stoplight.All
	for _, a := range lights {
		for _, b := range lights {
			for _, c := range lights {
				arts := approvedCore()
				arts[1].Stoplight = a
				arts[2].Stoplight = b
				arts[3].Stoplight = c
				r := e.Evaluate(withState(governance.StateInCompilation), arts,
					governance.Action{Type: governance.ActionSetStoplight, ArtifactID: "a_ingestion", Stoplight: stoplight.Yellow}, actor.Assistant)
				requireAllowed(t, r)

				got := r.NewSession.Stoplight
				for _, art := range r.NewArtifacts {
					if art.Kind.IsCore() && got.Rank() < art.Stoplight.Rank() {
						t.Fatalf("session %s better than %s (%s)", got, art.ID, art.Stoplight)
					}
				}
				if want := stoplight.Worst(stoplight.Yellow, a, b, c); got != want {
					t.Fatalf("bound %s, want %s", got, want)
				}
				if again := BindStoplight(r.NewSession, r.NewArtifacts); again != got {
					t.Fatalf("rebinding changed %s to %s", got, again)
				}
			}
		}
	}
}

func TestBindStoplightRecoveryContribution(t *testing.T) {
	arts := append(approvedCore(), recovery(governance.StatusDraft, stoplight.Red))
	s := withState(governance.StateRecoveryInProgress)
	s.ActiveRecoveryID = "ss_1"
	if got := BindStoplight(s, arts); got != stoplight.Red {
		t.Errorf("recovery in progress: got %s, want RED", got)
	}

	s.State = governance.StateInCompilation
	if got := BindStoplight(s, arts); got != stoplight.Green {
		t.Errorf("compiling: recovery should not count, got %s", got)
	}

	if got := BindStoplight(s, nil); got != stoplight.Yellow {
		t.Errorf("compiling with no artifacts: got %s, want YELLOW", got)
	}
	if got := BindStoplight(withState(governance.StateDraft), nil); got != stoplight.Green {
		t.Errorf("draft with no artifacts: got %s, want GREEN", got)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	s := withState(governance.StateInCompilation)
	a := governance.Action{Type: governance.ActionTriggerRecovery, Reason: "loop"}
	first := newEvaluator().Evaluate(s, approvedCore(), a, actor.Assistant)
	second := newEvaluator().Evaluate(s, approvedCore(), a, actor.Assistant)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ (-first +second):\n%s", diff)
	}
}

// #endregion properties

// #region flow
func TestTriggerAndResumeRecovery(t *testing.T) {
	e := newEvaluator()
	s := withState(governance.StateInCompilation)
	s.Stoplight = stoplight.Green

	r := e.Evaluate(s, approvedCore(), governance.Action{Type: governance.ActionTriggerRecovery, Reason: "scope drift"}, actor.Assistant)
	requireAllowed(t, r)
	if r.NewSession.ActiveRecoveryID != "ss_test0001" || r.NewSession.State != governance.StateRecoveryInProgress {
		t.Fatalf("unexpected session: %+v", r.NewSession)
	}
	// the fresh recovery artifact is YELLOW and now contributes
	if r.NewSession.Stoplight != stoplight.Yellow {
		t.Errorf("stoplight = %s, want YELLOW", r.NewSession.Stoplight)
	}
	wantNotes := []string{
		"Recovery artifact ss_test0001 created.",
		"Recovery triggered: scope drift. Active artifact: ss_test0001.",
		"Session stoplight rebound from GREEN to YELLOW.",
	}
	if diff := cmp.Diff(wantNotes, r.SideEffects); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}

	resume := governance.Action{Type: governance.ActionResumeRecovery}
	requireCodes(t, e.Evaluate(r.NewSession, r.NewArtifacts, resume, actor.Human), governance.CodeRecoveryNotApproved)

	sess, arts := completeRecovery(t, e, r.NewSession, r.NewArtifacts)
	r = e.Evaluate(sess, arts, governance.Action{Type: governance.ActionSetStatus, ArtifactID: "ss_test0001", Status: governance.StatusApproved}, actor.Human)
	requireAllowed(t, r)

	r = e.Evaluate(r.NewSession, r.NewArtifacts, resume, actor.Human)
	requireAllowed(t, r)
	if r.NewSession.State != governance.StateInCompilation || r.NewSession.Stoplight != stoplight.Green {
		t.Fatalf("after resume: %s/%s", r.NewSession.State, r.NewSession.Stoplight)
	}
}

func TestEvaluateJSONBoundary(t *testing.T) {
	e := newEvaluator()
	sessionJSON, err := json.Marshal(withState(governance.StateDraft))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	start := governance.Action{Type: governance.ActionStartCompilation}

	r := e.EvaluateJSON(sessionJSON, json.RawMessage(`{"not":"an array"}`), start, actor.Human)
	requireCodes(t, r, governance.CodeArtifactsNotArray)

	artsJSON, err := json.Marshal(governance.ExampleArtifacts())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	r = e.EvaluateJSON(sessionJSON, artsJSON, start, actor.Human)
	requireCodes(t, r, governance.CodePreflightRequired)

	r = e.EvaluateJSON(sessionJSON, artsJSON, start, "ROBOT")
	requireCodes(t, r, governance.CodeSchemaInvalid)
	if r.Errors[0].Path != "role" {
		t.Errorf("path = %q", r.Errors[0].Path)
	}
}

func TestEvaluateJSONReportsEveryViolation(t *testing.T) {
	e := newEvaluator()
	sessionJSON, err := json.Marshal(withState(governance.StateDraft))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(sessionJSON, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	doc["title"] = 5
	doc["reserved_judgment"] = []string{}
	doc["state"] = "BOGUS"
	sessionJSON, _ = json.Marshal(doc)
	artsJSON, _ := json.Marshal(governance.ExampleArtifacts())

	r := e.EvaluateJSON(sessionJSON, artsJSON, governance.Action{Type: governance.ActionStartCompilation}, actor.Human)
	requireCodes(t, r, governance.CodeSchemaInvalid, governance.CodeSchemaInvalid, governance.CodeSchemaInvalid)

	var got []string
	for _, err := range r.Errors {
		got = append(got, err.Path)
	}
	want := []string{"session.title", "session.state", "session.reserved_judgment"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestStagesDeclarePolicies(t *testing.T) {
	got := newEvaluator().Stages()
	if got[0].Name != StageSchema || got[0].Policy != Accumulate {
		t.Errorf("schema stage = %+v", got[0])
	}
	for _, st := range got[1:] {
		if st.Policy != FailFast {
			t.Errorf("%s should be fail-fast", st.Name)
		}
	}
}

// #endregion flow

package replay

import (
	"fmt"
	"time"

	"github.com/bridgeos/govern/internal/eval"
)

// #region replay

// NewEvaluator returns an evaluator pinned to the fixture clock, so a replay
// produces the same transcript every time.
func NewEvaluator(f *Fixture) *eval.Evaluator {
	clock := f.clock()
	n := 0
	return eval.NewEvaluator(eval.EvalConfig{
		Clock: func() time.Time { return clock },
		NewID: func() string {
			n++
			return fmt.Sprintf("ss_replay%03d", n)
		},
	})
}

// clock is the fixture's fixed time, or a fixed default when unset.
func (f *Fixture) clock() time.Time {
	if f.Clock.IsZero() {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return f.Clock
}

// Replay plays every step of f through ev. Allowed steps advance the working
// snapshot; denied steps leave it as it was. A mismatch is recorded and the
// run continues.
func Replay(f *Fixture, ev *eval.Evaluator) Run {
	session, artifacts := f.Start()
	results := make([]StepResult, 0, len(f.Steps))

	for i, step := range f.Steps {
		// 1. Evaluate
		res := ev.Evaluate(session, artifacts, step.Action, step.Role)

		// 2. Advance on allow
		if res.Allowed {
			session = res.NewSession
			artifacts = res.NewArtifacts
		}

		// 3. Compare against the expectation
		sr := StepResult{
			Step:             i + 1,
			Label:            step.Label,
			Role:             step.Role,
			Action:           step.Action,
			Allowed:          res.Allowed,
			Errors:           res.Errors,
			SessionState:     session.State,
			SessionStoplight: session.Stoplight,
			Matched:          true,
		}
		switch {
		case res.Allowed != step.ExpectAllowed:
			sr.Matched = false
			sr.Mismatch = fmt.Sprintf("expected allowed=%v, got %v", step.ExpectAllowed, res.Allowed)
		case !res.Allowed && step.ExpectCode != "" && !res.HasCode(step.ExpectCode):
			sr.Matched = false
			sr.Mismatch = fmt.Sprintf("expected error code %s, got %v", step.ExpectCode, res.Codes())
		}
		results = append(results, sr)
	}

	return Run{
		Description: f.Description,
		Results:     results,
		Session:     session,
		Artifacts:   artifacts,
	}
}

// Summarize computes aggregate stats from a run.
func Summarize(r Run) Summary {
	s := Summary{
		Total:          len(r.Results),
		FinalState:     r.Session.State,
		FinalStoplight: r.Session.Stoplight,
	}
	for _, res := range r.Results {
		if res.Allowed {
			s.Allowed++
		} else {
			s.Denied++
		}
		if !res.Matched {
			s.Mismatches++
		}
	}
	return s
}

// #endregion replay

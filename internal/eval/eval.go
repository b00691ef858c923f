package eval

import (
	"encoding/json"
	"fmt"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/gate"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/policy"
	"github.com/bridgeos/govern/internal/schema"
	"github.com/bridgeos/govern/internal/stoplight"
	"github.com/bridgeos/govern/internal/update"
)

// #region evaluator
// Evaluator decides whether an action is permitted and, if so, produces the
// next session and artifacts. It holds no mutable state and is safe for
// concurrent use; callers serialize actions per session themselves.
type Evaluator struct {
	config EvalConfig
	stages []stage
}

// NewEvaluator creates an evaluator. Zero fields of config fall back to
// DefaultEvalConfig.
func NewEvaluator(config EvalConfig) *Evaluator {
	def := DefaultEvalConfig()
	if config.Clock == nil {
		config.Clock = def.Clock
	}
	if config.NewID == nil {
		config.NewID = def.NewID
	}
	e := &Evaluator{config: config}
	e.stages = []stage{
		{StageSchema, Accumulate, e.schemaStage},
		{StageAuthority, FailFast, e.authorityStage},
		{StageRecovery, FailFast, e.recoveryStage},
		{StageBind, FailFast, e.bindStage},
		{StageTransition, FailFast, e.transitionStage},
		{StageApply, FailFast, e.applyStage},
		{StageRebind, FailFast, e.rebindStage},
	}
	return e
}

// Stages lists the pipeline in execution order with each stage's policy.
func (e *Evaluator) Stages() []StageInfo {
	out := make([]StageInfo, len(e.stages))
	for i, s := range e.stages {
		out[i] = StageInfo{Name: s.name, Policy: s.policy}
	}
	return out
}

// Evaluate runs the pipeline for one action. Inputs are never modified.
func (e *Evaluator) Evaluate(session governance.Session, artifacts []governance.Artifact, action governance.Action, role actor.Role) governance.Result {
	result, _ := e.EvaluateTrace(session, artifacts, action, role)
	return result
}

// EvaluateTrace is Evaluate plus a record of the stages that ran.
func (e *Evaluator) EvaluateTrace(session governance.Session, artifacts []governance.Artifact, action governance.Action, role actor.Role) (governance.Result, Trace) {
	r := &run{
		original:  session.Stoplight,
		session:   session.Clone(),
		artifacts: governance.CloneArtifacts(artifacts),
		action:    action,
		role:      role,
	}
	return e.execute(r)
}

// EvaluateJSON evaluates untyped session and artifact documents. Every
// decode and schema violation across both documents is reported together,
// alongside any action, role and authority errors.
func (e *Evaluator) EvaluateJSON(session, artifacts json.RawMessage, action governance.Action, role actor.Role) governance.Result {
	s, arts, errs := schema.DecodeAndValidate(session, artifacts)

	r := &run{
		original:  s.Stoplight,
		session:   s,
		artifacts: arts,
		action:    action,
		role:      role,
		validated: true,
		errs:      errs,
	}
	result, _ := e.execute(r)
	return result
}

func (e *Evaluator) execute(r *run) (governance.Result, Trace) {
	var trace Trace
	for _, st := range e.stages {
		st.fn(r)
		trace.Ran = append(trace.Ran, st.name)
		if st.policy == FailFast && len(r.errs) > 0 {
			trace.HaltedAt = st.name
			return governance.Result{
				Allowed:      false,
				Errors:       r.errs,
				NewSession:   r.session,
				NewArtifacts: r.artifacts,
				SideEffects:  []string{},
			}, trace
		}
	}
	return governance.Result{
		Allowed:      true,
		Errors:       []governance.EvalError{},
		NewSession:   r.session,
		NewArtifacts: r.artifacts,
		SideEffects:  r.notes,
	}, trace
}

// #endregion evaluator

// #region stages
type stage struct {
	name   StageName
	policy Policy
	fn     func(r *run)
}

// run is the working state of one evaluation. session and artifacts are
// private copies; the caller's values are never reachable from here.
type run struct {
	original  stoplight.Stoplight
	session   governance.Session
	artifacts []governance.Artifact
	action    governance.Action
	role      actor.Role

	validated bool // documents were checked while decoding

	errs  []governance.EvalError
	notes []string
}

func (e *Evaluator) schemaStage(r *run) {
	if !r.validated {
		r.errs = append(r.errs, schema.ValidateSession(r.session)...)
		r.errs = append(r.errs, schema.ValidateArtifacts(r.artifacts)...)
	}
	r.errs = append(r.errs, schema.ValidateAction(r.action)...)
	r.errs = append(r.errs, schema.ValidateRole(r.role)...)
}

func (e *Evaluator) authorityStage(r *run) {
	r.errs = append(r.errs, gate.Authority(r.role, r.action)...)
}

func (e *Evaluator) recoveryStage(r *run) {
	if d := gate.Recovery(r.session, r.artifacts, r.action); !d.Allowed {
		r.errs = append(r.errs, d.Errors...)
	}
}

func (e *Evaluator) bindStage(r *run) {
	r.session.Stoplight = BindStoplight(r.session, r.artifacts)
}

func (e *Evaluator) transitionStage(r *run) {
	r.errs = append(r.errs, policy.Check(r.session, r.artifacts, r.action)...)
}

func (e *Evaluator) applyStage(r *run) {
	res := update.Apply(r.session, r.artifacts, r.action, update.UpdateContext{
		Role:  r.role,
		Now:   e.config.Clock(),
		NewID: e.config.NewID,
	})
	r.session = res.NewSession
	r.artifacts = res.NewArtifacts
	r.notes = append(r.notes, res.Notes...)
}

func (e *Evaluator) rebindStage(r *run) {
	r.session.Stoplight = BindStoplight(r.session, r.artifacts)
	if r.session.Stoplight != r.original {
		r.notes = append(r.notes, fmt.Sprintf("Session stoplight rebound from %s to %s.", r.original, r.session.Stoplight))
	}
}

// #endregion stages

// #region bind
// BindStoplight returns the worst stoplight among the core artifacts plus,
// while recovery is in progress, the linked recovery artifact. A compiling
// session with nothing to aggregate is YELLOW.
func BindStoplight(session governance.Session, artifacts []governance.Artifact) stoplight.Stoplight {
	var lights []stoplight.Stoplight
	for _, a := range artifacts {
		if a.Kind.IsCore() {
			lights = append(lights, a.Stoplight)
		}
	}

	if session.State == governance.StateRecoveryInProgress && session.ActiveRecoveryID != "" {
		if i := governance.FindArtifact(artifacts, session.ActiveRecoveryID); i >= 0 {
			lights = append(lights, artifacts[i].Stoplight)
		}
	}

	if session.State == governance.StateInCompilation && len(lights) == 0 {
		return stoplight.Yellow
	}
	return stoplight.Worst(lights...)
}

// #endregion bind

package schema

import (
	"fmt"
	"strings"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
	"github.com/bridgeos/govern/internal/stoplight"
)

// #region collector
// collector accumulates SCHEMA_INVALID errors. Validation never stops early.
type collector struct {
	errs []governance.EvalError
}

func (c *collector) add(path, format string, args ...any) {
	c.errs = append(c.errs, governance.EvalError{
		Code:    governance.CodeSchemaInvalid,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	})
}

func (c *collector) required(path, value string) {
	if strings.TrimSpace(value) == "" {
		c.add(path, "%s is required", path)
	}
}

func (c *collector) notes(path string, notes []string) {
	if len(notes) < 1 {
		c.add(path, "%s needs at least one reserved-judgment note", path)
		return
	}
	for i, n := range notes {
		if strings.TrimSpace(n) == "" {
			c.add(fmt.Sprintf("%s[%d]", path, i), "reserved-judgment note must not be blank")
		}
	}
}

func (c *collector) entries(path string, list []string) {
	for i, v := range list {
		if strings.TrimSpace(v) == "" {
			c.add(fmt.Sprintf("%s[%d]", path, i), "entry must not be blank")
		}
	}
}

func (c *collector) light(path string, s stoplight.Stoplight) {
	if !s.Valid() {
		c.add(path, "%q is not a stoplight value", s)
	}
}

// #endregion collector

// #region session
// ValidateSession checks every field of s and returns all violations.
func ValidateSession(s governance.Session) []governance.EvalError {
	var c collector

	c.required("session.id", s.ID)
	if s.CreatedAt.IsZero() {
		c.add("session.created_at", "session.created_at is required")
	}
	if s.UpdatedAt.IsZero() {
		c.add("session.updated_at", "session.updated_at is required")
	}
	if !s.State.Valid() {
		c.add("session.state", "%q is not a session state", s.State)
	}
	c.light("session.stoplight", s.Stoplight)
	c.required("session.title", s.Title)
	c.required("session.intent", s.Intent)
	c.notes("session.reserved_judgment", s.ReservedJudgment)

	// Signer fields present iff signed
	so := s.Signoff
	if so.Signed {
		c.required("session.human_signoff.signer_name", so.SignerName)
		c.required("session.human_signoff.signer_role", so.SignerRole)
		if so.SignedAt == nil {
			c.add("session.human_signoff.signed_at", "signed signoff requires signed_at")
		}
	} else if so.SignerName != "" || so.SignerRole != "" || so.SignedAt != nil {
		c.add("session.human_signoff", "signer fields must be empty while unsigned")
	}

	return c.errs
}

// #endregion session

// #region artifacts
// ValidateArtifacts checks every artifact and returns all violations.
func ValidateArtifacts(artifacts []governance.Artifact) []governance.EvalError {
	var c collector
	for i, a := range artifacts {
		validateArtifact(&c, fmt.Sprintf("artifacts[%d]", i), a)
	}
	return c.errs
}

func validateArtifact(c *collector, path string, a governance.Artifact) {
	c.required(path+".id", a.ID)
	kindOK := a.Kind.Valid()
	if !kindOK {
		c.add(path+".kind", "%q is not an artifact kind", a.Kind)
	}
	if !a.Status.Valid() {
		c.add(path+".status", "%q is not an artifact status", a.Status)
	}
	c.light(path+".stoplight", a.Stoplight)
	c.notes(path+".reserved_judgment", a.ReservedJudgment)

	if !a.Approval.ApprovedByHuman && (a.Approval.ApprovedBy != "" || a.Approval.ApprovedAt != nil) {
		c.add(path+".approval", "approver fields are only allowed when approved by a human")
	}

	pp := path + ".payload"
	if a.Payload == nil {
		if kindOK {
			c.add(pp, "%s payload is required", a.Kind)
		}
		return
	}
	if kindOK && a.Payload.Kind() != a.Kind {
		c.add(pp, "payload is %s but artifact kind is %s", a.Payload.Kind(), a.Kind)
		return
	}

	switch p := a.Payload.(type) {
	case governance.IngestionPayload:
		if !p.Source.Valid() {
			c.add(pp+".source", "%q is not an ingestion source", p.Source)
		}
		c.required(pp+".raw_input", p.RawInput)
		c.required(pp+".normalized_summary", p.NormalizedSummary)
		c.light(pp+".stoplight", p.Stoplight)
		c.notes(pp+".reserved_judgment", p.ReservedJudgment)
	case governance.SemanticPayload:
		if len(p.Terms) < 1 {
			c.add(pp+".terms", "at least one term is required")
		}
		for i, t := range p.Terms {
			c.required(fmt.Sprintf("%s.terms[%d].term", pp, i), t.Term)
			c.required(fmt.Sprintf("%s.terms[%d].definition", pp, i), t.Definition)
		}
		c.entries(pp+".ambiguities", p.Ambiguities)
		c.entries(pp+".assumptions", p.Assumptions)
		c.light(pp+".stoplight", p.Stoplight)
		c.notes(pp+".reserved_judgment", p.ReservedJudgment)
	case governance.ExecutionPayload:
		if len(p.PlanSteps) < 1 {
			c.add(pp+".plan_steps", "at least one plan step is required")
		}
		for i, st := range p.PlanSteps {
			sp := fmt.Sprintf("%s.plan_steps[%d]", pp, i)
			c.required(sp+".step", st.Step)
			// empty owner defaults to HUMAN
			if st.Owner != "" && !st.Owner.Valid() {
				c.add(sp+".owner", "%q is not a role", st.Owner)
			}
		}
		c.entries(pp+".risks", p.Risks)
		c.light(pp+".stoplight", p.Stoplight)
		c.notes(pp+".reserved_judgment", p.ReservedJudgment)
	case governance.GovernancePayload:
		c.required(pp+".policy_version", p.PolicyVersion)
		c.required(pp+".rules_summary", p.RulesSummary)
		if len(p.TestVectors) < 1 {
			c.add(pp+".test_vectors", "at least one test vector is required")
		}
		for i, tv := range p.TestVectors {
			tp := fmt.Sprintf("%s.test_vectors[%d]", pp, i)
			c.required(tp+".name", tv.Name)
			if tv.Given == nil {
				c.add(tp+".given", "given is required")
			}
			if tv.Then == nil {
				c.add(tp+".then", "then is required")
			}
		}
		c.light(pp+".stoplight", p.Stoplight)
		c.notes(pp+".reserved_judgment", p.ReservedJudgment)
	case governance.SeedSweepPayload:
		validatePhaseState(c, pp+".state", p.State)
	}
}

// validatePhaseState checks structure only. Phase content is gated by the
// recovery machine, not here.
func validatePhaseState(c *collector, path string, s seedsweep.PhaseState) {
	if !s.Phase.Valid() {
		c.add(path+".phase", "%q is not a recovery phase", s.Phase)
	}
	c.light(path+".stoplight", s.Stoplight)
	if !s.Trigger.Valid() {
		c.add(path+".trigger", "%q is not a recovery trigger", s.Trigger)
	}
	for i, d := range s.Sweep.Debris {
		dp := fmt.Sprintf("%s.sweep.debris[%d]", path, i)
		c.required(dp+".item", d.Item)
		if !d.Action.Valid() {
			c.add(dp+".action", "%q is not a debris action", d.Action)
		}
	}
	for _, p := range seedsweep.Order {
		conf, ok := s.Confirmation(p)
		if !ok {
			continue
		}
		lp := path + "." + strings.ToLower(string(p))
		c.notes(lp+".reserved_judgment", s.ReservedJudgment(p))
		if conf.ConfirmedByHuman && conf.ConfirmedAt == nil {
			c.add(lp+".confirmed_at", "confirmed phase requires confirmed_at")
		}
	}
}

// #endregion artifacts

// #region action
// ValidateAction checks that a names a known action and carries the fields it needs.
func ValidateAction(a governance.Action) []governance.EvalError {
	var c collector
	if !a.Type.Valid() {
		c.add("action.type", "%q is not an action type", a.Type)
		return c.errs
	}

	switch a.Type {
	case governance.ActionTriggerRecovery:
		c.required("action.reason", a.Reason)
	case governance.ActionSignoff:
		c.required("action.signer_name", a.SignerName)
	case governance.ActionSetStatus:
		c.required("action.artifact_id", a.ArtifactID)
		if !a.Status.Valid() {
			c.add("action.status", "%q is not an artifact status", a.Status)
		}
	case governance.ActionSetStoplight:
		c.required("action.artifact_id", a.ArtifactID)
		c.light("action.stoplight", a.Stoplight)
	case governance.ActionStartCompilation, governance.ActionResumeRecovery,
		governance.ActionRequestFinalize, governance.ActionFinalize:
	}
	return c.errs
}

// ValidateRole checks that r is a known role.
func ValidateRole(r actor.Role) []governance.EvalError {
	if r.Valid() {
		return nil
	}
	var c collector
	c.add("role", "%q is not a role", r)
	return c.errs
}

// #endregion action

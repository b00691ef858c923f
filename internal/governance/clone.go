package governance

// #region clone
// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	out := s
	out.ReservedJudgment = cloneStrings(s.ReservedJudgment)
	if s.Signoff.SignedAt != nil {
		at := *s.Signoff.SignedAt
		out.Signoff.SignedAt = &at
	}
	return out
}

// Clone returns a deep copy of a.
func (a Artifact) Clone() Artifact {
	out := a
	out.ReservedJudgment = cloneStrings(a.ReservedJudgment)
	if a.Approval.ApprovedAt != nil {
		at := *a.Approval.ApprovedAt
		out.Approval.ApprovedAt = &at
	}
	if a.Payload != nil {
		out.Payload = a.Payload.clonePayload()
	}
	return out
}

// CloneArtifacts deep-copies every artifact into a new slice.
func CloneArtifacts(in []Artifact) []Artifact {
	if in == nil {
		return nil
	}
	out := make([]Artifact, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

func (p IngestionPayload) clonePayload() Payload {
	p.ReservedJudgment = cloneStrings(p.ReservedJudgment)
	return p
}

func (p SemanticPayload) clonePayload() Payload {
	if p.Terms != nil {
		p.Terms = append([]Term{}, p.Terms...)
	}
	p.Ambiguities = cloneStrings(p.Ambiguities)
	p.Assumptions = cloneStrings(p.Assumptions)
	p.ReservedJudgment = cloneStrings(p.ReservedJudgment)
	return p
}

func (p ExecutionPayload) clonePayload() Payload {
	if p.PlanSteps != nil {
		p.PlanSteps = append([]PlanStep{}, p.PlanSteps...)
	}
	p.Risks = cloneStrings(p.Risks)
	p.ReservedJudgment = cloneStrings(p.ReservedJudgment)
	return p
}

func (p GovernancePayload) clonePayload() Payload {
	if p.TestVectors != nil {
		vectors := make([]TestVector, len(p.TestVectors))
		for i, tv := range p.TestVectors {
			vectors[i] = TestVector{
				Name:  tv.Name,
				Given: cloneMap(tv.Given),
				Then:  cloneMap(tv.Then),
			}
		}
		p.TestVectors = vectors
	}
	p.ReservedJudgment = cloneStrings(p.ReservedJudgment)
	return p
}

func (p SeedSweepPayload) clonePayload() Payload {
	p.State = p.State.Clone()
	return p
}

// #endregion clone

// #region helpers
func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

// cloneMap copies JSON-shaped values (maps, slices, scalars).
func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

// FindArtifact returns the index of the artifact with id, or -1.
func FindArtifact(artifacts []Artifact, id string) int {
	for i, a := range artifacts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// ByKind groups artifacts by kind, preserving order.
func ByKind(artifacts []Artifact) map[Kind][]Artifact {
	out := make(map[Kind][]Artifact)
	for _, a := range artifacts {
		out[a.Kind] = append(out[a.Kind], a)
	}
	return out
}

// ActiveRecovery returns the first SEEDSWEEP artifact that is not REJECTED.
func ActiveRecovery(artifacts []Artifact) (Artifact, bool) {
	for _, a := range artifacts {
		if a.Kind == KindSeedSweep && a.Status != StatusRejected {
			return a, true
		}
	}
	return Artifact{}, false
}

// #endregion helpers

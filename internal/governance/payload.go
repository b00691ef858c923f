package governance

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/seedsweep"
	"github.com/bridgeos/govern/internal/stoplight"
)

// #region payload
// Payload is the kind-specific body of an artifact. The set of
// implementations is closed: IngestionPayload, SemanticPayload,
// ExecutionPayload, GovernancePayload and SeedSweepPayload.
type Payload interface {
	Kind() Kind
	clonePayload() Payload
}

// IngestionSource names where raw input came from.
type IngestionSource string

const (
	SourceChat  IngestionSource = "CHAT"
	SourceNote  IngestionSource = "NOTE"
	SourceDoc   IngestionSource = "DOC"
	SourceOther IngestionSource = "OTHER"
)

// Valid reports whether s is a known source.
func (s IngestionSource) Valid() bool {
	switch s {
	case SourceChat, SourceNote, SourceDoc, SourceOther:
		return true
	}
	return false
}

type IngestionPayload struct {
	Source            IngestionSource     `json:"source"`
	RawInput          string              `json:"raw_input"`
	NormalizedSummary string              `json:"normalized_summary"`
	Stoplight         stoplight.Stoplight `json:"stoplight"`
	ReservedJudgment  []string            `json:"reserved_judgment"`
}

type Term struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

type SemanticPayload struct {
	Terms            []Term              `json:"terms"`
	Ambiguities      []string            `json:"ambiguities,omitempty"`
	Assumptions      []string            `json:"assumptions,omitempty"`
	Stoplight        stoplight.Stoplight `json:"stoplight"`
	ReservedJudgment []string            `json:"reserved_judgment"`
}

type PlanStep struct {
	Step       string     `json:"step"`
	Reversible bool       `json:"reversible"`
	Owner      actor.Role `json:"owner"`
}

// UnmarshalJSON defaults an empty owner to HUMAN.
func (p *PlanStep) UnmarshalJSON(data []byte) error {
	type plain PlanStep
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Owner == "" {
		v.Owner = actor.Human
	}
	*p = PlanStep(v)
	return nil
}

type ExecutionPayload struct {
	PlanSteps        []PlanStep          `json:"plan_steps"`
	Risks            []string            `json:"risks,omitempty"`
	Stoplight        stoplight.Stoplight `json:"stoplight"`
	ReservedJudgment []string            `json:"reserved_judgment"`
}

// TestVector is a named given/then pair documenting expected policy behavior.
type TestVector struct {
	Name  string         `json:"name"`
	Given map[string]any `json:"given"`
	Then  map[string]any `json:"then"`
}

type GovernancePayload struct {
	PolicyVersion    string              `json:"policy_version"`
	RulesSummary     string              `json:"rules_summary"`
	TestVectors      []TestVector        `json:"test_vectors"`
	Stoplight        stoplight.Stoplight `json:"stoplight"`
	ReservedJudgment []string            `json:"reserved_judgment"`
}

// SeedSweepPayload packages a recovery procedure and its rendered summary.
type SeedSweepPayload struct {
	State   seedsweep.PhaseState `json:"state"`
	Summary string               `json:"summary"`
}

func (IngestionPayload) Kind() Kind  { return KindIngestion }
func (SemanticPayload) Kind() Kind   { return KindSemantic }
func (ExecutionPayload) Kind() Kind  { return KindExecution }
func (GovernancePayload) Kind() Kind { return KindGovernance }
func (SeedSweepPayload) Kind() Kind  { return KindSeedSweep }

// #endregion payload

// #region decode
// UnmarshalJSON decodes the payload into the concrete type named by "kind".
// An unknown kind leaves Payload nil so schema validation can report it.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	type plain Artifact
	var raw struct {
		plain
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Artifact(raw.plain)
	p, err := DecodePayload(a.Kind, raw.Payload)
	if err != nil {
		return err
	}
	a.Payload = p
	return nil
}

// DecodePayload decodes raw into the payload type for kind.
func DecodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var (
		p   Payload
		err error
	)
	switch kind {
	case KindIngestion:
		var v IngestionPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case KindSemantic:
		var v SemanticPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case KindExecution:
		var v ExecutionPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case KindGovernance:
		var v GovernancePayload
		err = json.Unmarshal(raw, &v)
		p = v
	case KindSeedSweep:
		var v SeedSweepPayload
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return p, nil
}

// #endregion decode

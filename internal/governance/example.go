package governance

import (
	"time"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/stoplight"
)

// ExampleSession returns a schema-valid DRAFT session.
func ExampleSession(now time.Time) Session {
	return Session{
		ID:               "session_001",
		CreatedAt:        now,
		UpdatedAt:        now,
		State:            StateDraft,
		Stoplight:        stoplight.Yellow,
		Title:            "Example: governance happy path and failure cases",
		Intent:           "Show deterministic governance with reserved judgment and human gates.",
		ReservedJudgment: []string{"A human remains the final arbiter of approval and finalization."},
	}
}

// ExampleArtifacts returns one DRAFT artifact of each core kind.
func ExampleArtifacts() []Artifact {
	return []Artifact{
		{
			ID:               "a_ingestion",
			Kind:             KindIngestion,
			Status:           StatusDraft,
			Stoplight:        stoplight.Yellow,
			ReservedJudgment: []string{"Keep uncertainty from the raw input visible."},
			Payload: IngestionPayload{
				Source:            SourceChat,
				RawInput:          "Raw user text or transcript",
				NormalizedSummary: "Normalized summary suitable for compilers.",
				Stoplight:         stoplight.Yellow,
				ReservedJudgment:  []string{"What was omitted from the raw input?"},
			},
		},
		{
			ID:               "a_semantic",
			Kind:             KindSemantic,
			Status:           StatusDraft,
			Stoplight:        stoplight.Yellow,
			ReservedJudgment: []string{"Protect meanings from premature closure."},
			Payload: SemanticPayload{
				Terms: []Term{
					{Term: "reserved judgment", Definition: "Points deliberately left to a human at every layer."},
				},
				Ambiguities:      []string{"Which artifact kinds count as core in later versions?"},
				Assumptions:      []string{"A human is the only signer for finalization."},
				Stoplight:        stoplight.Yellow,
				ReservedJudgment: []string{"Which definitions must stay provisional?"},
			},
		},
		{
			ID:               "a_execution",
			Kind:             KindExecution,
			Status:           StatusDraft,
			Stoplight:        stoplight.Yellow,
			ReservedJudgment: []string{"Keep every step reversible and overseen."},
			Payload: ExecutionPayload{
				PlanSteps: []PlanStep{
					{Step: "Approve artifacts as HUMAN", Reversible: true, Owner: actor.Human},
					{Step: "Request finalize, sign off, finalize", Reversible: true, Owner: actor.Human},
				},
				Risks:            []string{"ASSISTANT tries to bypass the approval gate."},
				Stoplight:        stoplight.Yellow,
				ReservedJudgment: []string{"Which step needs extra caution?"},
			},
		},
		{
			ID:               "a_governance",
			Kind:             KindGovernance,
			Status:           StatusDraft,
			Stoplight:        stoplight.Yellow,
			ReservedJudgment: []string{"Leave room for future policy changes."},
			Payload: GovernancePayload{
				PolicyVersion: "v1",
				RulesSummary:  "Human-only approve, reject, signoff and finalize; stoplight binds to worst.",
				TestVectors: []TestVector{
					{
						Name:  "assistant_cannot_approve",
						Given: map[string]any{"role": "ASSISTANT", "action": "ARTIFACT_SET_STATUS:APPROVED"},
						Then:  map[string]any{"allowed": false},
					},
					{
						Name:  "finalize_requires_signoff",
						Given: map[string]any{"signed": true},
						Then:  map[string]any{"allowed": true},
					},
				},
				Stoplight:        stoplight.Yellow,
				ReservedJudgment: []string{"Which policy edge case do we expect next?"},
			},
		},
	}
}

package governance

import (
	"time"

	"github.com/bridgeos/govern/internal/stoplight"
)

// #region session
// SessionState is the lifecycle position of a session.
type SessionState string

const (
	StateDraft              SessionState = "DRAFT"
	StateInCompilation      SessionState = "IN_COMPILATION"
	StateRecoveryInProgress SessionState = "RECOVERY_IN_PROGRESS"
	StateAwaitingSignoff    SessionState = "AWAITING_SIGNOFF"
	StateFinalized          SessionState = "FINALIZED"
)

// Valid reports whether s is a known session state.
func (s SessionState) Valid() bool {
	switch s {
	case StateDraft, StateInCompilation, StateRecoveryInProgress, StateAwaitingSignoff, StateFinalized:
		return true
	}
	return false
}

// Signoff is the human signoff record. Signer fields are set iff Signed.
type Signoff struct {
	Signed     bool       `json:"signed"`
	SignerName string     `json:"signer_name,omitempty"`
	SignerRole string     `json:"signer_role,omitempty"`
	SignedAt   *time.Time `json:"signed_at,omitempty"`
}

// Session is one governed unit of work. Evaluation never mutates a Session;
// it returns new snapshots.
type Session struct {
	ID               string              `json:"id"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	State            SessionState        `json:"state"`
	Stoplight        stoplight.Stoplight `json:"stoplight"`
	Title            string              `json:"title"`
	Intent           string              `json:"intent"`
	ReservedJudgment []string            `json:"reserved_judgment"`
	Signoff          Signoff             `json:"human_signoff"`
	ActiveRecoveryID string              `json:"active_recovery_id,omitempty"`
}

// #endregion session

// #region artifact
// Kind names the compiler that produced an artifact.
type Kind string

const (
	KindIngestion  Kind = "INGESTION"
	KindSemantic   Kind = "SEMANTIC"
	KindExecution  Kind = "EXECUTION"
	KindGovernance Kind = "GOVERNANCE"
	KindSeedSweep  Kind = "SEEDSWEEP"
)

// CoreKinds must each appear exactly once before compilation may start.
var CoreKinds = []Kind{KindIngestion, KindSemantic, KindExecution, KindGovernance}

// AllKinds lists every artifact kind, core kinds first.
var AllKinds = []Kind{KindIngestion, KindSemantic, KindExecution, KindGovernance, KindSeedSweep}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindIngestion, KindSemantic, KindExecution, KindGovernance, KindSeedSweep:
		return true
	}
	return false
}

// IsCore reports whether k is one of the four core kinds.
func (k Kind) IsCore() bool {
	switch k {
	case KindIngestion, KindSemantic, KindExecution, KindGovernance:
		return true
	case KindSeedSweep:
		return false
	}
	return false
}

// Status is the review lifecycle of an artifact.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusInReview Status = "IN_REVIEW"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Approval records who approved an artifact. Approver fields are set only
// when ApprovedByHuman is true.
type Approval struct {
	ApprovedByHuman bool       `json:"approved_by_human"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
}

// Artifact is a compiler output under review. Payload's concrete type must
// match Kind.
type Artifact struct {
	ID               string              `json:"id"`
	Kind             Kind                `json:"kind"`
	Status           Status              `json:"status"`
	Stoplight        stoplight.Stoplight `json:"stoplight"`
	ReservedJudgment []string            `json:"reserved_judgment"`
	Approval         Approval            `json:"approval"`
	Payload          Payload             `json:"payload"`
}

// #endregion artifact

// #region action
// ActionType discriminates the requested transition.
type ActionType string

const (
	ActionStartCompilation ActionType = "SESSION_START_COMPILATION"
	ActionTriggerRecovery  ActionType = "SESSION_TRIGGER_SEEDSWEEP"
	ActionResumeRecovery   ActionType = "SESSION_RESUME_AFTER_SEEDSWEEP"
	ActionRequestFinalize  ActionType = "SESSION_REQUEST_FINALIZE"
	ActionSignoff          ActionType = "SESSION_SIGNOFF"
	ActionFinalize         ActionType = "SESSION_FINALIZE"
	ActionSetStatus        ActionType = "ARTIFACT_SET_STATUS"
	ActionSetStoplight     ActionType = "ARTIFACT_SET_STOPLIGHT"
)

// ActionTypes lists every action in lifecycle order.
var ActionTypes = []ActionType{
	ActionStartCompilation, ActionTriggerRecovery, ActionResumeRecovery, ActionRequestFinalize,
	ActionSignoff, ActionFinalize, ActionSetStatus, ActionSetStoplight,
}

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	for _, a := range ActionTypes {
		if a == t {
			return true
		}
	}
	return false
}

// Action is one requested transition. Only the fields relevant to Type are read:
// Reason for TRIGGER_SEEDSWEEP, SignerName/SignerRole for SIGNOFF,
// ArtifactID with Status or Stoplight for the artifact actions.
type Action struct {
	Type       ActionType          `json:"type"`
	Reason     string              `json:"reason,omitempty"`
	SignerName string              `json:"signer_name,omitempty"`
	SignerRole string              `json:"signer_role,omitempty"`
	ArtifactID string              `json:"artifact_id,omitempty"`
	Status     Status              `json:"status,omitempty"`
	Stoplight  stoplight.Stoplight `json:"stoplight,omitempty"`
}

// String renders a compact label such as ARTIFACT_SET_STATUS(a_ingestion=APPROVED).
func (a Action) String() string {
	switch a.Type {
	case ActionSetStatus:
		return string(a.Type) + "(" + a.ArtifactID + "=" + string(a.Status) + ")"
	case ActionSetStoplight:
		return string(a.Type) + "(" + a.ArtifactID + "=" + string(a.Stoplight) + ")"
	case ActionTriggerRecovery:
		return string(a.Type) + "(" + a.Reason + ")"
	case ActionSignoff:
		return string(a.Type) + "(" + a.SignerName + ")"
	}
	return string(a.Type)
}

// #endregion action

// #region result
// EvalError is one reason an evaluation was denied.
type EvalError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Result is the outcome of one evaluation. On denial NewSession and
// NewArtifacts hold copies of the inputs (risk-bound when denial happened at
// the transition stage).
type Result struct {
	Allowed      bool        `json:"allowed"`
	Errors       []EvalError `json:"errors"`
	NewSession   Session     `json:"new_session"`
	NewArtifacts []Artifact  `json:"new_artifacts"`
	SideEffects  []string    `json:"side_effect_notes"`
}

// Codes returns the error codes in order.
func (r Result) Codes() []Code {
	codes := make([]Code, len(r.Errors))
	for i, e := range r.Errors {
		codes[i] = e.Code
	}
	return codes
}

// HasCode reports whether any error carries code c.
func (r Result) HasCode(c Code) bool {
	for _, e := range r.Errors {
		if e.Code == c {
			return true
		}
	}
	return false
}

// #endregion result

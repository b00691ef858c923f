package seedsweep

import (
	"time"

	"github.com/bridgeos/govern/internal/stoplight"
)

// #region phase
// Phase is a step of the recovery procedure. COMPLETE is terminal.
type Phase string

const (
	PhaseStop      Phase = "STOP"
	PhaseWitness   Phase = "WITNESS"
	PhaseSweep     Phase = "SWEEP"
	PhaseSeed      Phase = "SEED"
	PhaseStabilize Phase = "STABILIZE"
	PhaseComplete  Phase = "COMPLETE"
)

// Order is the forward order of phases.
var Order = []Phase{PhaseStop, PhaseWitness, PhaseSweep, PhaseSeed, PhaseStabilize, PhaseComplete}

// index returns the position of p in Order, or -1 when p is unknown.
func (p Phase) index() int {
	for i, o := range Order {
		if o == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool { return p.index() >= 0 }

// Reached reports whether p is at or beyond target in forward order.
func (p Phase) Reached(target Phase) bool {
	return p.index() >= target.index() && target.index() >= 0
}

// #endregion phase

// #region trigger
// Trigger records why a recovery procedure was started.
type Trigger string

const (
	TriggerHumanRequest      Trigger = "HUMAN_REQUEST"
	TriggerConfusionDetected Trigger = "CONFUSION_DETECTED"
	TriggerStoplightRed      Trigger = "STOPLIGHT_RED"
	TriggerRecursionLoop     Trigger = "RECURSION_LOOP"
	TriggerPreflight         Trigger = "PRE_SESSION_PREFLIGHT"
)

// Valid reports whether t is a known trigger.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerHumanRequest, TriggerConfusionDetected, TriggerStoplightRed, TriggerRecursionLoop, TriggerPreflight:
		return true
	}
	return false
}

// #endregion trigger

// #region debris
// DebrisAction is the triage decision for one swept item.
type DebrisAction string

const (
	DebrisRemove DebrisAction = "REMOVE"
	DebrisPark   DebrisAction = "PARK"
	DebrisKeep   DebrisAction = "KEEP"
)

// Valid reports whether a is a known debris action.
func (a DebrisAction) Valid() bool {
	return a == DebrisRemove || a == DebrisPark || a == DebrisKeep
}

// Debris is one item surfaced during SWEEP.
type Debris struct {
	Item   string       `json:"item"`
	Action DebrisAction `json:"action"`
}

// #endregion debris

// #region phase-records
// Confirmation is the human sign-off carried by every phase.
// ConfirmedByHuman implies ConfirmedAt is set.
type Confirmation struct {
	ConfirmedByHuman bool       `json:"confirmed_by_human"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
}

type StopPhase struct {
	PauseAcknowledged bool     `json:"pause_acknowledged"`
	Objective         string   `json:"objective"`
	ReservedJudgment  []string `json:"reserved_judgment"`
	Confirmation
}

type WitnessPhase struct {
	Observations     []string `json:"observations"`
	Contradictions   []string `json:"contradictions"`
	ReservedJudgment []string `json:"reserved_judgment"`
	Confirmation
}

type SweepPhase struct {
	Debris           []Debris `json:"debris"`
	ReservedJudgment []string `json:"reserved_judgment"`
	Confirmation
}

type SeedPhase struct {
	Candidates       []string `json:"candidates"`
	Selected         string   `json:"selected"`
	SuccessCondition string   `json:"success_condition"`
	ReservedJudgment []string `json:"reserved_judgment"`
	Confirmation
}

type StabilizePhase struct {
	NextAction       string     `json:"next_action"`
	Reversible       bool       `json:"reversible"`
	WatchFor         []string   `json:"watch_for"`
	RecheckAt        *time.Time `json:"recheck_at,omitempty"`
	ReservedJudgment []string   `json:"reserved_judgment"`
	Confirmation
}

// #endregion phase-records

// #region phase-state
// PhaseState is the full record of one recovery procedure.
type PhaseState struct {
	Phase       Phase               `json:"phase"`
	Stoplight   stoplight.Stoplight `json:"stoplight"`
	Trigger     Trigger             `json:"trigger"`
	Reason      string              `json:"reason,omitempty"`
	Stop        StopPhase           `json:"stop"`
	Witness     WitnessPhase        `json:"witness"`
	Sweep       SweepPhase          `json:"sweep"`
	Seed        SeedPhase           `json:"seed"`
	Stabilize   StabilizePhase      `json:"stabilize"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// ReservedJudgment returns the note list of a non-terminal phase.
func (s PhaseState) ReservedJudgment(p Phase) []string {
	switch p {
	case PhaseStop:
		return s.Stop.ReservedJudgment
	case PhaseWitness:
		return s.Witness.ReservedJudgment
	case PhaseSweep:
		return s.Sweep.ReservedJudgment
	case PhaseSeed:
		return s.Seed.ReservedJudgment
	case PhaseStabilize:
		return s.Stabilize.ReservedJudgment
	case PhaseComplete:
		return nil
	}
	return nil
}

// Confirmation returns the confirmation record of a non-terminal phase.
func (s PhaseState) Confirmation(p Phase) (Confirmation, bool) {
	switch p {
	case PhaseStop:
		return s.Stop.Confirmation, true
	case PhaseWitness:
		return s.Witness.Confirmation, true
	case PhaseSweep:
		return s.Sweep.Confirmation, true
	case PhaseSeed:
		return s.Seed.Confirmation, true
	case PhaseStabilize:
		return s.Stabilize.Confirmation, true
	case PhaseComplete:
		return Confirmation{}, false
	}
	return Confirmation{}, false
}

// #endregion phase-state

// #region gate-error
// GateError is a phase-gate violation tagged with the phase it belongs to.
type GateError struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

func (e GateError) Error() string {
	return string(e.Phase) + ": " + e.Message
}

// #endregion gate-error

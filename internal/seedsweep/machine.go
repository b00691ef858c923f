package seedsweep

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/stoplight"
)

var (
	// ErrHumanRequired is returned when a non-human role tries to confirm a phase.
	ErrHumanRequired = errors.New("seedsweep: phase confirmation requires a human")
	// ErrPhaseBlocked is returned by Advance when the current phase has unmet gates.
	ErrPhaseBlocked = errors.New("seedsweep: current phase has unmet gates")
	// ErrUnknownPhase is returned when a phase name does not name a confirmable phase.
	ErrUnknownPhase = errors.New("seedsweep: unknown phase")
)

// #region constructors
// NewPhaseState returns a fresh procedure at STOP with default holding notes.
func NewPhaseState(trigger Trigger, reason string) PhaseState {
	return PhaseState{
		Phase:     PhaseStop,
		Stoplight: stoplight.Yellow,
		Trigger:   trigger,
		Reason:    reason,
		Stop: StopPhase{
			ReservedJudgment: []string{"Human confirms the work has actually paused."},
		},
		Witness: WitnessPhase{
			Observations:     []string{},
			Contradictions:   []string{},
			ReservedJudgment: []string{"Human separates what is observed from what is assumed."},
		},
		Sweep: SweepPhase{
			Debris:           []Debris{},
			ReservedJudgment: []string{"Human decides which items are removed and which are parked."},
		},
		Seed: SeedPhase{
			Candidates:       []string{},
			ReservedJudgment: []string{"Human confirms the selected seed is the right next step."},
		},
		Stabilize: StabilizePhase{
			Reversible:       true,
			WatchFor:         []string{},
			ReservedJudgment: []string{"Human confirms stability and what to watch for."},
		},
	}
}

// Reset discards all progress and restarts the procedure at STOP.
func Reset(trigger Trigger, reason string) PhaseState {
	return NewPhaseState(trigger, reason)
}

// #endregion constructors

// #region next-phase
// NextPhase returns the phase after current. COMPLETE maps to itself.
func NextPhase(current Phase) Phase {
	switch current {
	case PhaseStop:
		return PhaseWitness
	case PhaseWitness:
		return PhaseSweep
	case PhaseSweep:
		return PhaseSeed
	case PhaseSeed:
		return PhaseStabilize
	case PhaseStabilize:
		return PhaseComplete
	case PhaseComplete:
		return PhaseComplete
	}
	return current
}

// #endregion next-phase

// #region gates
type phaseSuite struct {
	phase Phase
	check func(s PhaseState) []string
}

// phaseSuites run in order; a suite is active once the current phase has
// reached its phase. STOP is always active.
var phaseSuites = []phaseSuite{
	{PhaseStop, checkStop},
	{PhaseWitness, checkWitness},
	{PhaseSweep, checkSweep},
	{PhaseSeed, checkSeed},
	{PhaseStabilize, checkStabilize},
}

func (ps phaseSuite) active(current Phase) bool {
	return ps.phase == PhaseStop || current.Reached(ps.phase)
}

func checkStop(s PhaseState) []string {
	var msgs []string
	if !s.Stop.PauseAcknowledged {
		msgs = append(msgs, "STOP requires pause_acknowledged = true")
	}
	if strings.TrimSpace(s.Stop.Objective) == "" {
		msgs = append(msgs, "STOP requires an objective")
	}
	if !HasReservedJudgment(s.Stop.ReservedJudgment) {
		msgs = append(msgs, "STOP requires at least one reserved-judgment note")
	}
	return msgs
}

func checkWitness(s PhaseState) []string {
	var msgs []string
	if len(s.Witness.Observations) < 1 {
		msgs = append(msgs, "WITNESS requires at least 1 observation")
	}
	if !HasReservedJudgment(s.Witness.ReservedJudgment) {
		msgs = append(msgs, "WITNESS requires at least one reserved-judgment note")
	}
	return msgs
}

func checkSweep(s PhaseState) []string {
	var msgs []string
	if len(s.Sweep.Debris) < 1 {
		msgs = append(msgs, "SWEEP requires at least 1 debris item")
	}
	if !HasReservedJudgment(s.Sweep.ReservedJudgment) {
		msgs = append(msgs, "SWEEP requires at least one reserved-judgment note")
	}
	return msgs
}

func checkSeed(s PhaseState) []string {
	var msgs []string
	if len(s.Seed.Candidates) < 1 {
		msgs = append(msgs, "SEED requires at least 1 candidate seed")
	}
	if strings.TrimSpace(s.Seed.Selected) == "" {
		msgs = append(msgs, "SEED requires a selected seed")
	}
	if strings.TrimSpace(s.Seed.SuccessCondition) == "" {
		msgs = append(msgs, "SEED requires a success_condition")
	}
	if !HasReservedJudgment(s.Seed.ReservedJudgment) {
		msgs = append(msgs, "SEED requires at least one reserved-judgment note")
	}
	return msgs
}

func checkStabilize(s PhaseState) []string {
	var msgs []string
	if strings.TrimSpace(s.Stabilize.NextAction) == "" {
		msgs = append(msgs, "STABILIZE requires next_action")
	}
	if len(s.Stabilize.WatchFor) < 1 {
		msgs = append(msgs, "STABILIZE requires at least 1 watch_for signal")
	}
	if !HasReservedJudgment(s.Stabilize.ReservedJudgment) {
		msgs = append(msgs, "STABILIZE requires at least one reserved-judgment note")
	}
	return msgs
}

// HasReservedJudgment reports whether notes has at least one entry and no blank entries.
func HasReservedJudgment(notes []string) bool {
	if len(notes) < 1 {
		return false
	}
	for _, n := range notes {
		if strings.TrimSpace(n) == "" {
			return false
		}
	}
	return true
}

// ValidatePhaseGates returns every gate violation for s as seen by role.
// Checks are cumulative: each phase's suite stays active for every later phase.
func ValidatePhaseGates(s PhaseState, role actor.Role) []GateError {
	var errs []GateError

	// 1. Content suites, in phase order
	for _, suite := range phaseSuites {
		if !suite.active(s.Phase) {
			continue
		}
		for _, msg := range suite.check(s) {
			errs = append(errs, GateError{Phase: suite.phase, Message: msg})
		}
	}

	// 2. Authority: only a human may have confirmed anything
	if !role.IsHuman() && s.anyConfirmed() {
		errs = append(errs, GateError{
			Phase:   s.Phase,
			Message: fmt.Sprintf("%s cannot confirm any recovery phase", role),
		})
	}

	// 3. Confirmation timestamps
	for _, p := range Order[:len(Order)-1] {
		c, _ := s.Confirmation(p)
		if c.ConfirmedByHuman && c.ConfirmedAt == nil {
			errs = append(errs, GateError{
				Phase:   p,
				Message: fmt.Sprintf("phase %s confirmation requires confirmed_at timestamp", p),
			})
		}
	}

	// 4. Completion requires every phase confirmed
	if s.Phase == PhaseComplete && !s.allConfirmed() {
		errs = append(errs, GateError{
			Phase:   PhaseComplete,
			Message: "COMPLETE requires all phases confirmed by HUMAN",
		})
	}

	return errs
}

// Blocking returns the gate errors tagged to the current phase of s.
func Blocking(s PhaseState, role actor.Role) []GateError {
	return filterPhase(ValidatePhaseGates(s, role), s.Phase)
}

func filterPhase(errs []GateError, p Phase) []GateError {
	var out []GateError
	for _, e := range errs {
		if e.Phase == p {
			out = append(out, e)
		}
	}
	return out
}

func (s PhaseState) anyConfirmed() bool {
	return s.Stop.ConfirmedByHuman || s.Witness.ConfirmedByHuman || s.Sweep.ConfirmedByHuman ||
		s.Seed.ConfirmedByHuman || s.Stabilize.ConfirmedByHuman
}

func (s PhaseState) allConfirmed() bool {
	return s.Stop.ConfirmedByHuman && s.Witness.ConfirmedByHuman && s.Sweep.ConfirmedByHuman &&
		s.Seed.ConfirmedByHuman && s.Stabilize.ConfirmedByHuman
}

// #endregion gates

// #region stoplight
// ComputeStoplight derives the procedure's risk indicator.
// Contradictions count as unresolved while the sweep holds no debris at all,
// regardless of how many contradictions the debris covers.
func ComputeStoplight(s PhaseState) stoplight.Stoplight {
	unresolved := len(s.Witness.Contradictions) > 0 && len(s.Sweep.Debris) == 0
	parked := false
	for _, d := range s.Sweep.Debris {
		if d.Action == DebrisPark {
			parked = true
			break
		}
	}
	stabilizeMissing := s.Phase == PhaseComplete &&
		(strings.TrimSpace(s.Stabilize.NextAction) == "" || len(s.Stabilize.WatchFor) == 0)

	switch {
	case unresolved:
		return stoplight.Red
	case parked && s.Stabilize.RecheckAt == nil:
		return stoplight.Red
	case stabilizeMissing:
		return stoplight.Red
	case s.Phase == PhaseComplete:
		return stoplight.Green
	}
	return stoplight.Yellow
}

// #endregion stoplight

// #region transitions
// BlockedError carries the gate errors that stopped an Advance.
type BlockedError struct {
	Phase  Phase
	Errors []GateError
}

func (e *BlockedError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return fmt.Sprintf("%s blocked: %s", e.Phase, strings.Join(msgs, "; "))
}

func (e *BlockedError) Unwrap() error { return ErrPhaseBlocked }

// Advance moves s one phase forward. It is blocked while any gate error is
// tagged to the current phase; leaving STABILIZE is additionally blocked by
// the COMPLETE gate. Reaching COMPLETE stamps completion time and forces GREEN.
// Advancing a COMPLETE procedure returns it unchanged.
func Advance(s PhaseState, role actor.Role, now time.Time) (PhaseState, error) {
	if s.Phase == PhaseComplete {
		return s.Clone(), nil
	}
	if !s.Phase.Valid() {
		return s.Clone(), fmt.Errorf("%w: %q", ErrUnknownPhase, s.Phase)
	}

	if blocking := Blocking(s, role); len(blocking) > 0 {
		return s.Clone(), &BlockedError{Phase: s.Phase, Errors: blocking}
	}

	next := s.Clone()
	next.Phase = NextPhase(s.Phase)

	if next.Phase == PhaseComplete {
		if blocking := filterPhase(ValidatePhaseGates(next, role), PhaseComplete); len(blocking) > 0 {
			return s.Clone(), &BlockedError{Phase: PhaseComplete, Errors: blocking}
		}
		at := now.UTC()
		next.CompletedAt = &at
		next.Stoplight = stoplight.Green
		return next, nil
	}

	next.Stoplight = ComputeStoplight(next)
	return next, nil
}

// Confirm records a human confirmation of phase p at now.
func Confirm(s PhaseState, p Phase, role actor.Role, now time.Time) (PhaseState, error) {
	if !role.IsHuman() {
		return s.Clone(), ErrHumanRequired
	}
	at := now.UTC()
	c := Confirmation{ConfirmedByHuman: true, ConfirmedAt: &at}

	next := s.Clone()
	switch p {
	case PhaseStop:
		next.Stop.Confirmation = c
	case PhaseWitness:
		next.Witness.Confirmation = c
	case PhaseSweep:
		next.Sweep.Confirmation = c
	case PhaseSeed:
		next.Seed.Confirmation = c
	case PhaseStabilize:
		next.Stabilize.Confirmation = c
	case PhaseComplete:
		return s.Clone(), fmt.Errorf("%w: %s has no confirmation", ErrUnknownPhase, p)
	default:
		return s.Clone(), fmt.Errorf("%w: %q", ErrUnknownPhase, p)
	}
	next.Stoplight = ComputeStoplight(next)
	return next, nil
}

// #endregion transitions

// #region clone
// Clone returns a deep copy of s.
func (s PhaseState) Clone() PhaseState {
	out := s
	out.Stop.ReservedJudgment = cloneStrings(s.Stop.ReservedJudgment)
	out.Stop.ConfirmedAt = cloneTime(s.Stop.ConfirmedAt)
	out.Witness.Observations = cloneStrings(s.Witness.Observations)
	out.Witness.Contradictions = cloneStrings(s.Witness.Contradictions)
	out.Witness.ReservedJudgment = cloneStrings(s.Witness.ReservedJudgment)
	out.Witness.ConfirmedAt = cloneTime(s.Witness.ConfirmedAt)
	if s.Sweep.Debris != nil {
		out.Sweep.Debris = append([]Debris{}, s.Sweep.Debris...)
	}
	out.Sweep.ReservedJudgment = cloneStrings(s.Sweep.ReservedJudgment)
	out.Sweep.ConfirmedAt = cloneTime(s.Sweep.ConfirmedAt)
	out.Seed.Candidates = cloneStrings(s.Seed.Candidates)
	out.Seed.ReservedJudgment = cloneStrings(s.Seed.ReservedJudgment)
	out.Seed.ConfirmedAt = cloneTime(s.Seed.ConfirmedAt)
	out.Stabilize.WatchFor = cloneStrings(s.Stabilize.WatchFor)
	out.Stabilize.RecheckAt = cloneTime(s.Stabilize.RecheckAt)
	out.Stabilize.ReservedJudgment = cloneStrings(s.Stabilize.ReservedJudgment)
	out.Stabilize.ConfirmedAt = cloneTime(s.Stabilize.ConfirmedAt)
	out.CompletedAt = cloneTime(s.CompletedAt)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// #endregion clone

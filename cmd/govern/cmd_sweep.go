package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bridgeos/govern/internal/eval"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
)

var sweepFlags struct {
	sessionID string
	trigger   string
	reason    string
	phase     string
	state     string
	role      string
}

var sweepCmd = &cobra.Command{
	Use:   "sweep start|edit|confirm|advance|reset",
	Short: "Work the recovery procedure of a stored session",
	Long: "sweep edits the STOP, WITNESS, SWEEP, SEED and STABILIZE procedure carried by the\n" +
		"session's recovery artifact. Confirming a phase requires --role HUMAN.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"start", "edit", "confirm", "advance", "reset"},
	RunE:      runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&sweepFlags.sessionID, "session-id", "", "stored session (required)")
	f.StringVar(&sweepFlags.trigger, "trigger", "", "trigger for start/reset, e.g. HUMAN_REQUEST")
	f.StringVar(&sweepFlags.reason, "reason", "", "free-text trigger reason for start/reset")
	f.StringVar(&sweepFlags.phase, "phase", "", "phase to confirm")
	f.StringVar(&sweepFlags.state, "state", "", "phase state JSON for edit, inline or @file")
	f.StringVar(&sweepFlags.role, "role", "HUMAN", "acting role: HUMAN or ASSISTANT")
	_ = sweepCmd.MarkFlagRequired("session-id")
}

func runSweep(cmd *cobra.Command, args []string) error {
	op := eval.SweepOp{
		Kind:    eval.SweepKind(strings.ToLower(args[0])),
		Trigger: seedsweep.Trigger(strings.ToUpper(sweepFlags.trigger)),
		Reason:  sweepFlags.reason,
		Phase:   seedsweep.Phase(strings.ToUpper(sweepFlags.phase)),
	}
	if op.Kind == eval.SweepEdit {
		if sweepFlags.state == "" {
			return fmt.Errorf("edit requires --state")
		}
		data, err := readJSONArg(sweepFlags.state)
		if err != nil {
			return err
		}
		var st seedsweep.PhaseState
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("parse state: %w", err)
		}
		op.State = &st
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	out, err := store.ApplySweep(cmd.Context(), sweepFlags.sessionID, op, parseRole(sweepFlags.role), newEvaluator())
	var blocked *seedsweep.BlockedError
	if errors.As(err, &blocked) {
		w := cmd.ErrOrStderr()
		for _, ge := range blocked.Errors {
			fmt.Fprintf(w, "  [%s] %s\n", ge.Phase, ge.Message)
		}
		return err
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, out.Note)
	idx := governance.FindArtifact(out.NewArtifacts, out.ArtifactID)
	if idx < 0 {
		return nil
	}
	a := out.NewArtifacts[idx]
	st, _ := governance.RecoveryState(a)
	fmt.Fprintf(w, "Artifact: %s  status=%s  stoplight=%s\n", a.ID, a.Status, a.Stoplight)
	fmt.Fprintf(w, "Phase:    %s\n", st.Phase)
	for _, ge := range seedsweep.Blocking(st, parseRole(sweepFlags.role)) {
		fmt.Fprintf(w, "  open: %s\n", ge.Message)
	}
	if p, ok := a.Payload.(governance.SeedSweepPayload); ok && p.Summary != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.Summary)
	}
	return nil
}

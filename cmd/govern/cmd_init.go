package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bridgeos/govern/internal/eval"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/seedsweep"
)

var initFlags struct {
	sessionID    string
	title        string
	withRecovery bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a DRAFT session with the four example core artifacts",
	RunE:  runInit,
}

func init() {
	f := initCmd.Flags()
	f.StringVar(&initFlags.sessionID, "session-id", "", "session id (random when empty)")
	f.StringVar(&initFlags.title, "title", "", "session title (example title when empty)")
	f.BoolVar(&initFlags.withRecovery, "with-recovery", false, "also add a preflight recovery artifact")
}

func runInit(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	session := governance.ExampleSession(time.Now().UTC())
	session.ID = initFlags.sessionID
	if session.ID == "" {
		session.ID = "session_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	if initFlags.title != "" {
		session.Title = initFlags.title
	}
	artifacts := governance.ExampleArtifacts()
	if initFlags.withRecovery {
		artifacts = append(artifacts, governance.NewRecoveryArtifact(eval.NewRecoveryID(),
			seedsweep.NewPhaseState(seedsweep.TriggerPreflight, "Preflight before compilation")))
	}

	v, err := store.CreateSession(session, artifacts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s (version %s) with %d artifacts\n", session.ID, v.VersionID, len(artifacts))
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bridgeos/govern/internal/format"
	"github.com/bridgeos/govern/internal/logging"
)

var inspectFlags struct {
	sessionID string
	last      int
	rollback  string
	jsonOut   bool
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show stored sessions, their versions and the decision log",
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectFlags.sessionID, "session-id", "", "session to inspect (lists all sessions when empty)")
	f.IntVar(&inspectFlags.last, "last", 20, "show N most recent versions and decisions")
	f.StringVar(&inspectFlags.rollback, "rollback", "", "move the session's active pointer to this version")
	f.BoolVar(&inspectFlags.jsonOut, "json", false, "output as JSON instead of tables")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	out := cmd.OutOrStdout()

	if inspectFlags.sessionID == "" {
		sessions, err := store.ListSessions()
		if err != nil {
			return err
		}
		if inspectFlags.jsonOut {
			return printJSON(out, sessions)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(out, "no sessions stored")
			return nil
		}
		fmt.Fprintln(out, format.Versions(format.ASCII, sessions))
		return nil
	}

	if inspectFlags.rollback != "" {
		if err := store.Rollback(inspectFlags.sessionID, inspectFlags.rollback); err != nil {
			return err
		}
		logging.New("inspect").Info("rolled back", "session", inspectFlags.sessionID, "version", inspectFlags.rollback)
	}

	cur, err := store.GetCurrent(inspectFlags.sessionID)
	if err != nil {
		return err
	}
	versions, err := store.ListVersions(inspectFlags.sessionID, inspectFlags.last)
	if err != nil {
		return err
	}
	decisions, err := logging.ListDecisions(store.DB(), inspectFlags.sessionID, inspectFlags.last)
	if err != nil {
		return err
	}

	if inspectFlags.jsonOut {
		return printJSON(out, map[string]any{
			"current":   cur,
			"versions":  versions,
			"decisions": decisions,
		})
	}

	s := cur.Session
	fmt.Fprintf(out, "Session:   %s (%s)\n", s.ID, s.Title)
	fmt.Fprintf(out, "State:     %s\n", s.State)
	fmt.Fprintf(out, "Stoplight: %s\n", s.Stoplight)
	fmt.Fprintf(out, "Version:   %s\n", cur.VersionID)
	if s.ActiveRecoveryID != "" {
		fmt.Fprintf(out, "Recovery:  %s\n", s.ActiveRecoveryID)
	}
	if s.Signoff.Signed {
		fmt.Fprintf(out, "Signoff:   %s (%s)\n", s.Signoff.SignerName, s.Signoff.SignerRole)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, format.Artifacts(format.ASCII, cur.Artifacts))
	fmt.Fprintln(out)
	fmt.Fprintln(out, format.Versions(format.ASCII, versions))
	if len(decisions) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, format.Decisions(format.ASCII, decisions))
	}
	return nil
}

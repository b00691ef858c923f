package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/format"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/rpc"
)

var evaluateFlags struct {
	session   string
	artifacts string
	sessionID string
	action    string
	role      string
	remote    string
	out       string
	jsonOut   bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one action against a session",
	Long: "Evaluate an action either statelessly (--session and --artifacts files) or\n" +
		"against a stored session (--session-id), committing the result when allowed.\n" +
		"With --remote the evaluation runs on a govern server.",
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.session, "session", "", "session JSON file")
	f.StringVar(&evaluateFlags.artifacts, "artifacts", "", "artifacts JSON file")
	f.StringVar(&evaluateFlags.sessionID, "session-id", "", "stored session to evaluate and commit against")
	f.StringVar(&evaluateFlags.action, "action", "", "action JSON, inline or @file (required)")
	f.StringVar(&evaluateFlags.role, "role", "HUMAN", "acting role: HUMAN or ASSISTANT")
	f.StringVar(&evaluateFlags.remote, "remote", "", "evaluate on the govern server at this address")
	f.StringVarP(&evaluateFlags.out, "output", "o", "", "write the full result JSON to this file")
	f.BoolVar(&evaluateFlags.jsonOut, "json", false, "print the full result as JSON")

	_ = evaluateCmd.MarkFlagRequired("action")
	evaluateCmd.MarkFlagsMutuallyExclusive("session-id", "session")
	evaluateCmd.MarkFlagsRequiredTogether("session", "artifacts")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	action, err := parseAction(evaluateFlags.action)
	if err != nil {
		return err
	}
	role := parseRole(evaluateFlags.role)
	ctx := cmd.Context()

	var (
		res       governance.Result
		versionID string
	)
	switch {
	case evaluateFlags.sessionID != "":
		res, versionID, err = evaluateStored(ctx, action, role, evaluateFlags.sessionID)
	case evaluateFlags.session != "":
		res, err = evaluateFiles(ctx, action, role)
	default:
		return fmt.Errorf("one of --session or --session-id is required")
	}
	if err != nil {
		return err
	}

	if evaluateFlags.out != "" {
		f, err := os.Create(evaluateFlags.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", evaluateFlags.out, err)
		}
		defer f.Close()
		if err := printJSON(f, res); err != nil {
			return fmt.Errorf("write %s: %w", evaluateFlags.out, err)
		}
	}

	out := cmd.OutOrStdout()
	if evaluateFlags.jsonOut {
		return printJSON(out, res)
	}
	printResult(out, action, role, res, versionID)
	return nil
}

func evaluateStored(ctx context.Context, action governance.Action, role actor.Role, sessionID string) (governance.Result, string, error) {
	if evaluateFlags.remote != "" {
		client, err := rpc.Dial(evaluateFlags.remote)
		if err != nil {
			return governance.Result{}, "", err
		}
		defer client.Close()
		resp, err := client.Apply(ctx, rpc.ApplyRequest{SessionID: sessionID, Action: action, Role: role})
		if err != nil {
			return governance.Result{}, "", err
		}
		return resp.Result, resp.VersionID, nil
	}

	store, err := openStore()
	if err != nil {
		return governance.Result{}, "", err
	}
	defer store.Close()
	out, err := store.Apply(ctx, sessionID, action, role, newEvaluator())
	if err != nil {
		return governance.Result{}, "", err
	}
	return out.Result, out.VersionID, nil
}

func evaluateFiles(ctx context.Context, action governance.Action, role actor.Role) (governance.Result, error) {
	session, err := os.ReadFile(evaluateFlags.session)
	if err != nil {
		return governance.Result{}, fmt.Errorf("read session: %w", err)
	}
	artifacts, err := os.ReadFile(evaluateFlags.artifacts)
	if err != nil {
		return governance.Result{}, fmt.Errorf("read artifacts: %w", err)
	}

	if evaluateFlags.remote != "" {
		client, err := rpc.Dial(evaluateFlags.remote)
		if err != nil {
			return governance.Result{}, err
		}
		defer client.Close()
		return client.EvaluateRaw(ctx, rpc.EvaluateRequest{Session: session, Artifacts: artifacts, Action: action, Role: role})
	}
	return newEvaluator().EvaluateJSON(session, artifacts, action, role), nil
}

func printResult(w io.Writer, action governance.Action, role actor.Role, res governance.Result, versionID string) {
	verdict := "ALLOWED"
	if !res.Allowed {
		verdict = "DENIED"
	}
	fmt.Fprintf(w, "%s  %s by %s\n", verdict, action, role)
	fmt.Fprintf(w, "Session: %s  state=%s  stoplight=%s\n", res.NewSession.ID, res.NewSession.State, res.NewSession.Stoplight)
	if versionID != "" {
		fmt.Fprintf(w, "Version: %s\n", versionID)
	}
	if len(res.Errors) > 0 {
		fmt.Fprintln(w, format.Errors(format.ASCII, res.Errors))
	}
	for _, n := range res.SideEffects {
		fmt.Fprintf(w, "  - %s\n", n)
	}
}

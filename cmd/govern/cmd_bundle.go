package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bridgeos/govern/internal/bundle"
	"github.com/bridgeos/govern/internal/format"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/schema"
)

var exportFlags struct {
	sessionID string
	out       string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored session as a GOVERN_EXPORT_V1 bundle (JSON or YAML)",
	RunE:  runExport,
}

var importFlags struct {
	force bool
}

var importCmd = &cobra.Command{
	Use:   "import BUNDLE",
	Short: "Import a bundle as the next version of its session",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.sessionID, "session-id", "", "session to export (required)")
	f.StringVarP(&exportFlags.out, "output", "o", "", "bundle path; .yaml/.yml selects YAML (required)")
	_ = exportCmd.MarkFlagRequired("session-id")
	_ = exportCmd.MarkFlagRequired("output")

	importCmd.Flags().BoolVar(&importFlags.force, "force", false, "import even when the snapshot fails schema validation")
}

func runExport(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	cur, err := store.GetCurrent(exportFlags.sessionID)
	if err != nil {
		return err
	}
	b := bundle.New(cur.Session, cur.Artifacts, bundle.AppInfo{Name: cfg.AppName, Build: cfg.Build}, time.Now())
	if err := bundle.Save(exportFlags.out, b); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (version %s) to %s\n", cur.SessionID, cur.VersionID, exportFlags.out)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	b, err := bundle.Load(args[0])
	if err != nil {
		return err
	}

	var errs []governance.EvalError
	errs = append(errs, schema.ValidateSession(b.Data.Session)...)
	errs = append(errs, schema.ValidateArtifacts(b.Data.Artifacts)...)
	if len(errs) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), format.Errors(format.ASCII, errs))
		if !importFlags.force {
			return fmt.Errorf("bundle %s fails schema validation (%d errors)", args[0], len(errs))
		}
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	v, err := store.Save(b.Data.Session, b.Data.Artifacts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as version %s (exported by %s %s)\n",
		v.SessionID, v.VersionID, b.App.Name, b.App.Build)
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bridgeos/govern/internal/config"
	"github.com/bridgeos/govern/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfg config.Config

	rootFlags struct {
		db        string
		logLevel  string
		logFormat string
	}
)

var rootCmd = &cobra.Command{
	Use:   "govern",
	Short: "Deterministic governance evaluator for human-gated sessions",
	Long: "govern evaluates requested transitions against a session and its artifacts,\n" +
		"enforcing human gates, recovery preflight and stoplight risk binding.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.db, "db", "", "SQLite database path (overrides GOVERN_DB)")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn or error (overrides GOVERN_LOG_LEVEL)")
	f.StringVar(&rootFlags.logFormat, "log-format", "", "text or json (overrides GOVERN_LOG_FORMAT)")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.Version = version
}

// setup loads the environment, applies root flag overrides and configures logging.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if rootFlags.db != "" {
		loaded.DBPath = rootFlags.db
	}
	if rootFlags.logLevel != "" {
		loaded.LogLevel = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		loaded.LogFormat = rootFlags.logFormat
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	if loaded.Build == "dev" {
		loaded.Build = version
	}
	cfg = loaded
	logging.Init(cfg.Level(), cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

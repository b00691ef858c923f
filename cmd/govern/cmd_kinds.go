package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bridgeos/govern/internal/format"
	"github.com/bridgeos/govern/internal/registry"
)

var kindsFlags struct {
	jsonOut bool
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the artifact kinds and their modes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if kindsFlags.jsonOut {
			return printJSON(cmd.OutOrStdout(), registry.All())
		}
		fmt.Fprintln(cmd.OutOrStdout(), format.Kinds(format.ASCII, registry.All()))
		return nil
	},
}

func init() {
	kindsCmd.Flags().BoolVar(&kindsFlags.jsonOut, "json", false, "output as JSON")
}

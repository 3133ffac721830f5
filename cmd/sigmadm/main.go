// Package main provides the sigmadm CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sigmadm",
		Short: "Manage Sigma data models as code",
		Long: `Sigmadm keeps Sigma Computing data model specs in a git repository:
it pulls specs from the Sigma API, pushes local edits back, and reports
structural differences between revisions.`,
		Version: version,
	}

	rootCmd.AddCommand(
		newDiffCmd(),
		newPullCmd(),
		newSyncCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draketools/w2fill/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("w2fill %s (%s)\n", version.GitRelease, version.GoInfo)
		fmt.Printf("  commit: %s\n", version.GitCommit)
		fmt.Printf("  date:   %s\n", version.GitCommitDate)
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Preview extraction for a document without touching Drake",
	Long: `Extract and parse a W-2 PDF and print what a fill run would inject.
Nothing is typed anywhere and the file is not moved; use this to check
extraction quality before dropping documents into the inbox.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		rec, err := app.runner.DryRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%d field(s) recovered via %s\n", rec.FieldCount(), rec.Method)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draketools/w2fill/internal/confirm"
	"github.com/draketools/w2fill/internal/pipeline"
)

var fillCmd = &cobra.Command{
	Use:   "fill <pdf>",
	Short: "Run a single document through the full pipeline",
	Long: `Run one W-2 PDF through extraction, confirmation, and injection,
then move it to done/ or errors/ like the watcher would.

Have the Drake W-2 screen open with focus on the employer EIN field (or a
calibration saved) before accepting the confirmation prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		job, err := app.runner.Process(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		switch job.Status {
		case pipeline.StatusRejected:
			return confirm.ErrRejected
		case pipeline.StatusFailed:
			if job.Err != nil {
				return fmt.Errorf("%s: %w", job.Outcome, job.Err)
			}
			return errors.New(job.Outcome)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fillCmd)
}

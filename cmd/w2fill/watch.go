package main

import (
	"github.com/spf13/cobra"

	"github.com/draketools/w2fill/internal/ingest"
)

var watchSkipScan bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox and process documents as they arrive",
	Long: `Watch the inbox directory and run every dropped W-2 PDF through the
full pipeline: extract, confirm, inject, route.

Documents are processed strictly one at a time; drops during an active
job queue up in arrival order. Each job blocks at the confirmation
prompt until you answer y or n. Runs until Ctrl+C or SIGTERM.

Examples:
  w2fill watch                      # process ~/.w2fill/inbox
  w2fill watch --skip-initial-scan  # ignore files already in the inbox`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := buildApp()
		if err != nil {
			return err
		}
		app.logger.Info("starting",
			"home", app.home.Path(),
			"keystroke_delay", app.cfg.KeystrokeDelay(),
			"focus_grace", app.cfg.FocusGrace(),
		)

		watcher, err := ingest.NewWatcher(ingest.Config{
			Dir:         app.inbox,
			InitialScan: !watchSkipScan,
			Logger:      app.logger,
		})
		if err != nil {
			return err
		}
		queue, err := watcher.Start(ctx)
		if err != nil {
			return err
		}

		// Blocks until shutdown.
		app.runner.Start(ctx, queue)
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(
		&watchSkipScan, "skip-initial-scan", false, "do not queue documents already sitting in the inbox",
	)

	rootCmd.AddCommand(watchCmd)
}

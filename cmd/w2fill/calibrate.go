package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/draketools/w2fill/internal/home"
	"github.com/draketools/w2fill/internal/input"
)

var calibrateDelay int

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Capture the screen position of the target's first field",
	Long: `Record where the Drake W-2 screen's first field (employer EIN) sits on
screen. Hover the pointer over it and hold still through the countdown;
the captured position is saved to calibration.json in the home dir and
clicked at the start of every injection run to place focus.

Positions are absolute screen coordinates: re-run calibrate after moving
or resizing the Drake window. Delete calibration.json to go back to
focusing the first field by hand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		fmt.Println("Hover the pointer over the first field of the W-2 screen.")
		for i := calibrateDelay; i > 0; i-- {
			fmt.Printf("capturing in %d...\n", i)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}

		x, y := input.NewDriver().PointerPosition()
		cal := input.Calibration{AbsX: x, AbsY: y}
		if err := input.SaveCalibration(h.CalibrationPath(), cal); err != nil {
			return err
		}
		fmt.Printf("calibration saved: %d,%d -> %s\n", x, y, h.CalibrationPath())
		return nil
	},
}

func init() {
	calibrateCmd.Flags().IntVar(
		&calibrateDelay, "delay", 5, "seconds to hold the pointer before capture",
	)

	rootCmd.AddCommand(calibrateCmd)
}

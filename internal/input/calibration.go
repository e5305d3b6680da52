package input

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Calibration stores the screen position of the target screen's first
// field. When present, the sequencer clicks it to place focus before
// typing; when absent, the operator clicks the field during the grace
// countdown.
//
// Positions are absolute screen coordinates. Window-relative offsets would
// survive the target moving between monitors, but resolving them needs a
// window handle, which this tool deliberately does not take.
type Calibration struct {
	AbsX int `json:"abs_x"`
	AbsY int `json:"abs_y"`
}

// LoadCalibration reads path. A missing file is not an error: it returns
// (nil, nil) and the sequencer skips the focus click.
func LoadCalibration(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading calibration: %w", err)
	}
	var c Calibration
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding calibration %s: %w", path, err)
	}
	return &c, nil
}

// SaveCalibration writes the position to path.
func SaveCalibration(path string, c Calibration) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding calibration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing calibration: %w", err)
	}
	return nil
}

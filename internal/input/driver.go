// Package input synthesizes keyboard, mouse, and clipboard events on the
// host. It is the only package that touches the OS input system; everything
// above it speaks the Driver interface so tests can record instead of
// typing into a live desktop.
package input

import (
	"fmt"
	"runtime"

	"github.com/go-vgo/robotgo"
)

// Key names accepted by TapKey.
const (
	KeyTab   = "tab"
	KeySpace = "space"
)

// Driver is the host input surface the injection sequencer drives. All
// methods are fire-and-forget writes into whatever window currently holds
// focus; there is no feedback about what the target did with them.
type Driver interface {
	// TypeText emits individual keystrokes for text.
	TypeText(text string) error

	// Paste places text on the system clipboard and sends the paste chord.
	Paste(text string) error

	// SelectAll sends the select-all chord so a following write replaces
	// any stale field content.
	SelectAll() error

	// TapKey presses and releases one key.
	TapKey(key string) error

	// Click moves the pointer and left-clicks.
	Click(x, y int) error

	// PointerPosition reports the current pointer location.
	PointerPosition() (x, y int)

	// ScreenSize reports the primary display dimensions.
	ScreenSize() (w, h int)
}

// robotDriver implements Driver with robotgo.
type robotDriver struct{}

// NewDriver returns the real host driver.
func NewDriver() Driver { return robotDriver{} }

func (robotDriver) TypeText(text string) error {
	robotgo.TypeStr(text)
	return nil
}

func (robotDriver) Paste(text string) error {
	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	if err := robotgo.KeyTap("v", chordModifier()); err != nil {
		return fmt.Errorf("paste chord: %w", err)
	}
	return nil
}

func (robotDriver) SelectAll() error {
	if err := robotgo.KeyTap("a", chordModifier()); err != nil {
		return fmt.Errorf("select-all chord: %w", err)
	}
	return nil
}

func (robotDriver) TapKey(key string) error {
	if err := robotgo.KeyTap(key); err != nil {
		return fmt.Errorf("tapping %s: %w", key, err)
	}
	return nil
}

func (robotDriver) Click(x, y int) error {
	robotgo.Move(x, y)
	robotgo.Click("left")
	return nil
}

func (robotDriver) PointerPosition() (int, int) {
	return robotgo.Location()
}

func (robotDriver) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

func chordModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

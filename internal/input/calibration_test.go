package input

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCalibrationRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")

	want := Calibration{AbsX: 812, AbsY: 409}
	if err := SaveCalibration(path, want); err != nil {
		t.Fatalf("SaveCalibration() error = %v", err)
	}

	got, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration() error = %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("LoadCalibration() = %+v, want %+v", got, want)
	}
}

func TestLoadCalibration_Missing(t *testing.T) {
	got, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadCalibration() error = %v, missing file should not error", err)
	}
	if got != nil {
		t.Errorf("LoadCalibration() = %+v, want nil for missing file", got)
	}
}

func TestLoadCalibration_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCalibration(path); err == nil {
		t.Error("LoadCalibration() expected error for corrupt file")
	}
}

func TestRecorder_RecordsInOrder(t *testing.T) {
	r := NewRecorder()
	if err := r.SelectAll(); err != nil {
		t.Fatal(err)
	}
	if err := r.Paste("123456789"); err != nil {
		t.Fatal(err)
	}
	if err := r.TapKey(KeyTab); err != nil {
		t.Fatal(err)
	}

	events := r.Events()
	if len(events) != 3 {
		t.Fatalf("Events() len = %d, want 3", len(events))
	}
	if events[0].Kind != "select_all" || events[1].Kind != "paste" || events[2].Kind != "tap" {
		t.Errorf("event order = %v", events)
	}
	if events[1].Text != "123456789" {
		t.Errorf("paste text = %q", events[1].Text)
	}
	if keys := r.Keys(); len(keys) != 1 || keys[0] != KeyTab {
		t.Errorf("Keys() = %v, want [tab]", keys)
	}
}

package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_DefaultPath(t *testing.T) {
	d, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	userHome, _ := os.UserHomeDir()
	want := filepath.Join(userHome, DefaultDirName)
	if d.Path() != want {
		t.Errorf("Path() = %q, want %q", d.Path(), want)
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "w2fill-home")
	d, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if d.Exists() {
		t.Fatal("Exists() = true before EnsureExists")
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}

	for _, dir := range []string{d.InboxPath(), d.DonePath(), d.ErrorsPath()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected directory %s to exist: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestPaths(t *testing.T) {
	d, _ := New("/tmp/w2")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"inbox", d.InboxPath(), "/tmp/w2/inbox"},
		{"done", d.DonePath(), "/tmp/w2/done"},
		{"errors", d.ErrorsPath(), "/tmp/w2/errors"},
		{"config", d.ConfigPath(), "/tmp/w2/config.yaml"},
		{"calibration", d.CalibrationPath(), "/tmp/w2/calibration.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the w2fill home directory.
	DefaultDirName = ".w2fill"

	// InboxDirName is the subdirectory watched for incoming W-2 documents.
	InboxDirName = "inbox"

	// DoneDirName is the subdirectory for successfully injected documents.
	DoneDirName = "done"

	// ErrorsDirName is the subdirectory for failed, rejected, or aborted documents.
	ErrorsDirName = "errors"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// CalibrationFileName stores the captured first-field screen position.
	CalibrationFileName = "calibration.json"
)

// Dir represents the w2fill home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.w2fill).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// InboxPath returns the watched inbox directory.
func (d *Dir) InboxPath() string {
	return filepath.Join(d.path, InboxDirName)
}

// DonePath returns the directory successfully processed documents move to.
func (d *Dir) DonePath() string {
	return filepath.Join(d.path, DoneDirName)
}

// ErrorsPath returns the directory failed documents move to.
func (d *Dir) ErrorsPath() string {
	return filepath.Join(d.path, ErrorsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// CalibrationPath returns the path to the calibration file.
func (d *Dir) CalibrationPath() string {
	return filepath.Join(d.path, CalibrationFileName)
}

// EnsureExists creates the home directory and its routing subdirectories.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.InboxPath(), d.DonePath(), d.ErrorsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

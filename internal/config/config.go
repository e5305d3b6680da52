package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	yaml "gopkg.in/yaml.v2"
)

// Manager loads configuration from defaults, an optional YAML file, and
// W2FILL_* environment variables, in increasing precedence.
type Manager struct {
	mu     sync.RWMutex
	v      *viper.Viper
	config *Config
}

// NewManager creates a configuration manager. configFile, when non-empty,
// names an explicit file to read; otherwise config.yaml is searched for in
// the working directory and homeDir. A missing file is not an error.
func NewManager(configFile, homeDir string) (*Manager, error) {
	m := &Manager{v: viper.New()}
	if err := m.initViper(configFile, homeDir); err != nil {
		return nil, err
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) initViper(configFile, homeDir string) error {
	defaults := DefaultConfig()
	m.v.SetDefault("keystroke_delay_ms", defaults.KeystrokeDelayMS)
	m.v.SetDefault("fill_delay_ms", defaults.FillDelayMS)
	m.v.SetDefault("focus_grace_seconds", defaults.FocusGraceSeconds)
	m.v.SetDefault("paste_threshold", defaults.PasteThreshold)
	m.v.SetDefault("min_text_chars", defaults.MinTextChars)
	m.v.SetDefault("inbox_dir", defaults.InboxDir)
	m.v.SetDefault("done_dir", defaults.DoneDir)
	m.v.SetDefault("errors_dir", defaults.ErrorsDir)
	m.v.SetDefault("layout_file", defaults.LayoutFile)
	m.v.SetDefault("log_level", defaults.LogLevel)
	m.v.SetDefault("ocr.pdftoppm", defaults.OCR.Pdftoppm)
	m.v.SetDefault("ocr.tesseract", defaults.OCR.Tesseract)
	m.v.SetDefault("ocr.dpi", defaults.OCR.DPI)
	m.v.SetDefault("ocr.lang", defaults.OCR.Lang)
	m.v.SetDefault("ocr.max_pages", defaults.OCR.MaxPages)

	m.v.SetEnvPrefix("W2FILL")
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.v.AutomaticEnv()

	if configFile != "" {
		m.v.SetConfigFile(configFile)
	} else {
		m.v.SetConfigName("config")
		m.v.SetConfigType("yaml")
		m.v.AddConfigPath(".")
		if homeDir != "" {
			m.v.AddConfigPath(homeDir)
		}
	}

	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func (m *Manager) load() error {
	cfg := &Config{}
	if err := m.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// ConfigFileUsed reports the path of the file viper actually read, if any.
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// WriteDefault writes a commented default config.yaml to path, creating
// parent directories as needed. It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	header := "# w2fill configuration.\n# Values here are overridden by W2FILL_* environment variables.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

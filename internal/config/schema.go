package config

import "time"

// Config holds w2fill configuration.
// Stored at: {home}/config.yaml
type Config struct {
	// KeystrokeDelayMS is the pause between every simulated input sent to the
	// target application. This is the main tunable: raise it if Drake drops
	// or reorders characters.
	KeystrokeDelayMS int `mapstructure:"keystroke_delay_ms" yaml:"keystroke_delay_ms"`

	// FillDelayMS is the settle pause after a field's value has been written,
	// before focus advances.
	FillDelayMS int `mapstructure:"fill_delay_ms" yaml:"fill_delay_ms"`

	// FocusGraceSeconds is the countdown between operator confirmation and the
	// first keystroke, giving the operator time to focus the target window's
	// first field.
	FocusGraceSeconds int `mapstructure:"focus_grace_seconds" yaml:"focus_grace_seconds"`

	// PasteThreshold is the value length at or above which the sequencer uses
	// a clipboard paste instead of individual keystrokes.
	PasteThreshold int `mapstructure:"paste_threshold" yaml:"paste_threshold"`

	// MinTextChars is the minimum number of characters the text layer must
	// yield before OCR fallback is skipped.
	MinTextChars int `mapstructure:"min_text_chars" yaml:"min_text_chars"`

	// InboxDir, DoneDir, ErrorsDir override the home-relative routing
	// directories when non-empty.
	InboxDir  string `mapstructure:"inbox_dir" yaml:"inbox_dir"`
	DoneDir   string `mapstructure:"done_dir" yaml:"done_dir"`
	ErrorsDir string `mapstructure:"errors_dir" yaml:"errors_dir"`

	// LayoutFile points at an optional JSON field-layout overlay for target
	// screens whose tab order differs from the default.
	LayoutFile string `mapstructure:"layout_file" yaml:"layout_file"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	OCR OCRCfg `mapstructure:"ocr" yaml:"ocr"`
}

// OCRCfg configures the recognition-engine fallback path.
type OCRCfg struct {
	Pdftoppm  string `mapstructure:"pdftoppm" yaml:"pdftoppm"`   // binary name or absolute path
	Tesseract string `mapstructure:"tesseract" yaml:"tesseract"` // binary name or absolute path
	DPI       int    `mapstructure:"dpi" yaml:"dpi"`
	Lang      string `mapstructure:"lang" yaml:"lang"`
	MaxPages  int    `mapstructure:"max_pages" yaml:"max_pages"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		KeystrokeDelayMS:  250,
		FillDelayMS:       150,
		FocusGraceSeconds: 5,
		PasteThreshold:    20,
		MinTextChars:      50,
		LogLevel:          "info",
		OCR: OCRCfg{
			Pdftoppm:  "pdftoppm",
			Tesseract: "tesseract",
			DPI:       300,
			Lang:      "eng",
			MaxPages:  4,
		},
	}
}

// KeystrokeDelay returns the inter-keystroke delay as a duration.
func (c *Config) KeystrokeDelay() time.Duration {
	return time.Duration(c.KeystrokeDelayMS) * time.Millisecond
}

// FillDelay returns the post-fill settle delay as a duration.
func (c *Config) FillDelay() time.Duration {
	return time.Duration(c.FillDelayMS) * time.Millisecond
}

// FocusGrace returns the pre-injection countdown as a duration.
func (c *Config) FocusGrace() time.Duration {
	return time.Duration(c.FocusGraceSeconds) * time.Second
}

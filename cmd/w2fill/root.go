package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/draketools/w2fill/internal/config"
	"github.com/draketools/w2fill/internal/confirm"
	"github.com/draketools/w2fill/internal/extract"
	"github.com/draketools/w2fill/internal/home"
	"github.com/draketools/w2fill/internal/inject"
	"github.com/draketools/w2fill/internal/input"
	"github.com/draketools/w2fill/internal/parse"
	"github.com/draketools/w2fill/internal/pipeline"
	"github.com/draketools/w2fill/internal/w2"
	"github.com/draketools/w2fill/version"
)

var (
	cfgFile string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "w2fill",
	Short: "Types extracted W-2 PDFs into the Drake W-2 entry screen",
	Long: `w2fill watches an inbox directory for W-2 PDFs, extracts the form
fields (text layer first, OCR fallback), shows the result for operator
confirmation, and replays accepted values into the Drake W-2 screen as
timed keyboard input.

The target application is never driven through an API: w2fill types into
whichever window holds focus, following the screen's tab order. Focus the
first field before a run starts (or save a click point with calibrate),
and slam the pointer into the top-left corner of the screen to abort.

Processed documents move to done/, everything else to errors/ with a
.reason.txt file alongside.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.w2fill/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "w2fill home directory (default: ~/.w2fill)",
	)

	rootCmd.AddCommand(versionCmd)
}

// app bundles everything a pipeline-running command needs.
type app struct {
	home   *home.Dir
	cfg    *config.Config
	logger *slog.Logger
	runner *pipeline.Runner
	inbox  string
}

// buildApp assembles the stages from config. The first run also seeds a
// commented config.yaml in the home dir so operators have something to
// edit.
func buildApp() (*app, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}
	if cfgFile == "" && !h.ConfigExists() {
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return nil, err
		}
	}

	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	logger := newLogger(cfg.LogLevel)
	if used := mgr.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}

	schema := w2.Default()
	if cfg.LayoutFile != "" {
		schema, err = w2.LoadLayout(cfg.LayoutFile)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", cfg.LayoutFile, err)
		}
		logger.Info("field layout loaded", "file", cfg.LayoutFile)
	}

	parser, err := parse.New(schema, logger)
	if err != nil {
		return nil, err
	}
	extractor := extract.NewExtractor(extract.Config{
		Pdftoppm:     cfg.OCR.Pdftoppm,
		Tesseract:    cfg.OCR.Tesseract,
		DPI:          cfg.OCR.DPI,
		Lang:         cfg.OCR.Lang,
		MaxPages:     cfg.OCR.MaxPages,
		MinTextChars: cfg.MinTextChars,
	}, logger)
	sequencer := inject.NewSequencer(input.NewDriver(), inject.Config{
		KeystrokeDelay: cfg.KeystrokeDelay(),
		FillDelay:      cfg.FillDelay(),
		FocusGrace:     cfg.FocusGrace(),
	}, logger)

	inbox := h.InboxPath()
	if cfg.InboxDir != "" {
		inbox = cfg.InboxDir
	}
	doneDir := h.DonePath()
	if cfg.DoneDir != "" {
		doneDir = cfg.DoneDir
	}
	errorsDir := h.ErrorsPath()
	if cfg.ErrorsDir != "" {
		errorsDir = cfg.ErrorsDir
	}
	for _, dir := range []string{inbox, doneDir, errorsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	runner, err := pipeline.NewRunner(pipeline.RunnerConfig{
		Schema:          schema,
		Extractor:       extractor,
		Parser:          parser,
		Gate:            confirm.NewConsole(os.Stdin, os.Stdout, logger),
		Injector:        sequencer,
		Router:          pipeline.NewRouter(doneDir, errorsDir, logger),
		PasteThreshold:  cfg.PasteThreshold,
		CalibrationPath: h.CalibrationPath(),
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{home: h, cfg: cfg, logger: logger, runner: runner, inbox: inbox}, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

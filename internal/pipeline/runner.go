package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/draketools/w2fill/internal/confirm"
	"github.com/draketools/w2fill/internal/extract"
	"github.com/draketools/w2fill/internal/inject"
	"github.com/draketools/w2fill/internal/input"
	"github.com/draketools/w2fill/internal/parse"
	"github.com/draketools/w2fill/internal/w2"
)

// Extractor recovers text from a source document.
type Extractor interface {
	Extract(ctx context.Context, path string) (*extract.Result, error)
}

// Parser turns recovered text into a record.
type Parser interface {
	Parse(text string) (*parse.Record, error)
}

// Injector replays a plan into the focused target window.
type Injector interface {
	Run(ctx context.Context, plan *inject.Plan, cal *input.Calibration) error
}

// RunnerConfig wires the stages together.
type RunnerConfig struct {
	Schema    *w2.Schema
	Extractor Extractor
	Parser    Parser
	Gate      confirm.Gate
	Injector  Injector
	Router    *Router

	// PasteThreshold is the value length at which injection switches from
	// typing to pasting. Zero means always type.
	PasteThreshold int

	// CalibrationPath, when set, is read before each injection run; a
	// saved point is clicked to place focus on the target's first field.
	CalibrationPath string

	Logger *slog.Logger
}

// Runner executes jobs. It is the queue's only consumer and finishes each
// job, including the blocking confirmation wait, before looking at the
// next one.
type Runner struct {
	schema    *w2.Schema
	extractor Extractor
	parser    Parser
	gate      confirm.Gate
	injector  Injector
	router    *Router

	pasteThreshold  int
	calibrationPath string
	logger          *slog.Logger
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	switch {
	case cfg.Schema == nil:
		return nil, fmt.Errorf("schema is required")
	case cfg.Extractor == nil:
		return nil, fmt.Errorf("extractor is required")
	case cfg.Parser == nil:
		return nil, fmt.Errorf("parser is required")
	case cfg.Gate == nil:
		return nil, fmt.Errorf("confirmation gate is required")
	case cfg.Injector == nil:
		return nil, fmt.Errorf("injector is required")
	case cfg.Router == nil:
		return nil, fmt.Errorf("router is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		schema:          cfg.Schema,
		extractor:       cfg.Extractor,
		parser:          cfg.Parser,
		gate:            cfg.Gate,
		injector:        cfg.Injector,
		router:          cfg.Router,
		pasteThreshold:  cfg.PasteThreshold,
		calibrationPath: cfg.CalibrationPath,
		logger:          logger,
	}, nil
}

// Start consumes the queue until ctx ends or the queue closes. Blocks;
// run in a goroutine if you need to do anything else.
//
// A document failure never stops the loop. A job cut short by shutdown
// leaves its source file in the inbox, where the next start picks it up.
func (r *Runner) Start(ctx context.Context, queue <-chan string) {
	r.logger.Info("pipeline started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("pipeline stopping")
			return
		case path, ok := <-queue:
			if !ok {
				r.logger.Info("pipeline stopping, queue closed")
				return
			}
			if _, err := r.Process(ctx, path); err != nil && ctx.Err() == nil {
				r.logger.Error("job left unrouted", "file", filepath.Base(path), "error", err)
			}
		}
	}
}

// Process runs one document through every stage and routes it. The
// returned job is terminal unless err is non-nil; a non-nil error means
// the run was cut short (shutdown mid-stage, or the file move itself
// failed) and the source file stays where it is.
func (r *Runner) Process(ctx context.Context, path string) (*Job, error) {
	job := NewJob(path)
	log := r.logger.With("job", shortID(job.ID), "file", filepath.Base(path))
	log.Info("job started")

	r.advance(log, job, StatusExtracting)
	res, err := r.extractor.Extract(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return job, ctx.Err()
		}
		outcome := OutcomeExtractFailed
		if errors.Is(err, extract.ErrUnavailable) {
			outcome = OutcomeUnavailable
		}
		return r.fail(log, job, outcome, err)
	}

	rec, err := r.parser.Parse(res.Text)
	if err != nil {
		return r.fail(log, job, OutcomeNoFields, err)
	}
	rec.SourcePath = path
	rec.Method = res.Method
	job.Record = rec
	r.advance(log, job, StatusParsed)
	log.Info("record parsed",
		"method", res.Method, "fields", rec.FieldCount(), "flags", len(rec.Flags))

	r.advance(log, job, StatusAwaitingConfirmation)
	if err := r.gate.Present(ctx, rec); err != nil {
		return r.fail(log, job, OutcomeConfirmFailed, err)
	}
	decision, err := r.gate.Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return job, ctx.Err()
		}
		return r.fail(log, job, OutcomeConfirmFailed, err)
	}
	if decision == confirm.Reject {
		log.Info("operator rejected record")
		return r.route(log, job, StatusRejected, OutcomeRejected, nil)
	}

	r.advance(log, job, StatusInjecting)
	plan := inject.BuildPlan(r.schema, rec, r.pasteThreshold)
	if err := r.injector.Run(ctx, plan, r.loadCalibration(log)); err != nil {
		if errors.Is(err, inject.ErrAborted) {
			return r.route(log, job, StatusFailed, OutcomeAborted, err)
		}
		return r.fail(log, job, OutcomeInjectFailed, err)
	}

	return r.route(log, job, StatusDone, OutcomeFilled, nil)
}

// DryRun extracts, parses, and presents a document without confirming,
// injecting, or moving anything. This is the preview path: it can never
// transition a job toward injection.
func (r *Runner) DryRun(ctx context.Context, path string) (*parse.Record, error) {
	res, err := r.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	rec, err := r.parser.Parse(res.Text)
	if err != nil {
		return nil, err
	}
	rec.SourcePath = path
	rec.Method = res.Method
	if err := r.gate.Present(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Runner) advance(log *slog.Logger, job *Job, s Status) {
	job.Status = s
	log.Debug("job state", "status", s)
}

func (r *Runner) fail(log *slog.Logger, job *Job, outcome string, cause error) (*Job, error) {
	log.Error("job failed", "outcome", outcome, "error", cause)
	return r.route(log, job, StatusFailed, outcome, cause)
}

func (r *Runner) route(log *slog.Logger, job *Job, status Status, outcome string, cause error) (*Job, error) {
	job.finish(status, outcome, cause)
	dest, err := r.router.Route(job)
	if err != nil {
		log.Error("routing failed, source file left in place", "error", err)
		return job, err
	}
	log.Info("job finished", "status", job.Status, "outcome", outcome, "routed", filepath.Base(dest))
	return job, nil
}

// loadCalibration is best-effort: a missing or unreadable calibration
// file just means no focus click before the run.
func (r *Runner) loadCalibration(log *slog.Logger) *input.Calibration {
	if r.calibrationPath == "" {
		return nil
	}
	cal, err := input.LoadCalibration(r.calibrationPath)
	if err != nil {
		log.Warn("ignoring unreadable calibration", "path", r.calibrationPath, "error", err)
		return nil
	}
	return cal
}

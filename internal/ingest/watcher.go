// Package ingest watches the inbox for dropped documents and feeds their
// paths to the pipeline queue. It only ever enqueues; extraction and
// injection happen on the queue's consumer side, one document at a time.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	defaultQueueSize    = 64
	defaultPollInterval = 200 * time.Millisecond
	defaultPollAttempts = 25
)

// Config for the inbox watcher.
type Config struct {
	// Dir is the inbox directory. Not recursive; subdirectories are
	// ignored.
	Dir string

	// QueueSize caps how many detections can sit waiting while a job is
	// active. A full queue blocks the watch loop rather than dropping
	// files.
	QueueSize int

	// InitialScan emits documents already sitting in the inbox at start,
	// in name order, before any filesystem events.
	InitialScan bool

	// A file is ready once its size is unchanged across PollInterval.
	// PollAttempts bounds how long a still-growing file is tolerated.
	PollInterval time.Duration
	PollAttempts uint

	Logger *slog.Logger
}

// Watcher owns an fsnotify watch on the inbox.
type Watcher struct {
	cfg    Config
	logger *slog.Logger

	// enqueued marks paths currently handed to the queue, so the
	// create/write event bursts a single copy produces become one job.
	// Cleared when the file leaves the inbox. Touched only by the watch
	// goroutine.
	enqueued map[string]bool
}

func NewWatcher(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollAttempts == 0 {
		cfg.PollAttempts = defaultPollAttempts
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg, logger: logger, enqueued: make(map[string]bool)}, nil
}

// Start begins watching and returns the queue of ready document paths.
// The queue closes when ctx ends.
func (w *Watcher) Start(ctx context.Context) (<-chan string, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(w.cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}

	queue := make(chan string, w.cfg.QueueSize)
	go w.loop(ctx, fsw, queue)

	w.logger.Info("watching inbox", "dir", w.cfg.Dir, "initial_scan", w.cfg.InitialScan)
	return queue, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, queue chan<- string) {
	defer close(queue)
	defer fsw.Close()

	if w.cfg.InitialScan {
		w.scan(ctx, queue)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping")
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !isPDF(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				// The file left the inbox (usually the router moving it).
				// A future file under the same name is a new document.
				delete(w.enqueued, ev.Name)
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.offer(ctx, queue, ev.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// scan emits pre-existing inbox files, so documents dropped before the
// watcher started still become jobs.
func (w *Watcher) scan(ctx context.Context, queue chan<- string) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.logger.Error("initial scan failed", "dir", w.cfg.Dir, "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !isPDF(e.Name()) {
			continue
		}
		w.offer(ctx, queue, filepath.Join(w.cfg.Dir, e.Name()))
	}
}

// offer runs the stability wait and hands the path to the queue. Files
// that vanish mid-wait were moved out from under us and are skipped.
func (w *Watcher) offer(ctx context.Context, queue chan<- string, path string) {
	if w.enqueued[path] {
		return
	}
	if err := w.waitStable(ctx, path); err != nil {
		w.logger.Debug("skipping document", "file", filepath.Base(path), "error", err)
		return
	}
	w.enqueued[path] = true
	select {
	case queue <- path:
		w.logger.Info("document queued", "file", filepath.Base(path))
	case <-ctx.Done():
	}
}

// waitStable returns once the file's size stops changing between polls,
// so a document still being copied in is never handed over half-written.
func (w *Watcher) waitStable(ctx context.Context, path string) error {
	var last int64 = -1
	return retry.Do(
		func() error {
			info, err := os.Stat(path)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if size := info.Size(); size != last {
				last = size
				return fmt.Errorf("still growing: %d bytes", size)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(w.cfg.PollAttempts),
		retry.Delay(w.cfg.PollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Router relocates a finished job's source document: done jobs into the
// done directory, everything else into the errors directory with a
// reason sidecar. The move is what retires a document; once it leaves
// the inbox the watcher can never pick it up again.
type Router struct {
	doneDir   string
	errorsDir string
	logger    *slog.Logger
}

func NewRouter(doneDir, errorsDir string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{doneDir: doneDir, errorsDir: errorsDir, logger: logger}
}

// Route moves the job's source file to its terminal directory and returns
// the destination path. Non-done outcomes also get a `.reason.txt`
// sidecar next to the routed file so the reason survives the process.
func (r *Router) Route(job *Job) (string, error) {
	if !job.Status.Terminal() {
		return "", fmt.Errorf("job %s is not terminal (status %s)", shortID(job.ID), job.Status)
	}

	dir := r.errorsDir
	if job.Status == StatusDone {
		dir = r.doneDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	dest := destPath(dir, job)
	if err := moveFile(job.SourcePath, dest); err != nil {
		return "", fmt.Errorf("routing %s: %w", filepath.Base(job.SourcePath), err)
	}

	if job.Status != StatusDone {
		if err := writeReason(dest, job); err != nil {
			r.logger.Warn("could not write reason sidecar", "file", dest, "error", err)
		}
	}

	r.logger.Info("document routed",
		"file", filepath.Base(dest), "status", job.Status, "outcome", job.Outcome)
	return dest, nil
}

// destPath keeps the source file's name unless that name is already taken
// in the target directory, then disambiguates with the job's short id.
func destPath(dir string, job *Job) string {
	base := filepath.Base(job.SourcePath)
	dest := filepath.Join(dir, base)
	if _, err := os.Stat(dest); err != nil {
		return dest
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+"-"+shortID(job.ID)+ext)
}

func writeReason(dest string, job *Job) error {
	msg := job.Outcome
	if job.Err != nil {
		msg = fmt.Sprintf("%s: %v", job.Outcome, job.Err)
	}
	return os.WriteFile(dest+".reason.txt", []byte(msg+"\n"), 0o644)
}

// moveFile renames src into place, falling back to copy-and-remove when
// rename fails (the inbox and the terminal directories can live on
// different filesystems).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

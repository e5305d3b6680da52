// Package pipeline moves one document at a time through extraction,
// parsing, confirmation, and injection, then routes the source file by
// outcome. The runner is the queue's only consumer, which is what keeps
// two documents from ever racing to inject into the same target window.
package pipeline

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draketools/w2fill/internal/parse"
)

// Status represents the current state of a job.
type Status string

const (
	StatusQueued               Status = "queued"
	StatusExtracting           Status = "extracting"
	StatusParsed               Status = "parsed"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusInjecting            Status = "injecting"
	StatusDone                 Status = "done"
	StatusRejected             Status = "rejected"
	StatusFailed               Status = "failed"
)

// Terminal reports whether the status ends a job's run.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Outcome reasons recorded on terminal jobs and written to the errors
// sidecar.
const (
	OutcomeFilled        = "filled"
	OutcomeExtractFailed = "extraction_failed"
	OutcomeUnavailable   = "extraction_unavailable"
	OutcomeNoFields      = "no_fields_recovered"
	OutcomeConfirmFailed = "confirmation_unavailable"
	OutcomeRejected      = "operator_rejected"
	OutcomeAborted       = "operator_aborted"
	OutcomeInjectFailed  = "injection_failed"
)

// Job tracks one source document through the stages. All of it is
// in-memory; the only thing that persists is the terminal file move,
// after which the job's bookkeeping is released.
type Job struct {
	ID         string
	SourcePath string
	Status     Status
	Record     *parse.Record
	Outcome    string // reason for the terminal status
	Err        error  // underlying failure, when there is one
	CreatedAt  time.Time
	FinishedAt *time.Time
}

func NewJob(sourcePath string) *Job {
	return &Job{
		ID:         uuid.New().String(),
		SourcePath: sourcePath,
		Status:     StatusQueued,
		CreatedAt:  time.Now().UTC(),
	}
}

func (j *Job) finish(status Status, outcome string, err error) {
	j.Status = status
	j.Outcome = outcome
	j.Err = err
	now := time.Now().UTC()
	j.FinishedAt = &now
}

// shortID is the first segment of the uuid, enough to tell jobs apart in
// logs and routed file names.
func shortID(id string) string {
	short, _, _ := strings.Cut(id, "-")
	return short
}

// Package confirm implements the human gate between parsing and injection.
// Injection never starts on extraction results alone: the parsed record is
// presented to the operator and the pipeline blocks, however long it takes,
// until the whole record is accepted or rejected. There is no per-field
// acceptance.
package confirm

import (
	"context"
	"errors"

	"github.com/draketools/w2fill/internal/parse"
)

// ErrRejected reports that the operator declined the record at the gate.
var ErrRejected = errors.New("record rejected at confirmation gate")

// Decision is the operator's verdict on a presented record.
type Decision int

const (
	Accept Decision = iota
	Reject
)

func (d Decision) String() string {
	if d == Accept {
		return "accept"
	}
	return "reject"
}

// Gate presents a parsed record and blocks for the operator's decision.
type Gate interface {
	// Present shows the record summary. The record must be treated as
	// read-only: what is shown is exactly what will be injected.
	Present(ctx context.Context, rec *parse.Record) error

	// Await blocks until the operator decides. It honors context
	// cancellation but has no timeout of its own.
	Await(ctx context.Context) (Decision, error)
}

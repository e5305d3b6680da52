// Package inject replays an accepted record into the target application's
// data-entry screen as timed keyboard and clipboard events. The target is
// whatever window holds focus: there is no window handle, no API, and no
// feedback channel, so correctness rests entirely on the schema's slot
// order and the operator having the right screen open.
package inject

import (
	"github.com/draketools/w2fill/internal/parse"
	"github.com/draketools/w2fill/internal/w2"
)

// Action is what the sequencer does at one slot before moving focus on.
type Action int

const (
	Advance Action = iota // nothing to write, cross the slot with a tab
	Type                  // keystroke the value
	Paste                 // clipboard-paste the value
	Toggle                // space-press a checked checkbox
)

func (a Action) String() string {
	switch a {
	case Type:
		return "type"
	case Paste:
		return "paste"
	case Toggle:
		return "toggle"
	default:
		return "advance"
	}
}

// Step is one slot's worth of work. Every slot in the traversal gets
// exactly one step; unbound slots and fields with nothing recovered are
// Advance steps, so focus position stays aligned with the schema no matter
// which fields matched.
type Step struct {
	Slot   int
	Field  string // bound field name, "" for unbound slots
	Value  string // Type and Paste only
	Action Action
}

// Plan is the full ordered traversal for one record. Plans are built per
// run and never reused: the record behind them is released when the job
// completes.
type Plan struct {
	Steps []Step
}

// ValueSteps returns only the steps that write something, in slot order.
func (p *Plan) ValueSteps() []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Action != Advance {
			out = append(out, s)
		}
	}
	return out
}

// BuildPlan expands schema and record into the slot-by-slot traversal.
// Values at or beyond pasteThreshold characters are pasted instead of
// typed; a threshold of zero disables pasting.
//
// An unset field injects nothing: its slot is crossed with a bare advance,
// never a fabricated value. Pair rows emit code and amount steps, with any
// trailing slots in the row's stride left unbound.
func BuildPlan(schema *w2.Schema, rec *parse.Record, pasteThreshold int) *Plan {
	steps := make([]Step, schema.SlotCount)
	for i := range steps {
		steps[i] = Step{Slot: i, Action: Advance}
	}

	for _, f := range schema.Fields {
		switch f.Type {
		case w2.Checkbox:
			steps[f.Slot].Field = f.Name
			if rec.Check(f.Name) {
				steps[f.Slot].Action = Toggle
			}

		case w2.CodeAmountPairs:
			pairs := rec.PairList(f.Name)
			for i := 0; i < f.Pairs; i++ {
				base := f.Slot + i*f.PairStride
				if i >= len(pairs) {
					continue
				}
				steps[base] = valueStep(base, f.Name, pairs[i].Code, pasteThreshold)
				if amount := pairs[i].Amount; amount != "" {
					steps[base+1] = valueStep(base+1, f.Name, amount, pasteThreshold)
				} else {
					steps[base+1].Field = f.Name
				}
			}

		default:
			steps[f.Slot].Field = f.Name
			if v, ok := rec.Value(f.Name); ok && v != "" {
				steps[f.Slot] = valueStep(f.Slot, f.Name, v, pasteThreshold)
			}
		}
	}
	return &Plan{Steps: steps}
}

func valueStep(slot int, field, value string, pasteThreshold int) Step {
	action := Type
	if pasteThreshold > 0 && len(value) >= pasteThreshold {
		action = Paste
	}
	return Step{Slot: slot, Field: field, Value: value, Action: action}
}

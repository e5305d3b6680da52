package parse

// Pair is one row of a code/amount list field (box 12 codes, box 14 other).
type Pair struct {
	Code   string
	Amount string
}

// Flag marks a value that failed normalization or exceeded a capacity
// limit. Flagged values are surfaced at the confirmation gate; they are
// never silently repaired or dropped.
type Flag struct {
	Field  string
	Raw    string
	Reason string
}

// Record is the parsed and normalized content of one document. It is
// treated as read-only once presented for confirmation: the values the
// operator accepts are exactly the values injected.
type Record struct {
	SourcePath string
	Method     string // extraction method that produced the text

	Values map[string]string // scalar fields, absent = not recovered
	Checks map[string]bool   // checkbox fields, only checked ones stored
	Pairs  map[string][]Pair // pair-list fields

	Flags []Flag
}

func newRecord() *Record {
	return &Record{
		Values: make(map[string]string),
		Checks: make(map[string]bool),
		Pairs:  make(map[string][]Pair),
	}
}

// Value returns the normalized scalar value for a field.
func (r *Record) Value(name string) (string, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Check reports whether a checkbox field was marked on the form.
func (r *Record) Check(name string) bool {
	return r.Checks[name]
}

// PairList returns the rows recovered for a pair-list field.
func (r *Record) PairList(name string) []Pair {
	return r.Pairs[name]
}

// FieldCount is the number of fields that matched the document.
func (r *Record) FieldCount() int {
	return len(r.Values) + len(r.Checks) + len(r.Pairs)
}

// Flagged reports whether any flag was raised for the named field.
func (r *Record) Flagged(name string) bool {
	for _, f := range r.Flags {
		if f.Field == name {
			return true
		}
	}
	return false
}

func (r *Record) addFlag(field, raw, reason string) {
	r.Flags = append(r.Flags, Flag{Field: field, Raw: raw, Reason: reason})
}

// Package w2 defines the W-2 field schema: the fixed set of fields the
// pipeline recovers from a form and the tab-order slots those fields occupy
// on the target data-entry screen. The schema is the single source of truth
// for both extraction (label patterns) and injection (slot order): a change
// to the target screen's tab order is a change to this table and nothing
// else.
package w2

import (
	"fmt"
	"sort"
)

// FieldType describes how a field's value is parsed, normalized, and
// injected.
type FieldType int

const (
	Text            FieldType = iota // free text, typed as-is
	Currency                         // dollar amount, normalized to two decimals
	EIN                              // employer identification number, nine digits
	ZIP                              // five or nine digit postal code
	Checkbox                         // boolean, injected as a space toggle
	CodeAmountPairs                  // ordered (code, amount) rows
)

func (t FieldType) String() string {
	switch t {
	case Text:
		return "text"
	case Currency:
		return "currency"
	case EIN:
		return "ein"
	case ZIP:
		return "zip"
	case Checkbox:
		return "checkbox"
	case CodeAmountPairs:
		return "code_amount_pairs"
	default:
		return "unknown"
	}
}

// Field names. These are the keys of a parsed record and the names accepted
// by a layout overlay file.
const (
	FieldEIN             = "ein"
	FieldEmployerName    = "employer_name"
	FieldEmployerStreet  = "employer_street"
	FieldEmployerCity    = "employer_city"
	FieldEmployerState   = "employer_state"
	FieldEmployerZIP     = "employer_zip"
	FieldBox1Wages       = "box1_wages"
	FieldBox2FedTax      = "box2_fed_tax"
	FieldBox3SSWages     = "box3_ss_wages"
	FieldBox4SSTax       = "box4_ss_tax"
	FieldBox5MedWages    = "box5_med_wages"
	FieldBox6MedTax      = "box6_med_tax"
	FieldBox7SSTips      = "box7_ss_tips"
	FieldBox8AllocTips   = "box8_alloc_tips"
	FieldBox10DepCare    = "box10_dep_care"
	FieldBox11Nonqual    = "box11_nonqual"
	FieldBox12           = "box12"
	FieldBox13Statutory  = "box13_statutory"
	FieldBox13Retirement = "box13_retirement"
	FieldBox13SickPay    = "box13_sick_pay"
	FieldBox14           = "box14"
	FieldBox15State      = "box15_state"
	FieldBox15StateID    = "box15_state_id"
	FieldBox16Wages      = "box16_wages"
	FieldBox17Tax        = "box17_tax"
)

// Field is one entry in the schema table.
//
// Labels holds ordered regex variants tried against the document text; the
// first variant that matches wins and its first capture group is the raw
// value. Checkbox fields need no capture group (a match means checked).
// CodeAmountPairs fields use two capture groups per match and collect every
// match in document order.
type Field struct {
	Name   string
	Type   FieldType
	Slot   int // starting tab-order ordinal on the target screen
	Labels []string

	// CodeAmountPairs only.
	Pairs      int // row capacity on the target screen
	PairStride int // slots per row, including trailing unbound slots
}

// Span reports how many consecutive slots the field occupies.
func (f Field) Span() int {
	if f.Type == CodeAmountPairs {
		return f.Pairs * f.PairStride
	}
	return 1
}

// Schema is an ordered field table plus the total traversal length of the
// target screen. Slots between fields, and trailing slots inside a pair row,
// are unbound: the sequencer crosses them with bare focus advances.
type Schema struct {
	Fields    []Field
	SlotCount int
}

// FieldByName returns the named field.
func (s *Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the slot invariants: unique strictly-increasing slots, no
// overlapping spans, and every span inside [0, SlotCount).
func (s *Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema has no fields")
	}
	seen := make(map[string]bool, len(s.Fields))
	next := 0
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema field with empty name at slot %d", f.Slot)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate schema field %q", f.Name)
		}
		seen[f.Name] = true
		if f.Slot < next {
			return fmt.Errorf("field %q slot %d overlaps preceding field", f.Name, f.Slot)
		}
		if f.Type == CodeAmountPairs {
			if f.Pairs < 1 || f.PairStride < 2 {
				return fmt.Errorf("field %q needs pairs>=1 and stride>=2, got %d/%d", f.Name, f.Pairs, f.PairStride)
			}
		} else if f.Pairs != 0 || f.PairStride != 0 {
			return fmt.Errorf("field %q is not a pair field but sets pair geometry", f.Name)
		}
		next = f.Slot + f.Span()
	}
	if next > s.SlotCount {
		return fmt.Errorf("fields extend to slot %d but traversal has %d slots", next-1, s.SlotCount)
	}
	return nil
}

// sortFields orders the table by starting slot. Needed after a layout
// overlay moves fields around.
func (s *Schema) sortFields() {
	sort.Slice(s.Fields, func(i, j int) bool { return s.Fields[i].Slot < s.Fields[j].Slot })
}

// Default returns the W-2 schema matching the Drake data-entry screen's tab
// order: employer identity block, wage boxes 1 through 8, box 10, box 11,
// four box 12 rows of (code, amount, year), the three box 13 checkboxes, two
// box 14 rows, and the first box 15 state row. Unbound stretches cover the
// name-continuation line, box 9, the employee identity block, the box 12
// year column, and boxes 18 through 20.
func Default() *Schema {
	return &Schema{
		SlotCount: 49,
		Fields: []Field{
			{Name: FieldEIN, Type: EIN, Slot: 0, Labels: []string{
				`(?i)employer(?:['’]s)?\s+identification\s+number\s*\(EIN\)[:\s]*(\d{2}-?\d{7})`,
				`(?i)(?:b\.?\s+)?employer(?:['’]s)?\s+(?:identification|id)\s+(?:number|no\.?)[:\s]+(\d{2}-?\d{7})`,
				`(?i)\bEIN\b[:\s]+(\d{2}-?\d{7})`,
			}},
			{Name: FieldEmployerName, Type: Text, Slot: 1, Labels: []string{
				`(?i)(?:c\.?\s+)?employer(?:['’]s)?\s+name[,\s]+address[^\r\n]*[\r\n]+([^\r\n]+)`,
			}},
			// Slot 2 is the name-continuation line, never filled.
			{Name: FieldEmployerStreet, Type: Text, Slot: 3, Labels: []string{
				`(?i)(?:c\.?\s+)?employer(?:['’]s)?\s+name(?s:.*?)[\r\n]+[^\r\n]+[\r\n]+([^\r\n]+)[\r\n]+[^\r\n,]+[,\s]+[A-Z]{2}\s+\d{5}(?:-\d{4})?`,
			}},
			{Name: FieldEmployerCity, Type: Text, Slot: 4, Labels: []string{
				`(?i)(?:c\.?\s+)?employer(?:['’]s)?\s+name(?s:.*?)[\r\n]+[^\r\n]+[\r\n]+[^\r\n]+[\r\n]+([^\r\n,]+)[,\s]+[A-Z]{2}\s+\d{5}(?:-\d{4})?`,
			}},
			{Name: FieldEmployerState, Type: Text, Slot: 5, Labels: []string{
				`(?i)(?:c\.?\s+)?employer(?:['’]s)?\s+name(?s:.*?)[\r\n]+[^\r\n]+[\r\n]+[^\r\n]+[\r\n]+[^\r\n,]+[,\s]+([A-Z]{2})\s+\d{5}(?:-\d{4})?`,
			}},
			{Name: FieldEmployerZIP, Type: ZIP, Slot: 6, Labels: []string{
				`(?i)(?:c\.?\s+)?employer(?:['’]s)?\s+name(?s:.*?)[\r\n]+[^\r\n]+[\r\n]+[^\r\n]+[\r\n]+[^\r\n,]+[,\s]+[A-Z]{2}\s+(\d{5}(?:-\d{4})?)`,
			}},
			{Name: FieldBox1Wages, Type: Currency, Slot: 7, Labels: []string{
				`(?i)wages,\s+tips,\s+other\s+comp(?:ensation|\.)?[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)(?:^|\s)1\s+wages,?\s+tips[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)wages,?\s+tips[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			{Name: FieldBox2FedTax, Type: Currency, Slot: 8, Labels: []string{
				`(?i)(?:^|\s)2\s+federal\s+income\s+tax\s+withheld[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)federal\s+income\s+tax\s+withheld[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			{Name: FieldBox3SSWages, Type: Currency, Slot: 9, Labels: []string{
				`(?i)(?:^|\s)3\s+social\s+security\s+wages[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)social\s+security\s+wages[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			{Name: FieldBox4SSTax, Type: Currency, Slot: 10, Labels: []string{
				`(?i)(?:^|\s)4\s+social\s+security\s+tax\s+withheld[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)social\s+security\s+tax\s+withheld[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			{Name: FieldBox5MedWages, Type: Currency, Slot: 11, Labels: []string{
				`(?i)(?:^|\s)5\s+medicare\s+wages(?:\s+and\s+tips)?[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)medicare\s+wages(?:\s+and\s+tips)?[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			{Name: FieldBox6MedTax, Type: Currency, Slot: 12, Labels: []string{
				`(?i)(?:^|\s)6\s+medicare\s+tax\s+withheld[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)medicare\s+tax\s+withheld[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			{Name: FieldBox7SSTips, Type: Currency, Slot: 13, Labels: []string{
				`(?i)(?:^|\s)7\s+social\s+security\s+tips[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)social\s+security\s+tips[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			{Name: FieldBox8AllocTips, Type: Currency, Slot: 14, Labels: []string{
				`(?i)(?:^|\s)8\s+allocated\s+tips[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)allocated\s+tips[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			// Slot 15 is box 9, reserved on the current form.
			{Name: FieldBox10DepCare, Type: Currency, Slot: 16, Labels: []string{
				`(?i)(?:^|\s)10\s+dependent\s+care(?:\s+benefits)?[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)dependent\s+care(?:\s+benefits)?[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			// Slots 17-22 are the employee name and address block, already
			// present on the return's first screen.
			{Name: FieldBox11Nonqual, Type: Currency, Slot: 23, Labels: []string{
				`(?i)(?:^|\s)11\s+nonqualified\s+plans?[:\s]+\$?([\d,]+(?:\.\d{2})?)`,
				`(?i)nonqualified\s+plans?[:\s\n]+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			// Each box 12 row is (code, amount, year); the year column is
			// unbound and crossed with a bare advance.
			{Name: FieldBox12, Type: CodeAmountPairs, Slot: 24, Pairs: 4, PairStride: 3, Labels: []string{
				`(?i)12[a-d]?\s+([A-Z]{1,2})\s+\$?([\d,]+(?:\.\d{2})?)`,
			}},
			{Name: FieldBox13Statutory, Type: Checkbox, Slot: 36, Labels: []string{
				`(?i)statutory\s+employee.*?[x✓]|[x✓].*?statutory\s+employee`,
			}},
			{Name: FieldBox13Retirement, Type: Checkbox, Slot: 37, Labels: []string{
				`(?i)retirement\s+plan.*?[x✓]|[x✓].*?retirement\s+plan`,
			}},
			{Name: FieldBox13SickPay, Type: Checkbox, Slot: 38, Labels: []string{
				`(?i)third.?party\s+sick.*?[x✓]|[x✓].*?sick\s+pay`,
			}},
			{Name: FieldBox14, Type: CodeAmountPairs, Slot: 39, Pairs: 2, PairStride: 2, Labels: []string{
				`(?im)14\s+other[:\s]+([^\n]+?)[ \t]+\$?([\d,]+(?:\.\d{2})?)[ \t]*$`,
			}},
			{Name: FieldBox15State, Type: Text, Slot: 43, Labels: []string{
				`(?i)\b15\s+([A-Z]{2})\s+[\w-]+\s+16\s+[\d,]+(?:\.\d{2})?\s+17\s+[\d,]+(?:\.\d{2})?`,
			}},
			{Name: FieldBox15StateID, Type: Text, Slot: 44, Labels: []string{
				`(?i)\b15\s+[A-Z]{2}\s+([\w-]+)\s+16\s+[\d,]+(?:\.\d{2})?\s+17\s+[\d,]+(?:\.\d{2})?`,
			}},
			{Name: FieldBox16Wages, Type: Currency, Slot: 45, Labels: []string{
				`(?i)\b15\s+[A-Z]{2}\s+[\w-]+\s+16\s+([\d,]+(?:\.\d{2})?)\s+17\s+[\d,]+(?:\.\d{2})?`,
			}},
			{Name: FieldBox17Tax, Type: Currency, Slot: 46, Labels: []string{
				`(?i)\b15\s+[A-Z]{2}\s+[\w-]+\s+16\s+[\d,]+(?:\.\d{2})?\s+17\s+([\d,]+(?:\.\d{2})?)`,
			}},
			// Slots 47-48 are boxes 18-20, skipped unless local tax applies.
		},
	}
}

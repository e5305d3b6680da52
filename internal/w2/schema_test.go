package w2

import (
	"regexp"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if s.SlotCount != 49 {
		t.Errorf("SlotCount = %d, want 49", s.SlotCount)
	}
}

func TestDefault_SlotOrder(t *testing.T) {
	s := Default()
	want := map[string]int{
		FieldEIN:            0,
		FieldEmployerName:   1,
		FieldEmployerStreet: 3,
		FieldEmployerZIP:    6,
		FieldBox1Wages:      7,
		FieldBox8AllocTips:  14,
		FieldBox10DepCare:   16,
		FieldBox11Nonqual:   23,
		FieldBox12:          24,
		FieldBox13Statutory: 36,
		FieldBox14:          39,
		FieldBox15State:     43,
		FieldBox17Tax:       46,
	}
	for name, slot := range want {
		f, ok := s.FieldByName(name)
		if !ok {
			t.Errorf("FieldByName(%q) missing", name)
			continue
		}
		if f.Slot != slot {
			t.Errorf("%s slot = %d, want %d", name, f.Slot, slot)
		}
	}
}

func TestDefault_PairGeometry(t *testing.T) {
	s := Default()
	b12, _ := s.FieldByName(FieldBox12)
	if b12.Pairs != 4 || b12.PairStride != 3 {
		t.Errorf("box12 geometry = %d/%d, want 4/3", b12.Pairs, b12.PairStride)
	}
	if got := b12.Span(); got != 12 {
		t.Errorf("box12 Span() = %d, want 12", got)
	}
	b14, _ := s.FieldByName(FieldBox14)
	if got := b14.Span(); got != 4 {
		t.Errorf("box14 Span() = %d, want 4", got)
	}
	// The checkbox row starts right after the last box 12 row.
	b13, _ := s.FieldByName(FieldBox13Statutory)
	if want := b12.Slot + b12.Span(); b13.Slot != want {
		t.Errorf("box13 statutory slot = %d, want %d", b13.Slot, want)
	}
}

func TestDefault_LabelsCompile(t *testing.T) {
	for _, f := range Default().Fields {
		for i, pat := range f.Labels {
			if _, err := regexp.Compile(pat); err != nil {
				t.Errorf("%s label %d does not compile: %v", f.Name, i, err)
			}
		}
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
	}{
		{
			name:   "empty",
			schema: Schema{SlotCount: 1},
		},
		{
			name: "duplicate name",
			schema: Schema{SlotCount: 4, Fields: []Field{
				{Name: "a", Type: Text, Slot: 0},
				{Name: "a", Type: Text, Slot: 1},
			}},
		},
		{
			name: "overlapping slots",
			schema: Schema{SlotCount: 10, Fields: []Field{
				{Name: "pairs", Type: CodeAmountPairs, Slot: 0, Pairs: 2, PairStride: 2},
				{Name: "b", Type: Text, Slot: 3},
			}},
		},
		{
			name: "pair geometry on scalar",
			schema: Schema{SlotCount: 4, Fields: []Field{
				{Name: "a", Type: Currency, Slot: 0, Pairs: 2, PairStride: 2},
			}},
		},
		{
			name: "bad pair stride",
			schema: Schema{SlotCount: 10, Fields: []Field{
				{Name: "pairs", Type: CodeAmountPairs, Slot: 0, Pairs: 2, PairStride: 1},
			}},
		},
		{
			name: "extends past traversal",
			schema: Schema{SlotCount: 2, Fields: []Field{
				{Name: "a", Type: Text, Slot: 0},
				{Name: "b", Type: Text, Slot: 2},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.schema.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

func TestFieldTypeString(t *testing.T) {
	if got := Currency.String(); got != "currency" {
		t.Errorf("Currency.String() = %q, want %q", got, "currency")
	}
	if got := CodeAmountPairs.String(); got != "code_amount_pairs" {
		t.Errorf("CodeAmountPairs.String() = %q", got)
	}
}

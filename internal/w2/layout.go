package w2

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed layout.schema.json
var layoutSchemaJSON []byte

// Layout is a JSON overlay that adjusts the default schema for a target
// screen whose tab order or form wording differs. Fields are matched by
// name; omitted properties keep their defaults.
type Layout struct {
	SlotCount *int          `json:"slot_count,omitempty"`
	Fields    []LayoutField `json:"fields,omitempty"`
}

// LayoutField overrides one schema entry.
type LayoutField struct {
	Name   string   `json:"name"`
	Slot   *int     `json:"slot,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// LoadLayout reads an overlay file, validates it against the embedded JSON
// Schema, and returns the default schema with the overrides applied.
func LoadLayout(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout file: %w", err)
	}

	if err := validateLayoutJSON(data); err != nil {
		return nil, fmt.Errorf("layout file %s: %w", path, err)
	}

	var layout Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("decoding layout file %s: %w", path, err)
	}

	schema, err := layout.Apply(Default())
	if err != nil {
		return nil, fmt.Errorf("layout file %s: %w", path, err)
	}
	return schema, nil
}

// Apply merges the overlay into base and revalidates. Base is modified in
// place and returned.
func (l *Layout) Apply(base *Schema) (*Schema, error) {
	if l.SlotCount != nil {
		base.SlotCount = *l.SlotCount
	}
	for _, lf := range l.Fields {
		idx := -1
		for i := range base.Fields {
			if base.Fields[i].Name == lf.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("unknown field %q", lf.Name)
		}
		if lf.Slot != nil {
			base.Fields[idx].Slot = *lf.Slot
		}
		if lf.Labels != nil {
			base.Fields[idx].Labels = lf.Labels
		}
	}
	base.sortFields()
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return base, nil
}

func validateLayoutJSON(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("layout.schema.json", bytes.NewReader(layoutSchemaJSON)); err != nil {
		return fmt.Errorf("loading layout schema: %w", err)
	}
	schema, err := compiler.Compile("layout.schema.json")
	if err != nil {
		return fmt.Errorf("compiling layout schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("does not match layout schema: %w", err)
	}
	return nil
}

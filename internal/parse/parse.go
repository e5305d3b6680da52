// Package parse matches extracted document text against the field schema's
// label patterns and normalizes the raw values into a Record ready for
// confirmation and injection.
package parse

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/draketools/w2fill/internal/w2"
)

// ErrNoFields reports that not a single schema field matched the document
// text. The document is either not a W-2 or the scan is unreadable.
var ErrNoFields = errors.New("no fields recovered")

type rule struct {
	field    w2.Field
	patterns []*regexp.Regexp
}

// Parser applies a compiled schema to document text.
type Parser struct {
	schema *w2.Schema
	rules  []rule
	logger *slog.Logger
}

// New compiles every label pattern in the schema. A pattern that does not
// compile is a configuration error, not a document error.
func New(schema *w2.Schema, logger *slog.Logger) (*Parser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Parser{schema: schema, logger: logger}
	for _, f := range schema.Fields {
		r := rule{field: f}
		for _, pat := range f.Labels {
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("field %s label %q: %w", f.Name, pat, err)
			}
			r.patterns = append(r.patterns, re)
		}
		p.rules = append(p.rules, r)
	}
	return p, nil
}

// Parse runs every field rule against text and returns the normalized
// record. Individual malformed values are flagged and the parse proceeds;
// only a document matching nothing at all is an error.
func (p *Parser) Parse(text string) (*Record, error) {
	rec := newRecord()

	for _, r := range p.rules {
		switch r.field.Type {
		case w2.Checkbox:
			p.parseCheckbox(rec, r, text)
		case w2.CodeAmountPairs:
			p.parsePairs(rec, r, text)
		default:
			p.parseScalar(rec, r, text)
		}
	}

	p.applyStateFallbacks(rec)

	if rec.FieldCount() == 0 {
		return nil, ErrNoFields
	}
	p.logger.Info("parsed document",
		"fields", rec.FieldCount(),
		"flags", len(rec.Flags),
	)
	return rec, nil
}

// parseScalar tries the field's label variants in order; the first match
// wins and its capture group is the raw value.
func (p *Parser) parseScalar(rec *Record, r rule, text string) {
	raw := ""
	for _, re := range r.patterns {
		m := re.FindStringSubmatch(text)
		if len(m) >= 2 && strings.TrimSpace(m[1]) != "" {
			raw = strings.TrimSpace(m[1])
			break
		}
	}
	if raw == "" {
		return
	}
	name := r.field.Name
	p.logger.Debug("field matched", "field", name, "raw", raw)

	switch r.field.Type {
	case w2.Currency:
		v, ok := normalizeCurrency(raw)
		if !ok {
			rec.addFlag(name, raw, "not a coercible dollar amount")
			return
		}
		rec.Values[name] = v
	case w2.EIN:
		v, ok := normalizeEIN(raw)
		if !ok {
			rec.addFlag(name, raw, "not a nine-digit EIN")
		}
		rec.Values[name] = v
	case w2.ZIP:
		v, ok := normalizeZIP(raw)
		if !ok {
			rec.addFlag(name, raw, "not a five or nine digit ZIP")
		}
		rec.Values[name] = v
	default:
		rec.Values[name] = raw
	}
}

func (p *Parser) parseCheckbox(rec *Record, r rule, text string) {
	for _, re := range r.patterns {
		if re.MatchString(text) {
			rec.Checks[r.field.Name] = true
			p.logger.Debug("checkbox matched", "field", r.field.Name)
			return
		}
	}
}

// parsePairs collects every (code, amount) match in document order. Rows
// beyond the field's capacity are flagged and excluded, never silently
// dropped.
func (p *Parser) parsePairs(rec *Record, r rule, text string) {
	if len(r.patterns) == 0 {
		return
	}
	name := r.field.Name
	var pairs []Pair
	for _, m := range r.patterns[0].FindAllStringSubmatch(text, -1) {
		if len(m) < 3 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(m[1]))
		amount, ok := normalizeCurrency(m[2])
		if !ok {
			rec.addFlag(name, m[2], "row amount not coercible")
			amount = ""
		}
		pairs = append(pairs, Pair{Code: code, Amount: amount})
	}
	if len(pairs) == 0 {
		return
	}
	if limit := r.field.Pairs; len(pairs) > limit {
		for _, extra := range pairs[limit:] {
			rec.addFlag(name, extra.Code+" "+extra.Amount,
				fmt.Sprintf("exceeds %d-row capacity, not injected", limit))
		}
		pairs = pairs[:limit]
	}
	rec.Pairs[name] = pairs
	p.logger.Debug("pair rows matched", "field", name, "rows", len(pairs))
}

// applyStateFallbacks mirrors the form's common single-state case: when the
// box 15 row was not printed in a parseable layout, the employer's state
// and the box 1 wages stand in for state and state wages.
func (p *Parser) applyStateFallbacks(rec *Record) {
	if _, ok := rec.Values[w2.FieldBox15State]; ok {
		return
	}
	if st, ok := rec.Values[w2.FieldEmployerState]; ok {
		rec.Values[w2.FieldBox15State] = st
		if wages, ok := rec.Values[w2.FieldBox1Wages]; ok {
			if _, has := rec.Values[w2.FieldBox16Wages]; !has {
				rec.Values[w2.FieldBox16Wages] = wages
			}
		}
	}
}

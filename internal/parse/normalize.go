package parse

import (
	"regexp"
	"strings"
)

var (
	currencyRe = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	einRe      = regexp.MustCompile(`^\d{9}$`)
	zipRe      = regexp.MustCompile(`^\d{5}(-?\d{4})?$`)
)

// cleanAmount strips dollar signs, thousands separators, and spaces.
func cleanAmount(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(v))
}

// normalizeCurrency coerces a cleaned amount to a fixed two-decimal string.
// ok is false when the value cannot be coerced; the raw value must then be
// left unset and flagged, never rendered as "0.00".
func normalizeCurrency(raw string) (string, bool) {
	v := cleanAmount(raw)
	if !currencyRe.MatchString(v) {
		return "", false
	}
	whole, frac, found := strings.Cut(v, ".")
	if !found {
		return whole + ".00", true
	}
	for len(frac) < 2 {
		frac += "0"
	}
	return whole + "." + frac, true
}

// normalizeEIN strips the hyphen from a nn-nnnnnnn employer identification
// number. ok is false when the digits do not form a nine-digit EIN; the raw
// value is then kept as-is and flagged.
func normalizeEIN(raw string) (string, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
	v = strings.ReplaceAll(v, " ", "")
	if !einRe.MatchString(v) {
		return raw, false
	}
	return v, true
}

// normalizeZIP validates a five or nine digit postal code. The value is
// never rewritten; ok is false when it does not conform.
func normalizeZIP(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	return v, zipRe.MatchString(v)
}

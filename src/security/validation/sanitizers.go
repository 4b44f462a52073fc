package validation

import (
	"strings"
	"unicode"
)

// SanitizeForFormulaInjection prefixes spreadsheet formula triggers with a
// quote so exported cells are read as text.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimLeft(s, " ")
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// StripUnprintable removes non-printable characters, keeping tab, newline and
// carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// CleanCategory normalizes a categorical value (client, project, brand) read
// from an import: unprintable runes dropped, inner whitespace collapsed.
func CleanCategory(s string) string {
	return strings.Join(strings.Fields(StripUnprintable(s)), " ")
}

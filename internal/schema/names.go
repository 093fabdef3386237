// Package schema reconciles the column vocabularies of different accident
// exports into one canonical schema.
package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeColumnName trims and lower-cases a raw header. The same rule is
// applied to every source.
func NormalizeColumnName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FoldKey is the lookup key used to match a column against the synonym
// table: normalized, accents removed, and runs of spaces, dashes, dots and
// underscores collapsed to one underscore. "Condição Metereológica" and
// "condicao_metereologica" share a key.
func FoldKey(s string) string {
	s = NormalizeColumnName(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		switch r {
		case ' ', '-', '.', '_', '\t':
			pending = b.Len() > 0
		default:
			if pending {
				b.WriteByte('_')
				pending = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

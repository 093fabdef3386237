// Package builtin contains the stock cleanup, coercion and de-duplication
// steps of the harmonization phase.
package builtin

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"crashdash/pkg/records"
)

const nbspace = "\u00a0"

// mojibake maps byte sequences left behind when a Latin-1 NBSP was decoded
// as UTF-8 twice.
var mojibake = strings.NewReplacer(
	"Â"+nbspace, " ",
	"Â ", " ",
	nbspace, " ",
)

// Normalize cleans every string cell in place: NBSP and its mojibake become
// spaces, runs of white space collapse to one space, edges are trimmed and
// the result is NFC-composed. Cells left blank become nil.
type Normalize struct{}

// Apply mutates the record maps in place and returns the same slice.
func (Normalize) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for k, v := range r {
			if s, ok := v.(string); ok {
				r[k] = CleanText(s)
			}
		}
	}
	return in
}

// CleanText applies Normalize's rules to one value and returns nil for blank
// results.
func CleanText(s string) any {
	if needsClean(s) {
		s = mojibake.Replace(s)
		s = strings.Join(strings.Fields(s), " ")
		s = norm.NFC.String(s)
	}
	if s == "" {
		return nil
	}
	return s
}

// needsClean reports whether s could change under CleanText. Most cells are
// already clean; skipping them avoids an allocation per cell.
func needsClean(s string) bool {
	if HasEdgeSpace(s) || strings.Contains(s, nbspace) || strings.Contains(s, "  ") {
		return true
	}
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '\t' || c == '\n' || c == '\r' || c >= 0x80 {
			return !norm.NFC.IsNormalString(s) || strings.ContainsAny(s, "\t\n\r")
		}
	}
	return false
}

// HasEdgeSpace reports whether s begins or ends with ASCII white space.
func HasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	isSpace := func(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
	return isSpace(s[0]) || isSpace(s[len(s)-1])
}

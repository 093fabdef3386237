package builtin

import (
	"slices"

	"github.com/zeebo/xxh3"

	"crashdash/internal/domain"
)

// DeDup removes records whose canonical content repeats an earlier record.
// Overlapping exports (one agency's yearly files re-published with a shared
// quarter) are the typical cause. Provenance (source and line) is not part
// of the content.
type DeDup struct {
	// Keys restricts the fingerprint to these columns. Empty means every
	// canonical column plus extras.
	Keys []string
}

// Apply keeps the first occurrence of each fingerprint, preserving input
// order, and returns the kept records with the number dropped.
func (d DeDup) Apply(in []domain.Record) ([]domain.Record, int) {
	if len(in) < 2 {
		return in, 0
	}
	seen := make(map[xxh3.Uint128]struct{}, len(in))
	out := make([]domain.Record, 0, len(in))
	for _, r := range in {
		fp := d.fingerprint(r)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, r)
	}
	return out, len(in) - len(out)
}

// fingerprint hashes column=value pairs in sorted column order. A missing
// value is written as 0x00 so it never collides with an empty string.
func (d DeDup) fingerprint(r domain.Record) xxh3.Uint128 {
	cols := d.Keys
	if len(cols) == 0 {
		row := r.Canonical()
		cols = make([]string, 0, len(row))
		for k := range row {
			cols = append(cols, k)
		}
	} else {
		cols = slices.Clone(cols)
	}
	slices.Sort(cols)

	h := xxh3.New()
	for _, c := range cols {
		h.WriteString(c)
		h.Write([]byte{0x1f})
		if s, ok := r.Text(c); ok {
			h.Write([]byte{0x01})
			h.WriteString(s)
		} else {
			h.Write([]byte{0x00})
		}
		h.Write([]byte{0x1e})
	}
	return h.Sum128()
}

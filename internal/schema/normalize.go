package schema

import (
	"fmt"
	"strings"

	"crashdash/internal/loader"
	"crashdash/pkg/records"
)

// Row is one source row keyed by schema column, with provenance.
type Row struct {
	Source string
	Line   int
	Values records.Record
}

// Table is the union of all batches under one schema. Every row carries every
// column in Columns; absent ones are nil.
type Table struct {
	// Columns is the union of schema columns in first-seen order.
	Columns []string

	// Mapped records, per source, which raw columns were renamed.
	Mapped map[string]map[string]string

	Rows []Row
}

// Warning is a non-fatal schema finding.
type Warning struct {
	Source  string
	Message string
}

func (w Warning) String() string { return w.Source + ": " + w.Message }

// Normalize maps every batch onto the synonym table and unions the results.
// Batch order and row order are preserved. A batch without columns is
// dropped with a warning. When several raw columns of one batch map to the
// same schema column, each row takes the first non-missing value in column
// order. Normalize never fails on row content.
func Normalize(batches []loader.Batch, table SynonymTable) (*Table, []Warning) {
	res := table.Resolver()
	out := &Table{Mapped: make(map[string]map[string]string)}
	seen := make(map[string]bool)
	var warns []Warning

	type plan struct {
		batch   *loader.Batch
		targets []string
		sources map[string][]string
	}
	plans := make([]plan, 0, len(batches))

	for i := range batches {
		b := &batches[i]
		if len(b.Columns) == 0 {
			warns = append(warns, Warning{Source: b.Source, Message: "no columns; batch dropped"})
			continue
		}
		p := plan{batch: b, sources: make(map[string][]string)}
		renamed := make(map[string]string)
		for _, raw := range b.Columns {
			name, matched := res.Canonical(raw)
			if matched && name != NormalizeColumnName(raw) {
				renamed[raw] = name
			}
			if _, dup := p.sources[name]; !dup {
				p.targets = append(p.targets, name)
			}
			p.sources[name] = append(p.sources[name], raw)
			if !seen[name] {
				seen[name] = true
				out.Columns = append(out.Columns, name)
			}
		}
		for _, name := range p.targets {
			if raws := p.sources[name]; len(raws) > 1 {
				warns = append(warns, Warning{
					Source:  b.Source,
					Message: fmt.Sprintf("columns %s all map to %q; first non-missing value wins", strings.Join(quoteAll(raws), ", "), name),
				})
			}
		}
		out.Mapped[b.Source] = renamed
		plans = append(plans, p)
	}

	for _, p := range plans {
		for ri, raw := range p.batch.Rows {
			vals := make(records.Record, len(out.Columns))
			for _, c := range out.Columns {
				vals[c] = nil
			}
			for _, name := range p.targets {
				for _, col := range p.sources[name] {
					if v := raw[col]; present(v) {
						vals[name] = v
						break
					}
				}
			}
			line := 0
			if ri < len(p.batch.Lines) {
				line = p.batch.Lines[ri]
			}
			out.Rows = append(out.Rows, Row{Source: p.batch.Source, Line: line, Values: vals})
		}
	}
	return out, warns
}

// present treats nil and blank text as missing.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	}
	return true
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

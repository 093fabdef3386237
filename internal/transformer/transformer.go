// Package transformer defines row-level cleanup steps applied to raw schema
// rows before type coercion.
package transformer

import "crashdash/pkg/records"

// Transformer rewrites a slice of raw rows. Implementations may mutate rows
// in place but must not drop or reorder them.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs each transformer in order, feeding the output of one into the
// next.
func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}

// Func adapts a plain function to Transformer.
type Func func([]records.Record) []records.Record

// Apply calls f.
func (f Func) Apply(in []records.Record) []records.Record { return f(in) }

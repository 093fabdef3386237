package builtin

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"crashdash/internal/transformer"
	"crashdash/pkg/records"
)

// ValueRule replaces From with To in one column.
type ValueRule struct {
	Column string
	From   string
	To     string
}

// Replace rewrites whole cell values. From matches after CleanText and
// ignoring case. A blank To leaves the cell missing.
type Replace struct {
	Rules []ValueRule
}

// Apply mutates the record maps in place and returns the same slice.
func (r Replace) Apply(in []records.Record) []records.Record {
	if len(r.Rules) == 0 {
		return in
	}
	type rule struct {
		col, from string
		to        any
	}
	rules := make([]rule, 0, len(r.Rules))
	for _, vr := range r.Rules {
		from, ok := CleanText(vr.From).(string)
		if !ok {
			continue
		}
		rules = append(rules, rule{col: vr.Column, from: from, to: CleanText(vr.To)})
	}
	for _, row := range in {
		for _, ru := range rules {
			if s, ok := row[ru.col].(string); ok && strings.EqualFold(s, ru.from) {
				row[ru.col] = ru.to
			}
		}
	}
	return in
}

// UpperCase returns a step that upper-cases the text cells of cols.
func UpperCase(cols ...string) transformer.Func {
	return func(in []records.Record) []records.Record {
		upper := cases.Upper(language.Und)
		for _, row := range in {
			for _, c := range cols {
				if s, ok := row[c].(string); ok {
					row[c] = upper.String(s)
				}
			}
		}
		return in
	}
}

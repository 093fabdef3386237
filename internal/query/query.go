// Package query filters canonical accident records by a set of optional
// predicates. Filtering is pure: it never mutates or reorders its input.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"crashdash/internal/domain"
)

// ErrInvalidPredicate is matched by every ValidationError.
var ErrInvalidPredicate = errors.New("invalid predicate")

// ValidationError reports a predicate value rejected at the boundary.
type ValidationError struct {
	Field string
	Value string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Msg)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidPredicate }

// Predicates is a set of optional constraints combined with AND. A nil
// pointer or empty string is absent.
type Predicates struct {
	Year  *int
	Month *int

	LocalityContains string
	CategoryContains string
	WeatherContains  string
	GenderContains   string
	VehicleContains  string
}

// IsEmpty reports whether no constraint is set.
func (p Predicates) IsEmpty() bool {
	return p.Year == nil && p.Month == nil && len(p.texts()) == 0
}

type textPredicate struct {
	column string
	needle string
}

func (p Predicates) texts() []textPredicate {
	var out []textPredicate
	for _, tp := range []textPredicate{
		{domain.ColLocality, p.LocalityContains},
		{domain.ColCategory, p.CategoryContains},
		{domain.ColWeather, p.WeatherContains},
		{domain.ColGender, p.GenderContains},
		{domain.ColVehicleType, p.VehicleContains},
	} {
		if tp.needle != "" {
			out = append(out, tp)
		}
	}
	return out
}

// Input carries predicate values as typed by a user, before validation.
type Input struct {
	Year     string
	Month    string
	Locality string
	Category string
	Weather  string
	Gender   string
	Vehicle  string
}

// ParseYear parses a year. Blank input means no constraint.
func ParseYear(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return nil, &ValidationError{Field: "year", Value: s, Msg: "not a number"}
	}
	if y < 1 || y > 9999 {
		return nil, &ValidationError{Field: "year", Value: s, Msg: "out of range"}
	}
	return &y, nil
}

// ParseMonth parses a month in 1..12. Blank input means no constraint.
func ParseMonth(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	m, err := strconv.Atoi(s)
	if err != nil {
		return nil, &ValidationError{Field: "month", Value: s, Msg: "not a number"}
	}
	if m < 1 || m > 12 {
		return nil, &ValidationError{Field: "month", Value: s, Msg: "must be between 1 and 12"}
	}
	return &m, nil
}

// FromInput validates in and builds Predicates. Text constraints are trimmed;
// whitespace-only text is absent.
func FromInput(in Input) (Predicates, error) {
	var p Predicates
	var err error
	if p.Year, err = ParseYear(in.Year); err != nil {
		return Predicates{}, err
	}
	if p.Month, err = ParseMonth(in.Month); err != nil {
		return Predicates{}, err
	}
	p.LocalityContains = strings.TrimSpace(in.Locality)
	p.CategoryContains = strings.TrimSpace(in.Category)
	p.WeatherContains = strings.TrimSpace(in.Weather)
	p.GenderContains = strings.TrimSpace(in.Gender)
	p.VehicleContains = strings.TrimSpace(in.Vehicle)
	return p, nil
}

// Filter returns the records satisfying every predicate in input order.
// Empty predicates return recs unchanged. A missing value never satisfies a
// constraint on its field.
func Filter(recs []domain.Record, p Predicates) []domain.Record {
	if p.IsEmpty() {
		return recs
	}

	// A Caser holds state; one per call keeps Filter re-entrant.
	fold := cases.Fold()
	texts := p.texts()
	for i := range texts {
		texts[i].needle = fold.String(norm.NFC.String(texts[i].needle))
	}

	out := make([]domain.Record, 0, len(recs))
	for _, r := range recs {
		if matches(r, p, texts, fold) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r domain.Record, p Predicates, texts []textPredicate, fold cases.Caser) bool {
	if p.Year != nil || p.Month != nil {
		if r.OccurredAt == nil {
			return false
		}
		if p.Year != nil && r.OccurredAt.Year() != *p.Year {
			return false
		}
		if p.Month != nil && int(r.OccurredAt.Month()) != *p.Month {
			return false
		}
	}
	for _, tp := range texts {
		v, ok := r.Text(tp.column)
		if !ok || !strings.Contains(fold.String(norm.NFC.String(v)), tp.needle) {
			return false
		}
	}
	return true
}

// Run filters the records of ds. An empty result is a valid answer.
func Run(ds *domain.Dataset, p Predicates) []domain.Record {
	return Filter(ds.Records(), p)
}

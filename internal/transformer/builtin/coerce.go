package builtin

import (
	"fmt"
	"strings"

	"crashdash/internal/domain"
	"crashdash/pkg/records"
)

// Skip records a value that could not be coerced. The field is left missing
// and the record is kept.
type Skip struct {
	Field string
	Value string
}

// Coerce converts schema rows into canonical records.
type Coerce struct {
	// ExtraLayouts are Go time layouts tried before the built-in ones.
	ExtraLayouts []string
}

// Record coerces one row. Columns that are not canonical become extras.
// Every unparsable or out-of-range value yields a Skip.
func (c Coerce) Record(row records.Record, source string, line int) (domain.Record, []Skip) {
	rec := domain.Record{Source: source, Line: line}
	var skips []Skip
	skip := func(field, value string) { skips = append(skips, Skip{Field: field, Value: value}) }

	text := func(col string) (string, bool) {
		v, ok := row[col]
		if !ok || v == nil {
			return "", false
		}
		s := asString(v)
		if strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	}

	// Date and time of day. A timestamp clock of exactly midnight is
	// date-only padding, not a time.
	var dateClock *domain.Clock
	if s, ok := text(domain.ColOccurredAt); ok {
		if t, hasClock, ok := ParseTimestamp(s, c.ExtraLayouts); ok {
			rec.OccurredAt = &t
			if hasClock && domain.ClockOf(t) != (domain.Clock{}) {
				cl := domain.ClockOf(t)
				dateClock = &cl
			}
		} else {
			skip(domain.ColOccurredAt, s)
		}
	}
	if s, ok := text(domain.ColTimeOfDay); ok {
		if cl, ok := ParseClock(s); ok {
			rec.TimeOfDay = &cl
		} else {
			skip(domain.ColTimeOfDay, s)
		}
	}
	switch {
	case rec.TimeOfDay != nil && rec.OccurredAt != nil:
		d := *rec.OccurredAt
		at := timeAt(d.Year(), d.Month(), d.Day(), *rec.TimeOfDay)
		rec.OccurredAt = &at
	case rec.TimeOfDay == nil && dateClock != nil:
		rec.TimeOfDay = dateClock
	}

	// Categorical text.
	for col, dst := range map[string]**string{
		domain.ColLocality:    &rec.Locality,
		domain.ColCategory:    &rec.Category,
		domain.ColWeather:     &rec.WeatherCondition,
		domain.ColGender:      &rec.Gender,
		domain.ColVehicleType: &rec.VehicleType,
	} {
		if s, ok := text(col); ok {
			*dst = &s
		}
	}

	// Coordinates.
	rec.Latitude = coordinate(text, domain.ColLatitude, 90, skip)
	rec.Longitude = coordinate(text, domain.ColLongitude, 180, skip)

	// Counts.
	for col, dst := range map[string]**int{
		domain.ColFatalities:     &rec.Fatalities,
		domain.ColMinorInjuries:  &rec.MinorInjuries,
		domain.ColSevereInjuries: &rec.SevereInjuries,
	} {
		if s, ok := text(col); ok {
			if n, ok := ParseCount(s); ok {
				*dst = &n
			} else {
				skip(col, s)
			}
		}
	}

	// Other numbers.
	for col, dst := range map[string]**float64{
		domain.ColPeopleInvolved:   &rec.PeopleInvolved,
		domain.ColVehiclesInvolved: &rec.VehiclesInvolved,
		domain.ColDistanceMarker:   &rec.DistanceMarker,
	} {
		if s, ok := text(col); ok {
			if f, ok := ParseDecimal(s); ok {
				*dst = &f
			} else {
				skip(col, s)
			}
		}
	}

	for col := range row {
		if domain.IsCanonical(col) {
			continue
		}
		if rec.Extras == nil {
			rec.Extras = make(map[string]*string)
		}
		if s, ok := text(col); ok {
			rec.Extras[col] = &s
		} else {
			rec.Extras[col] = nil
		}
	}

	sortSkips(skips)
	return rec, skips
}

func coordinate(text func(string) (string, bool), col string, limit float64, skip func(string, string)) *float64 {
	s, ok := text(col)
	if !ok {
		return nil
	}
	f, ok := ParseDecimal(s)
	if !ok || f < -limit || f > limit {
		skip(col, s)
		return nil
	}
	return &f
}

// sortSkips orders skips by canonical column order so reports are stable
// despite map iteration above.
func sortSkips(skips []Skip) {
	if len(skips) < 2 {
		return
	}
	rank := make(map[string]int, len(domain.CanonicalColumns))
	for i, c := range domain.CanonicalColumns {
		rank[c] = i
	}
	for i := 1; i < len(skips); i++ {
		for j := i; j > 0 && rank[skips[j].Field] < rank[skips[j-1].Field]; j-- {
			skips[j], skips[j-1] = skips[j-1], skips[j]
		}
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

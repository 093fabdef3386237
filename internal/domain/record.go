package domain

import (
	"fmt"
	"strconv"
	"time"

	"crashdash/pkg/records"
)

// Text layouts used by Record.Canonical.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	ClockLayout    = "15:04:05"
)

// Clock is a time of day.
type Clock struct {
	Hour, Minute, Second int
}

// String renders the clock as HH:MM:SS.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// ClockOf returns the wall-clock part of t.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Record is one accident in canonical form. A nil pointer is a missing value;
// missing is never the same as zero.
type Record struct {
	// Source and Line locate the row the record was built from.
	Source string
	Line   int

	// OccurredAt is the accident date, with the time of day when known. It
	// carries no zone: the wall clock is stored in UTC.
	OccurredAt *time.Time

	// TimeOfDay is set whenever a time of day was parsed, from a dedicated
	// column or from the timestamp itself.
	TimeOfDay *Clock

	Locality         *string
	Category         *string
	WeatherCondition *string
	Gender           *string
	VehicleType      *string

	Latitude  *float64
	Longitude *float64

	Fatalities     *int
	MinorInjuries  *int
	SevereInjuries *int

	PeopleInvolved   *float64
	VehiclesInvolved *float64
	DistanceMarker   *float64

	// Extras holds every non-canonical column of the dataset; a key is
	// present even when the value is missing.
	Extras map[string]*string
}

// HasLocation reports whether both coordinates are present.
func (r Record) HasLocation() bool { return r.Latitude != nil && r.Longitude != nil }

// Value returns the typed value of column: time.Time, Clock, string, float64
// or int. It returns nil for missing values and unknown columns.
func (r Record) Value(column string) any {
	switch column {
	case ColOccurredAt:
		if r.OccurredAt != nil {
			return *r.OccurredAt
		}
	case ColTimeOfDay:
		if r.TimeOfDay != nil {
			return *r.TimeOfDay
		}
	case ColLatitude:
		return derefFloat(r.Latitude)
	case ColLongitude:
		return derefFloat(r.Longitude)
	case ColPeopleInvolved:
		return derefFloat(r.PeopleInvolved)
	case ColVehiclesInvolved:
		return derefFloat(r.VehiclesInvolved)
	case ColDistanceMarker:
		return derefFloat(r.DistanceMarker)
	case ColFatalities:
		return derefInt(r.Fatalities)
	case ColMinorInjuries:
		return derefInt(r.MinorInjuries)
	case ColSevereInjuries:
		return derefInt(r.SevereInjuries)
	default:
		if s, ok := r.Text(column); ok {
			return s
		}
	}
	return nil
}

// Text renders column as canonical text. ok is false for missing values and
// unknown columns.
func (r Record) Text(column string) (string, bool) {
	switch column {
	case ColOccurredAt:
		if r.OccurredAt == nil {
			return "", false
		}
		if r.TimeOfDay != nil {
			return r.OccurredAt.Format(DateTimeLayout), true
		}
		return r.OccurredAt.Format(DateLayout), true
	case ColTimeOfDay:
		if r.TimeOfDay == nil {
			return "", false
		}
		return r.TimeOfDay.String(), true
	case ColLocality:
		return derefString(r.Locality)
	case ColCategory:
		return derefString(r.Category)
	case ColWeather:
		return derefString(r.WeatherCondition)
	case ColGender:
		return derefString(r.Gender)
	case ColVehicleType:
		return derefString(r.VehicleType)
	case ColLatitude, ColLongitude, ColPeopleInvolved, ColVehiclesInvolved, ColDistanceMarker:
		if f, ok := r.Value(column).(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
	case ColFatalities, ColMinorInjuries, ColSevereInjuries:
		if n, ok := r.Value(column).(int); ok {
			return strconv.Itoa(n), true
		}
	default:
		if v, ok := r.Extras[column]; ok && v != nil {
			return *v, true
		}
	}
	return "", false
}

// Canonical renders the record as a raw row keyed by column name: every
// canonical column plus every extra, nil where missing. Coercing the result
// again yields an equal record.
func (r Record) Canonical() records.Record {
	out := make(records.Record, len(CanonicalColumns)+len(r.Extras))
	for _, c := range CanonicalColumns {
		out[c] = textOrNil(r.Text(c))
	}
	for k := range r.Extras {
		out[k] = textOrNil(r.Text(k))
	}
	return out
}

func textOrNil(s string, ok bool) any {
	if !ok {
		return nil
	}
	return s
}

func derefString(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

func derefFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

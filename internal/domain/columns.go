// Package domain holds the canonical accident record, its severity tier and
// the dataset handle produced by harmonization.
package domain

// Canonical column names. Source columns are mapped onto these by the
// synonym table; anything unmapped is kept as an extra column.
const (
	ColOccurredAt       = "occurred_at"
	ColTimeOfDay        = "time_of_day"
	ColLocality         = "locality"
	ColCategory         = "category"
	ColWeather          = "weather_condition"
	ColGender           = "gender"
	ColVehicleType      = "vehicle_type"
	ColLatitude         = "latitude"
	ColLongitude        = "longitude"
	ColFatalities       = "fatalities"
	ColMinorInjuries    = "minor_injuries"
	ColSevereInjuries   = "severe_injuries"
	ColPeopleInvolved   = "people_involved"
	ColVehiclesInvolved = "vehicles_involved"
	ColDistanceMarker   = "distance_marker"
)

// ExtraWeekday is the extra column that weekday-named source columns map
// to. It is not canonical; the weekday chart reads it only for records
// without a date.
const ExtraWeekday = "weekday"

// CanonicalColumns lists the canonical columns in presentation order.
var CanonicalColumns = []string{
	ColOccurredAt,
	ColTimeOfDay,
	ColLocality,
	ColCategory,
	ColWeather,
	ColGender,
	ColVehicleType,
	ColLatitude,
	ColLongitude,
	ColFatalities,
	ColMinorInjuries,
	ColSevereInjuries,
	ColPeopleInvolved,
	ColVehiclesInvolved,
	ColDistanceMarker,
}

// TextColumns are the canonical categorical columns usable for grouping,
// menus and substring predicates.
var TextColumns = []string{ColLocality, ColCategory, ColWeather, ColGender, ColVehicleType}

var canonicalSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(CanonicalColumns))
	for _, c := range CanonicalColumns {
		m[c] = struct{}{}
	}
	return m
}()

// IsCanonical reports whether name is one of CanonicalColumns.
func IsCanonical(name string) bool {
	_, ok := canonicalSet[name]
	return ok
}

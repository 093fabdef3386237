package domain

// Severity is the map-marker tier of an accident.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// SeverityOf is high when anyone died, medium when anyone was severely
// injured, low otherwise. Missing counts do not raise the tier.
func SeverityOf(r Record) Severity {
	switch {
	case r.Fatalities != nil && *r.Fatalities > 0:
		return SeverityHigh
	case r.SevereInjuries != nil && *r.SevereInjuries > 0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

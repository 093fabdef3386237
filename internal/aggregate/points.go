package aggregate

import (
	"time"

	"crashdash/internal/domain"
)

// Point is a map marker for one located record.
type Point struct {
	Latitude       float64         `json:"latitude"`
	Longitude      float64         `json:"longitude"`
	Severity       domain.Severity `json:"severity"`
	Locality       *string         `json:"locality,omitempty"`
	Category       *string         `json:"category,omitempty"`
	OccurredAt     *time.Time      `json:"occurred_at,omitempty"`
	Fatalities     *int            `json:"fatalities,omitempty"`
	SevereInjuries *int            `json:"severe_injuries,omitempty"`
	MinorInjuries  *int            `json:"minor_injuries,omitempty"`
}

// MapPoints returns one point per record with both coordinates, in input
// order. Records with one or neither coordinate are left out.
func MapPoints(recs []domain.Record) []Point {
	out := make([]Point, 0, len(recs))
	for _, r := range recs {
		if !r.HasLocation() {
			continue
		}
		out = append(out, Point{
			Latitude:       *r.Latitude,
			Longitude:      *r.Longitude,
			Severity:       domain.SeverityOf(r),
			Locality:       r.Locality,
			Category:       r.Category,
			OccurredAt:     r.OccurredAt,
			Fatalities:     r.Fatalities,
			SevereInjuries: r.SevereInjuries,
			MinorInjuries:  r.MinorInjuries,
		})
	}
	return out
}

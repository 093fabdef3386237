package aggregate

import "crashdash/internal/domain"

// Result bundles the figures a dashboard shows for one filtered record set.
type Result struct {
	Summary       Summary  `json:"summary"`
	TopLocalities []Bucket `json:"top_localities"`
	TopCategories []Bucket `json:"top_categories"`
	TopVehicles   []Bucket `json:"top_vehicle_types"`
	Hours         []Bucket `json:"hours"`
	Weekdays      []Bucket `json:"weekdays"`
	Timeline      []Bucket `json:"timeline"`
}

// Compute builds a Result with rankings limited to n entries.
func Compute(recs []domain.Record, n int) Result {
	return Result{
		Summary:       Summarize(recs),
		TopLocalities: TopN(recs, domain.ColLocality, n),
		TopCategories: TopN(recs, domain.ColCategory, n),
		TopVehicles:   TopN(recs, domain.ColVehicleType, n),
		Hours:         HourRanking(recs, n),
		Weekdays:      ByWeekday(recs),
		Timeline:      ByDate(recs),
	}
}

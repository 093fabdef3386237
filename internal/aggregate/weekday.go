package aggregate

import (
	"strings"
	"time"

	"crashdash/internal/domain"
	"crashdash/internal/schema"
)

var weekdayNames = map[string]time.Weekday{
	"domingo": time.Sunday, "dom": time.Sunday, "sunday": time.Sunday, "sun": time.Sunday,
	"segunda": time.Monday, "seg": time.Monday, "monday": time.Monday, "mon": time.Monday,
	"terca": time.Tuesday, "ter": time.Tuesday, "tuesday": time.Tuesday, "tue": time.Tuesday,
	"quarta": time.Wednesday, "qua": time.Wednesday, "wednesday": time.Wednesday, "wed": time.Wednesday,
	"quinta": time.Thursday, "qui": time.Thursday, "thursday": time.Thursday, "thu": time.Thursday,
	"sexta": time.Friday, "sex": time.Friday, "friday": time.Friday, "fri": time.Friday,
	"sabado": time.Saturday, "sab": time.Saturday, "saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday reads a Portuguese or English weekday name, full or
// abbreviated. "Segunda-feira", "SÁBADO" and "Tue" are all accepted.
func ParseWeekday(s string) (time.Weekday, bool) {
	key := strings.TrimSuffix(schema.FoldKey(s), "_feira")
	d, ok := weekdayNames[key]
	return d, ok
}

func weekdayOf(r domain.Record) (time.Weekday, bool) {
	if r.OccurredAt != nil {
		return r.OccurredAt.Weekday(), true
	}
	if v := r.Extras[domain.ExtraWeekday]; v != nil {
		return ParseWeekday(*v)
	}
	return 0, false
}

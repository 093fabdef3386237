// Package aggregate computes dashboard figures over canonical records:
// totals, rankings, timelines and map points. Every function is pure and
// computes on demand; nothing is cached.
package aggregate

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"crashdash/internal/domain"
)

// Bucket is one labelled count.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary holds headline figures for a record set.
type Summary struct {
	Count               int     `json:"count"`
	FatalitiesTotal     int     `json:"fatalities_total"`
	MinorInjuriesTotal  int     `json:"minor_injuries_total"`
	SevereInjuriesTotal int     `json:"severe_injuries_total"`
	DailyAverage        float64 `json:"daily_average"`
	// DatedRecords counts records with a date; Days counts distinct dates.
	DatedRecords int `json:"dated_records"`
	Days         int `json:"days"`
}

// Summarize totals recs. Missing counts add nothing.
func Summarize(recs []domain.Record) Summary {
	s := Summary{Count: len(recs)}
	days := make(map[string]struct{})
	for _, r := range recs {
		s.FatalitiesTotal += value(r.Fatalities)
		s.MinorInjuriesTotal += value(r.MinorInjuries)
		s.SevereInjuriesTotal += value(r.SevereInjuries)
		if r.OccurredAt != nil {
			s.DatedRecords++
			days[dayKey(*r.OccurredAt)] = struct{}{}
		}
	}
	s.Days = len(days)
	if s.Days > 0 {
		s.DailyAverage = float64(s.DatedRecords) / float64(s.Days)
	}
	return s
}

// DailyAverage is the mean number of records per calendar date that has at
// least one record. Undated records are excluded; no dates gives 0.
func DailyAverage(recs []domain.Record) float64 {
	return Summarize(recs).DailyAverage
}

// TopN ranks the values of field by count, descending. Ties keep the order
// in which values were first encountered. Missing values are not ranked.
// n <= 0 returns every value.
func TopN(recs []domain.Record, field string, n int) []Bucket {
	return rank(count(recs, func(r domain.Record) (string, bool) {
		return r.Text(field)
	}), n)
}

// HourRanking ranks hours of day ("HH:00") by count over records with a
// parsed time of day.
func HourRanking(recs []domain.Record, n int) []Bucket {
	return rank(count(recs, func(r domain.Record) (string, bool) {
		if r.TimeOfDay == nil {
			return "", false
		}
		return fmt.Sprintf("%02d:00", r.TimeOfDay.Hour), true
	}), n)
}

// ByDate counts dated records per calendar date in ascending date order.
func ByDate(recs []domain.Record) []Bucket {
	return ascending(count(recs, func(r domain.Record) (string, bool) {
		if r.OccurredAt == nil {
			return "", false
		}
		return dayKey(*r.OccurredAt), true
	}))
}

// ByYear counts dated records per year in ascending order.
func ByYear(recs []domain.Record) []Bucket {
	return ascending(count(recs, func(r domain.Record) (string, bool) {
		if r.OccurredAt == nil {
			return "", false
		}
		return fmt.Sprintf("%04d", r.OccurredAt.Year()), true
	}))
}

// ByMonth counts dated records per year-month ("2006-01") in ascending order.
func ByMonth(recs []domain.Record) []Bucket {
	return ascending(count(recs, func(r domain.Record) (string, bool) {
		if r.OccurredAt == nil {
			return "", false
		}
		return r.OccurredAt.Format("2006-01"), true
	}))
}

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ByWeekday counts records per weekday, Monday first. All seven days are
// present, zero-filled. The day comes from the record's date, or from its
// weekday column when the date is missing.
func ByWeekday(recs []domain.Record) []Bucket {
	var counts [7]int
	for _, r := range recs {
		if d, ok := weekdayOf(r); ok {
			counts[d]++
		}
	}
	out := make([]Bucket, 0, len(weekOrder))
	for _, d := range weekOrder {
		out = append(out, Bucket{Label: d.String(), Count: counts[d]})
	}
	return out
}

// DistinctValues returns the sorted distinct non-missing values of field,
// as used for selection menus.
func DistinctValues(recs []domain.Record, field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range recs {
		v, ok := r.Text(field)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Years returns the sorted distinct years of dated records.
func Years(recs []domain.Record) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, r := range recs {
		if r.OccurredAt == nil {
			continue
		}
		y := r.OccurredAt.Year()
		if _, dup := seen[y]; !dup {
			seen[y] = struct{}{}
			out = append(out, y)
		}
	}
	slices.Sort(out)
	return out
}

// counted keeps buckets in first-encounter order.
type counted struct {
	order []string
	n     map[string]int
}

func count(recs []domain.Record, key func(domain.Record) (string, bool)) counted {
	c := counted{n: make(map[string]int)}
	for _, r := range recs {
		k, ok := key(r)
		if !ok {
			continue
		}
		if _, seen := c.n[k]; !seen {
			c.order = append(c.order, k)
		}
		c.n[k]++
	}
	return c
}

func (c counted) buckets() []Bucket {
	out := make([]Bucket, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, Bucket{Label: k, Count: c.n[k]})
	}
	return out
}

func rank(c counted, n int) []Bucket {
	out := c.buckets()
	slices.SortStableFunc(out, func(a, b Bucket) int { return cmp.Compare(b.Count, a.Count) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func ascending(c counted) []Bucket {
	out := c.buckets()
	slices.SortFunc(out, func(a, b Bucket) int { return cmp.Compare(a.Label, b.Label) })
	return out
}

func dayKey(t time.Time) string { return t.Format(domain.DateLayout) }

func value(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

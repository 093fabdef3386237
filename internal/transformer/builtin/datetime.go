package builtin

import (
	"sort"
	"strings"
	"time"

	"crashdash/internal/domain"
)

// layout is a candidate date format. pref orders readings of an ambiguous
// value: day-first (3) beats ISO (2) beats month-first (1). Layouts with a
// time of day are tried before date-only ones of the same preference.
type layout struct {
	format   string
	pref     int
	hasClock bool
}

var builtinLayouts = sortLayouts([]layout{
	// DMY
	{"2/1/2006 15:04:05", 3, true},
	{"2/1/2006 15:04", 3, true},
	{"2-1-2006 15:04:05", 3, true},
	{"2-1-2006 15:04", 3, true},
	{"2.1.2006 15:04:05", 3, true},
	{"2.1.2006 15:04", 3, true},
	{"2/1/2006", 3, false},
	{"2-1-2006", 3, false},
	{"2.1.2006", 3, false},
	{"2/1/06", 3, false},
	{"2 Jan 2006", 3, false},
	{"02-Jan-2006", 3, false},
	// ISO
	{time.RFC3339Nano, 2, true},
	{time.RFC3339, 2, true},
	{"2006-01-02T15:04:05", 2, true},
	{"2006-01-02T15:04", 2, true},
	{"2006-01-02 15:04:05", 2, true},
	{"2006-01-02 15:04", 2, true},
	{"2006/1/2 15:04:05", 2, true},
	{"2006-01-02", 2, false},
	{"2006/1/2", 2, false},
	{"20060102", 2, false},
	// MDY
	{"1/2/2006 15:04:05", 1, true},
	{"1/2/2006 15:04", 1, true},
	{"1/2/2006", 1, false},
	{"1/2/06", 1, false},
})

// sortLayouts orders by preference, then clock-bearing first, keeping
// declaration order otherwise.
func sortLayouts(ls []layout) []layout {
	sort.SliceStable(ls, func(i, j int) bool {
		if ls[i].pref != ls[j].pref {
			return ls[i].pref > ls[j].pref
		}
		return ls[i].hasClock && !ls[j].hasClock
	})
	return ls
}

// layoutHasClock guesses whether a user-supplied layout carries a time of day.
func layoutHasClock(f string) bool {
	return strings.Contains(f, "15") || strings.Contains(f, "03") || strings.Contains(f, ":04") || strings.Contains(f, "3:")
}

// ParseTimestamp parses s with extra layouts first, then the built-in ones.
// The result is the wall clock stored in UTC. hasClock reports whether the
// matching layout carried a time of day.
func ParseTimestamp(s string, extra []string) (t time.Time, hasClock bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	for _, f := range extra {
		if p, err := time.Parse(f, s); err == nil {
			return wall(p), layoutHasClock(f), true
		}
	}
	for _, l := range builtinLayouts {
		if p, err := time.Parse(l.format, s); err == nil {
			return wall(p), l.hasClock, true
		}
	}
	return time.Time{}, false, false
}

// wall drops any zone offset, keeping the local reading.
func wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

var clockSeparators = strings.NewReplacer(".", ":", "h", ":", "H", ":")

var clockLayouts = []string{"15:04:05", "15:04", "15"}

// ParseClock parses a time of day such as "14:30", "14.30", "14h30", "9h"
// or "14:30:05". A full timestamp is accepted too when it carries a time.
// Hours must be 0-23.
func ParseClock(s string) (domain.Clock, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Clock{}, false
	}
	c := strings.TrimSuffix(clockSeparators.Replace(s), ":")
	for _, f := range clockLayouts {
		if p, err := time.Parse(f, c); err == nil {
			return domain.ClockOf(p), true
		}
	}
	if t, hasClock, ok := ParseTimestamp(s, nil); ok && hasClock {
		return domain.ClockOf(t), true
	}
	return domain.Clock{}, false
}

func timeAt(year int, month time.Month, day int, c domain.Clock) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}

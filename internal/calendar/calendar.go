// Package calendar provides business-day date arithmetic. All deadline
// comparisons in the lifecycle engine are done at whole-day resolution.
package calendar

import "time"

// AddBusinessDays walks forward one calendar day at a time, skipping
// Saturdays and Sundays, until n non-weekend days have been counted.
// AddBusinessDays(d, 0) returns d unchanged.
func AddBusinessDays(date time.Time, n int) time.Time {
	for n > 0 {
		date = date.AddDate(0, 0, 1)
		if !Weekend(date) {
			n--
		}
	}
	return date
}

// Weekend reports whether the date falls on Saturday or Sunday.
func Weekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// StartOfDay truncates the time to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDayOrBefore reports whether a falls on the same calendar day as b or
// on an earlier one.
func SameDayOrBefore(a, b time.Time) bool {
	return !StartOfDay(a).After(StartOfDay(b))
}

// DayAfter reports whether a falls on a strictly later calendar day than b.
func DayAfter(a, b time.Time) bool {
	return StartOfDay(a).After(StartOfDay(b))
}

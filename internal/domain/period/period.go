// Package period derives the reporting periods stamped onto evaluation
// records: calendar quarters and a January-1-anchored week number.
package period

import (
	"fmt"
	"math"
	"time"
)

const (
	hoursPerDay = 24
	daysPerWeek = 7
)

// Quarter returns the calendar quarter label for t: months 1-3 are Q1,
// 4-6 are Q2, 7-9 are Q3, 10-12 are Q4.
func Quarter(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("Q%d", q)
}

// Week returns the 1-based week number of t under the January-1-anchored
// scheme: weeks run Monday to Sunday, and week 1 is the week containing
// January 1 of t's year. This deliberately differs from ISO-8601, which
// anchors week 1 to the first Thursday instead.
func Week(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	week1Monday := mondayOf(jan1)
	targetMonday := mondayOf(t)

	// Both anchors are local midnights; rounding the delta to whole days
	// keeps a DST hour from shifting a week boundary.
	days := int(math.Round(targetMonday.Sub(week1Monday).Hours() / hoursPerDay))
	return days/daysPerWeek + 1
}

// mondayOf returns the Monday of t's week at local midnight. Sunday counts
// as the last day of the week, so it aligns six days back.
func mondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	daysToMonday := 1 - int(day.Weekday())
	if day.Weekday() == time.Sunday {
		daysToMonday = -6
	}
	return day.AddDate(0, 0, daysToMonday)
}

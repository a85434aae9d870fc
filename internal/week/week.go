package week

import (
	"fmt"
	"strings"
	"time"
)

// CustomWeek is the result of classifying a date under a Specification: the
// owning week-year, the 1-based week number, and the first day of the week.
//
// The week start is recomputable from the other fields; it is carried so that
// Next, Prev and Contains need no further lookups. CustomWeek values from
// different specifications have no natural ordering and should not be
// compared.
type CustomWeek struct {
	year      int
	week      int
	weekStart time.Time
	spec      Specification
}

// Year returns the week-year owning this week. It can differ from the
// calendar year of some of the week's days.
func (w CustomWeek) Year() int {
	return w.year
}

// Week returns the week number within the week-year, from 1 to 52 or 53.
func (w CustomWeek) Week() int {
	return w.week
}

// Week0 returns the week number zero-based.
func (w CustomWeek) Week0() int {
	return w.week - 1
}

// WeekStart returns the first day of the week.
func (w CustomWeek) WeekStart() time.Time {
	return w.weekStart
}

// Specification returns the week rule this week was computed under.
func (w CustomWeek) Specification() Specification {
	return w.spec
}

// Next returns the following week under the same specification.
func (w CustomWeek) Next() CustomWeek {
	return w.spec.Week(w.weekStart.AddDate(0, 0, 7))
}

// Prev returns the preceding week under the same specification.
func (w CustomWeek) Prev() CustomWeek {
	return w.spec.Week(w.weekStart.AddDate(0, 0, -7))
}

// Contains reports whether the given date falls within this week.
func (w CustomWeek) Contains(date time.Time) bool {
	d := dateOnly(date)
	return !d.Before(w.weekStart) && d.Before(w.weekStart.AddDate(0, 0, 7))
}

// Format renders the week using a small set of strftime-like verbs:
//
//	%Y  week-year, zero-padded to 4 digits
//	%C  week-year divided by 100, zero-padded to 2 digits
//	%y  week-year modulo 100, zero-padded to 2 digits
//	%W  week number, zero-padded to 2 digits
//
// Any other text is copied through unchanged.
func (w CustomWeek) Format(layout string) string {
	r := strings.NewReplacer(
		"%Y", fmt.Sprintf("%04d", w.year),
		"%C", fmt.Sprintf("%02d", w.year/100),
		"%y", fmt.Sprintf("%02d", w.year%100),
		"%W", fmt.Sprintf("%02d", w.week),
	)
	return r.Replace(layout)
}

// String renders the week in the common "YYYY-Www" form.
func (w CustomWeek) String() string {
	return w.Format("%Y-W%W")
}

// Package week implements calendar week numbering under a parameterized week
// rule: which weekday starts the week, and how many days of a week must fall
// inside a year for that year to own the week. ISO 8601 (Monday, 4) is one
// instance of the family; the French theatrical-release calendar (Wednesday, 4)
// is another.
//
// All dates are time.Time values at midnight UTC. Inputs with a time-of-day or
// another location are truncated to their calendar date before use.
package week

import (
	"fmt"
	"time"
)

// Specification describes a week rule. It is an immutable value: construct it
// once with New (or a preset) and share it freely; every method reads only its
// own inputs.
type Specification struct {
	firstDay           time.Weekday
	minDaysInFirstWeek int
}

// New creates a Specification.
//
// minDaysInFirstWeek is the number of days the first week of a year must
// contain to belong to that year. It must be between 1 and 7; anything else
// fails with ErrInvalidSpecification.
func New(firstDay time.Weekday, minDaysInFirstWeek int) (Specification, error) {
	if minDaysInFirstWeek < 1 || minDaysInFirstWeek > 7 {
		return Specification{}, fmt.Errorf(
			"min days in first week %d is out of range (min: 1 - max: 7): %w",
			minDaysInFirstWeek, ErrInvalidSpecification)
	}
	return Specification{
		firstDay:           firstDay,
		minDaysInFirstWeek: minDaysInFirstWeek,
	}, nil
}

// ISO returns the ISO 8601 week rule: weeks start on Monday, and the first
// week of a year is the one containing at least 4 days of it (equivalently,
// the week containing the first Thursday).
func ISO() Specification {
	return Specification{firstDay: time.Monday, minDaysInFirstWeek: 4}
}

// FrenchTheater returns the week rule of the French theatrical-release
// calendar: weeks start on Wednesday (new movies come out on Wednesday),
// minimum 4 days in the first week.
func FrenchTheater() Specification {
	return Specification{firstDay: time.Wednesday, minDaysInFirstWeek: 4}
}

// SundayStart returns a simple Sunday-based rule where the week containing
// January 1 is always week 1.
func SundayStart() Specification {
	return Specification{firstDay: time.Sunday, minDaysInFirstWeek: 1}
}

// FirstDay returns the weekday that starts a week under this rule.
func (s Specification) FirstDay() time.Weekday {
	return s.firstDay
}

// MinDaysInFirstWeek returns the minimum number of days the first week of a
// year must contain.
func (s Specification) MinDaysInFirstWeek() int {
	return s.minDaysInFirstWeek
}

// DaysFromFirstDay returns how many days d is past the start of its week,
// from 0 (d is the first day of the week) to 6.
func (s Specification) DaysFromFirstDay(d time.Weekday) int {
	return (7 + mondayIndex(d) - mondayIndex(s.firstDay)) % 7
}

// DayNumber returns the 1-based position of d within the week, from 1 (first
// day of the week) to 7.
func (s Specification) DayNumber(d time.Weekday) int {
	return 1 + s.DaysFromFirstDay(d)
}

// FirstDayOfWeekYear returns the first day of week 1 of the given week-year.
// It can fall in December of the previous calendar year.
//
// The candidate is the first week start on or after January 1. If that start
// is late enough that the week before it still has minDaysInFirstWeek days
// inside the year, the earlier week is week 1 instead.
func (s Specification) FirstDayOfWeekYear(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	reference := time.Date(year, time.January, s.minDaysInFirstWeek, 0, 0, 0, 0, time.UTC)

	weekStart := jan1.AddDate(0, 0, 7-s.DaysFromFirstDay(jan1.Weekday()))
	if weekStart.After(reference) {
		weekStart = weekStart.AddDate(0, 0, -7)
	}
	return weekStart
}

// LastDayOfWeekYear returns the last day of the last week of the given
// week-year: the day before the next week-year starts. It can fall in January
// of the next calendar year.
func (s Specification) LastDayOfWeekYear(year int) time.Time {
	return s.FirstDayOfWeekYear(year + 1).AddDate(0, 0, -1)
}

// NumWeeks returns the number of weeks in the given week-year, 52 or 53.
// The count falls out of the span between the first and last day; no rule
// special-cases 53-week years.
func (s Specification) NumWeeks(year int) int {
	diff := daysBetween(s.FirstDayOfWeekYear(year), s.LastDayOfWeekYear(year))
	return 1 + diff/7
}

// Week classifies a date: which week-year owns the week containing it, and
// the week's number within that year. It is total over all dates, and the
// resulting (year, week) pair advances monotonically with the date.
//
// Near year boundaries the week-year can differ from the date's calendar
// year: a late-December date may already be in week 1 of the next year, and
// an early-January date may still be in the last week of the previous one.
func (s Specification) Week(date time.Time) CustomWeek {
	d := dateOnly(date)
	dateYear := d.Year()
	first := s.FirstDayOfWeekYear(dateYear)
	last := s.LastDayOfWeekYear(dateYear)

	var year, number int
	switch {
	case d.Before(first):
		// Last week of the previous week-year.
		year, number = dateYear-1, s.NumWeeks(dateYear-1)
	case d.After(last):
		// First week of the next week-year.
		year, number = dateYear+1, 1
	default:
		year, number = dateYear, 1+daysBetween(first, d)/7
	}

	weekStart := d.AddDate(0, 0, -s.DaysFromFirstDay(d.Weekday()))

	return CustomWeek{
		year:      year,
		week:      number,
		weekStart: weekStart,
		spec:      s,
	}
}

// DateOf returns the first day of the given week of the given week-year:
// the inverse of Week, up to the start of the week. It fails with
// ErrOutOfRange when weekNumber is below 1 or beyond the last week of that
// week-year.
func (s Specification) DateOf(weekYear, weekNumber int) (time.Time, error) {
	last := s.NumWeeks(weekYear)
	if weekNumber < 1 || weekNumber > last {
		return time.Time{}, fmt.Errorf(
			"week %d of week-year %d (min: 1 - max: %d): %w",
			weekNumber, weekYear, last, ErrOutOfRange)
	}
	return s.FirstDayOfWeekYear(weekYear).AddDate(0, 0, (weekNumber-1)*7), nil
}

// mondayIndex maps a time.Weekday (Sunday=0) to a Monday-based index
// (Monday=0 .. Sunday=6).
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// dateOnly truncates a time to its calendar date at midnight UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of whole days from a to b.
// Both arguments must be midnight-UTC dates.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bcourtine/customweek-api/internal/week"
)

// This tool prints the week table of a year under a chosen week rule,
// useful for eyeballing how a rule splits a year without running the API.

func main() {
	year := flag.Int("year", time.Now().Year(), "Week-year to print")
	rule := flag.String("rule", "iso", "Week rule: iso, french-theater, sunday-start")
	firstDay := flag.String("first-day", "", "Custom rule: first day of the week (monday..sunday)")
	minDays := flag.Int("min-days", 4, "Custom rule: minimum days in the first week")
	flag.Parse()

	spec, err := resolveRule(*rule, *firstDay, *minDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Week table for %d (first day %s, min days %d) ===\n\n",
		*year, spec.FirstDay(), spec.MinDaysInFirstWeek())

	numWeeks := spec.NumWeeks(*year)
	fmt.Printf("First day: %s\n", spec.FirstDayOfWeekYear(*year).Format("2006-01-02"))
	fmt.Printf("Last day:  %s\n", spec.LastDayOfWeekYear(*year).Format("2006-01-02"))
	fmt.Printf("Weeks:     %d\n\n", numWeeks)

	for n := 1; n <= numWeeks; n++ {
		start, err := spec.DateOf(*year, n)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		end := start.AddDate(0, 0, 6)
		fmt.Printf("  %s  %s .. %s\n",
			spec.Week(start).Format("%Y-W%W"),
			start.Format("2006-01-02"),
			end.Format("2006-01-02"))
	}
}

// resolveRule picks a named preset, or builds a custom rule when a first day
// is given.
func resolveRule(rule, firstDay string, minDays int) (week.Specification, error) {
	if firstDay != "" {
		day, ok := weekdays[strings.ToLower(firstDay)]
		if !ok {
			return week.Specification{}, fmt.Errorf("unknown weekday %q", firstDay)
		}
		return week.New(day, minDays)
	}

	switch rule {
	case "iso":
		return week.ISO(), nil
	case "french-theater":
		return week.FrenchTheater(), nil
	case "sunday-start":
		return week.SundayStart(), nil
	default:
		return week.Specification{}, fmt.Errorf("unknown rule %q", rule)
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

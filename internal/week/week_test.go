package week

import (
	"testing"
	"time"
)

func TestCustomWeek_Accessors(t *testing.T) {
	fr := FrenchTheater()
	w := fr.Week(ymd(2017, time.January, 3))

	if w.Year() != 2016 {
		t.Errorf("Year() = %d, want 2016", w.Year())
	}
	if w.Week() != 53 {
		t.Errorf("Week() = %d, want 53", w.Week())
	}
	if w.Week0() != 52 {
		t.Errorf("Week0() = %d, want 52", w.Week0())
	}
	if want := ymd(2016, time.December, 28); !w.WeekStart().Equal(want) {
		t.Errorf("WeekStart() = %v, want %v", w.WeekStart(), want)
	}
	if w.Specification() != fr {
		t.Errorf("Specification() = %+v, want %+v", w.Specification(), fr)
	}
}

func TestCustomWeek_NextPrev(t *testing.T) {
	fr := FrenchTheater()
	w := fr.Week(ymd(2016, time.December, 28)) // week 53 of 2016

	next := w.Next()
	if next.Year() != 2017 || next.Week() != 1 {
		t.Errorf("Next() = (%d, %d), want (2017, 1)", next.Year(), next.Week())
	}
	if want := ymd(2017, time.January, 4); !next.WeekStart().Equal(want) {
		t.Errorf("Next().WeekStart() = %v, want %v", next.WeekStart(), want)
	}

	prev := w.Prev()
	if prev.Year() != 2016 || prev.Week() != 52 {
		t.Errorf("Prev() = (%d, %d), want (2016, 52)", prev.Year(), prev.Week())
	}

	// Prev of Next comes back to the same week.
	if round := next.Prev(); round != w {
		t.Errorf("Next().Prev() = %+v, want %+v", round, w)
	}
}

func TestCustomWeek_Contains(t *testing.T) {
	w := FrenchTheater().Week(ymd(2016, time.December, 30))

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"week start", ymd(2016, time.December, 28), true},
		{"mid-week", ymd(2017, time.January, 1), true},
		{"last day", ymd(2017, time.January, 3), true},
		{"day before the week", ymd(2016, time.December, 27), false},
		{"first day of next week", ymd(2017, time.January, 4), false},
		{"time of day is ignored", time.Date(2017, time.January, 3, 23, 59, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.date); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestCustomWeek_Format(t *testing.T) {
	w := FrenchTheater().Week(ymd(2017, time.January, 3)) // 2016 week 53

	tests := []struct {
		layout string
		want   string
	}{
		{"Year %Y", "Year 2016"},
		{"Year %C%y", "Year 2016"},
		{"Week %W", "Week 53"},
		{"S%y%W", "S1653"},
		{"no verbs", "no verbs"},
	}

	for _, tt := range tests {
		if got := w.Format(tt.layout); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.layout, got, tt.want)
		}
	}

	if got, want := w.String(), "2016-W53"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCustomWeek_FormatPadsSingleDigits(t *testing.T) {
	w := ISO().Week(ymd(2017, time.January, 2)) // 2017 week 1

	if got, want := w.Format("%Y-W%W"), "2017-W01"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

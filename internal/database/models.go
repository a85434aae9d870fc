package database

import (
	"fmt"
	"regexp"
	"time"

	"github.com/bcourtine/customweek-api/internal/week"
)

// WeekSpecRecord is a named week rule stored in the registry.
//
// FirstDay and MinDays are the raw parameters; Specification() converts a
// record into a validated week.Specification for calculation. The CHECK
// constraints in the schema make the conversion infallible for rows read from
// the database, but records built from user input must still go through it.
type WeekSpecRecord struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FirstDay    int       `json:"first_day"`   // 0=Sunday through 6=Saturday
	MinDays     int       `json:"min_days"`    // 1..7
	Description *string   `json:"description"` // nullable
	Preset      bool      `json:"preset"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Specification converts the stored parameters into a week rule.
func (r *WeekSpecRecord) Specification() (week.Specification, error) {
	if r.FirstDay < 0 || r.FirstDay > 6 {
		return week.Specification{}, fmt.Errorf("first day %d is out of range (min: 0 - max: 6)", r.FirstDay)
	}
	return week.New(time.Weekday(r.FirstDay), r.MinDays)
}

// specNamePattern restricts registry names to URL-safe slugs.
var specNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// ValidSpecName reports whether a name is acceptable for the registry:
// lowercase letters, digits and dashes, up to 64 characters, not starting
// with a dash.
func ValidSpecName(name string) bool {
	return specNamePattern.MatchString(name)
}

package week

import "errors"

// ErrInvalidSpecification is returned when a week specification is constructed
// with a minimum-days value outside 1..7.
var ErrInvalidSpecification = errors.New("invalid week specification")

// ErrOutOfRange is returned when a requested week number does not exist in the
// given week-year.
var ErrOutOfRange = errors.New("week number out of range")

// IsOutOfRange checks if an error is a week-number range error.
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}

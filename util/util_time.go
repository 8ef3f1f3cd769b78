package util

import (
	"time"

	"github.com/jinzhu/now"
)

// MembershipYearBounds returns the first and last instant of the given
// membership year. Memberships run on the calendar year.
func MembershipYearBounds(year int) (time.Time, time.Time) {
	ref := now.New(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	return ref.BeginningOfYear(), ref.EndOfYear()
}

// EndOfDay - Invoice due dates are normalised to the end of the day.
func EndOfDay(t time.Time) time.Time {
	return now.New(t).EndOfDay()
}

package vaccination

import (
	"fmt"
	"time"
)

// offset is either a whole number of days or of calendar months, never both.
type offset struct {
	days   int
	months int
}

// Weeks are expressed in days so they do not drift with month lengths.
// Ranged groups ("16-18 Months", "4-6 Years") use their midpoint.
var offsets = map[AgeGroup]offset{
	AgeBirth:        {},
	Age6Weeks:       {days: 42},
	Age10Weeks:      {days: 70},
	Age14Weeks:      {days: 98},
	Age6Months:      {months: 6},
	Age9Months:      {months: 9},
	Age12Months:     {months: 12},
	Age15Months:     {months: 15},
	Age16To18Months: {months: 17},
	Age18Months:     {months: 18},
	Age4To6Years:    {months: 60},
}

// KnownAgeGroup reports whether ag has an offset rule.
func KnownAgeGroup(ag AgeGroup) bool {
	_, ok := offsets[ag]
	return ok
}

// ComputeDueDate returns the calendar date a dose in ageGroup falls due for a
// child born on birthDate. The result is midnight UTC of that date.
func ComputeDueDate(birthDate time.Time, ageGroup AgeGroup) (time.Time, error) {
	off, ok := offsets[ageGroup]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownAgeGroup, ageGroup)
	}
	d := DateOf(birthDate)
	if off.months != 0 {
		d = AddMonths(d, off.months)
	}
	return d.AddDate(0, 0, off.days), nil
}

// DateOf truncates t to its calendar date in t's own location and returns
// that date at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months to the date d, clamping the day to the
// last valid day of the target month (Jan 31 + 1 month = Feb 28/29).
// time.AddDate would roll the overflow into the following month instead.
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, d.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the signed number of calendar days from the date of
// from to the date of to. Each argument is read in its own location.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

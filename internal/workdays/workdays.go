// Package workdays implements the Monday–Friday calendar used for rollout
// scheduling. All values are date-only times at UTC midnight.
package workdays

import (
	"fmt"
	"time"
)

const (
	layoutDate  = "02/01/2006"
	layoutShort = "02 Jan"
	layoutLong  = "02 Jan 2006"
)

// InvalidDateError reports an input date that could not be parsed.
type InvalidDateError struct {
	Field string
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date for %s: %q (want DD/MM/YYYY)", e.Field, e.Value)
}

// Date truncates t to its calendar date at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current date according to now.
func Today(now func() time.Time) time.Time {
	if now == nil {
		now = time.Now
	}
	return Date(now())
}

// IsWorkingDay reports whether d falls Monday through Friday.
func IsWorkingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddWorkingDays steps one calendar day at a time in the direction of n and
// stops once |n| working days have been landed on.
func AddWorkingDays(d time.Time, n int) time.Time {
	d = Date(d)
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for n > 0 {
		d = d.AddDate(0, 0, step)
		if IsWorkingDay(d) {
			n--
		}
	}
	return d
}

// NextMonday returns the first Monday strictly after d.
func NextMonday(d time.Time) time.Time {
	d = Date(d).AddDate(0, 0, 1)
	for d.Weekday() != time.Monday || !IsWorkingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// NextWorkingDay returns d when it is a working day, otherwise the next one.
func NextWorkingDay(d time.Time) time.Time {
	d = Date(d)
	for !IsWorkingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// WorkingDaysBetween counts working days in [from, to]. It returns 0 when to
// is before from.
func WorkingDaysBetween(from, to time.Time) int {
	from, to = Date(from), Date(to)
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(d) {
			count++
		}
	}
	return count
}

// Parse reads a strict DD/MM/YYYY date. field names the input in the error.
func Parse(field, value string) (time.Time, error) {
	if len(value) != len(layoutDate) {
		return time.Time{}, &InvalidDateError{Field: field, Value: value}
	}
	t, err := time.ParseInLocation(layoutDate, value, time.UTC)
	if err != nil {
		return time.Time{}, &InvalidDateError{Field: field, Value: value}
	}
	return t, nil
}

// Format renders d as DD/MM/YYYY.
func Format(d time.Time) string {
	return d.Format(layoutDate)
}

// Short renders d as "DD MMM".
func Short(d time.Time) string {
	return d.Format(layoutShort)
}

// Long renders d as "DD MMM YYYY".
func Long(d time.Time) string {
	return d.Format(layoutLong)
}

// DaysBetween returns the whole calendar days from a to b (negative when b is
// before a).
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

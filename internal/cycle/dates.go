// Package cycle provides menstrual cycle calculations: the offset of a day
// within the current cycle, the phase for that offset, and the predicted
// next period and ovulation window.
//
// Everything in this package is a pure function of its inputs. Callers own
// persistence and pass the reference date explicitly.
package cycle

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates (ISO 8601, no time).
const DateLayout = "2006-01-02"

// DateOf returns midnight UTC of t's calendar date.
//
// The year, month and day are taken in t's own location, so a local
// 23:30 stays on the same calendar day it was recorded on.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// The result is negative when b is before a.
//
// Time of day is stripped from both ends before subtracting, so
// DaysBetween(Mon 23:59, Tue 00:01) is 1 and DST transitions never
// produce a 23- or 25-hour "day". Days are counted from Unix seconds
// rather than a Duration, which saturates after about 292 years.
func DaysBetween(a, b time.Time) int {
	return int((DateOf(b).Unix() - DateOf(a).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// AddDays returns the calendar date n days after t.
func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

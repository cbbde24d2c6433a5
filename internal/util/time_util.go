package util

import (
	"time"
)

const layout = time.DateOnly

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ToDate drops the clock part so prices from different sources land on
// the same calendar key
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(layout, s)
}

func DateLte(t1, t2 time.Time) bool {
	return t1.Before(t2) || t1.Format(layout) == t2.Format(layout)
}

// InRange is inclusive on both ends. a zero start or end is unbounded
func InRange(t, start, end time.Time) bool {
	if !start.IsZero() && !DateLte(start, t) {
		return false
	}
	if !end.IsZero() && !DateLte(t, end) {
		return false
	}
	return true
}

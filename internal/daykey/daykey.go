// Package daykey is the single calendar-day representation used for every
// date-keyed uniqueness constraint and window query: a UTC "YYYY-MM-DD"
// string. Day keys sort lexicographically in date order.
package daykey

import "time"

const Layout = "2006-01-02"

// Of returns the UTC day key of t.
func Of(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse turns a day key back into midnight UTC of that day.
func Parse(key string) (time.Time, error) {
	return time.ParseInLocation(Layout, key, time.UTC)
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return Of(a) == Of(b)
}

// AddDays shifts a day key by n calendar days.
func AddDays(key string, n int) string {
	t, err := Parse(key)
	if err != nil {
		return key
	}
	return Of(t.AddDate(0, 0, n))
}

// WeekStart returns the Monday (UTC) of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	d := StartOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// DaysBetween counts whole calendar days from a to b (b later => positive).
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// Window returns the day keys bounding the trailing n-day window ending on
// (and including) the day of ref.
func Window(ref time.Time, n int) (from, to string) {
	end := StartOfDay(ref)
	return Of(end.AddDate(0, 0, -(n - 1))), Of(end)
}

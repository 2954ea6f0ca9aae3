// Package date provides small UTC time-boundary helpers for comparing
// dates at day/month precision.
package date

import "time"

// DayBoundary returns the first and last instant of the UTC day containing t.
func DayBoundary(t time.Time) (start, end time.Time) {
	t = t.UTC()
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, -1, time.UTC)
	return start, end
}

// MonthBoundary returns the first and last instant of the UTC month
// containing t.
func MonthBoundary(t time.Time) (start, end time.Time) {
	t = t.UTC()
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, -1, time.UTC)
	return start, end
}

// WithinDays reports whether a and b are within n days of each other,
// regardless of ordering.
func WithinDays(a, b time.Time, n int) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(n)*24*time.Hour
}

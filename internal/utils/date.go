package utils

import (
	"fmt"
	"time"
)

// DayFormat is the date layout used at the API surface.
const DayFormat = "2006-01-02"

// DayUnix truncates t to midnight UTC and returns its Unix timestamp.
// All date columns store days this way so range queries stay plain
// integer comparisons.
func DayUnix(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// Today returns the current day as a midnight-UTC Unix timestamp.
func Today() int64 {
	return DayUnix(time.Now().UTC())
}

// ParseDay parses a YYYY-MM-DD string into a midnight-UTC Unix timestamp.
func ParseDay(s string) (int64, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t.Unix(), nil
}

// FormatDay renders a midnight-UTC Unix timestamp as YYYY-MM-DD.
func FormatDay(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(DayFormat)
}

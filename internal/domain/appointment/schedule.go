package appointment

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// ParseClock parses an "HH:MM" wall-clock time into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrInvalidStartTime
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	m := ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// EndTime adds duration minutes to start. The result wraps past midnight
// without carrying into the next date: 23:50 + 30 gives 00:20.
func EndTime(start string, duration int) (string, error) {
	m, err := ParseClock(start)
	if err != nil {
		return "", err
	}
	return FormatClock(m + duration), nil
}

// Overlaps compares two half-open minute ranges. Ranges are not wrapped, so
// an appointment running past midnight still blocks the late evening.
func Overlaps(aStart, aDuration, bStart, bDuration int) bool {
	return aStart < bStart+bDuration && bStart < aStart+aDuration
}

func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

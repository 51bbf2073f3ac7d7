package service

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// parseClock converts an "HH:MM" string into minutes since midnight.
func parseClock(raw string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return h*60 + m, nil
}

// formatClock renders minutes since midnight as "HH:MM".
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, raw)
}

func dateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// truncateDate normalises a timestamp to UTC midnight.
func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// inclusiveDays counts days in [start, end] including both bounds. A freeze of
// 2024-06-01..2024-06-07 spans 7 days.
func inclusiveDays(start, end time.Time) int {
	start = truncateDate(start)
	end = truncateDate(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// overlaps reports whether [aStart,aEnd) intersects [bStart,bEnd) in minutes.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

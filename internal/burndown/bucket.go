package burndown

import (
	"fmt"
	"strings"
	"time"
)

// Period is the length of one burn-down bucket.
type Period int

const (
	Weekly Period = iota
	Daily
)

// ParsePeriod accepts "week" and "day" (case-insensitive).
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "week", "weekly":
		return Weekly, nil
	case "day", "daily":
		return Daily, nil
	}
	return Weekly, fmt.Errorf("burndown: unknown period %q", s)
}

// Days is the bucket length in days.
func (p Period) Days() int {
	if p == Daily {
		return 1
	}
	return 7
}

// Start returns the first day of the bucket holding t. The calendar date is
// taken in t's own zone and returned as midnight UTC, so it can key a map.
// Weekly buckets start on Monday.
func (p Period) Start(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if p == Daily {
		return day
	}
	offset := (int(t.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// dateLayout is the wire format of bucket keys.
const dateLayout = "2006-01-02"

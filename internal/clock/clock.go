// Package clock holds the unix-timestamp helpers used by card scheduling.
// Day comparisons are made on UTC calendar days.
package clock

import (
	"math"
	"time"
)

// DaySeconds is the length of one scheduling day.
const DaySeconds int64 = 24 * 60 * 60

// MaxDays caps a scheduling step so timestamps stay far from int64 overflow.
const MaxDays = math.MaxInt32

// Unset marks a session timestamp that was never recorded.
const Unset int64 = -1

// humanLayout renders like "2024-Mar-05 (Tue) [09:15:00 PM]".
const humanLayout = "2006-Jan-02 (Mon) [03:04:05 PM]"

// Func returns the current time. Cards and sessions take one so tests can pin
// the clock.
type Func func() time.Time

// System is the wall clock.
func System() time.Time { return time.Now() }

// InDays adds whole days to a unix timestamp. days is capped at MaxDays and
// the result saturates at math.MaxInt64.
func InDays(from int64, days int) int64 {
	d := min(int64(days), MaxDays)
	if d > 0 && from > math.MaxInt64-d*DaySeconds {
		return math.MaxInt64
	}
	return from + d*DaySeconds
}

// WholeDays truncates a fractional interval to days, capped at MaxDays.
// NaN and negative intervals count as zero days.
func WholeDays(interval float64) int {
	switch {
	case !(interval > 0):
		return 0
	case interval >= MaxDays:
		return MaxDays
	}
	return int(math.Trunc(interval))
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsToday reports whether unix falls on the same UTC day as now.
func IsToday(unix int64, now time.Time) bool {
	return utcDay(time.Unix(unix, 0)).Equal(utcDay(now))
}

// IsTodayOrEarlier reports whether unix falls on now's UTC day or before it.
func IsTodayOrEarlier(unix int64, now time.Time) bool {
	return !utcDay(time.Unix(unix, 0)).After(utcDay(now))
}

// Format renders a unix timestamp in the local zone, or "N/A" when unset.
func Format(unix int64) string {
	return formatIn(unix, time.Local)
}

func formatIn(unix int64, loc *time.Location) string {
	if unix <= 0 {
		return "N/A"
	}
	return time.Unix(unix, 0).In(loc).Format(humanLayout)
}

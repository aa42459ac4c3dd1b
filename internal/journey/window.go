package journey

import "time"

// Window is a half-open time range [Start, End).
// A zero Start or End leaves that side unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// Unbounded is the window that contains every instant.
var Unbounded = Window{}

// Relative windows are capped at a century. Larger spans overflow
// time.Duration and would produce a window that starts after it ends.
const (
	MaxWindowDays  = 36500
	MaxWindowHours = MaxWindowDays * 24
)

// LastDays returns the window of the given number of days ending at now.
// days is clamped to MaxWindowDays.
func LastDays(now time.Time, days int) Window {
	return Last(now, time.Duration(min(days, MaxWindowDays))*24*time.Hour)
}

// LastHours returns the window of the given number of hours ending at now.
// hours is clamped to MaxWindowHours.
func LastHours(now time.Time, hours int) Window {
	return Last(now, time.Duration(min(hours, MaxWindowHours))*time.Hour)
}

// Last returns the window of length d ending at now.
func Last(now time.Time, d time.Duration) Window {
	end := UTC(now)
	return Window{Start: end.Add(-d), End: end}
}

// Contains reports whether t lies in [Start, End).
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// IsUnbounded reports whether neither side of the window is set.
func (w Window) IsUnbounded() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// UTC converts t to the system-wide calendar convention.
func UTC(t time.Time) time.Time {
	return t.UTC()
}

// HourOf returns the UTC hour of day (0-23).
func HourOf(t time.Time) int {
	return t.UTC().Hour()
}

// WeekdayOf returns the UTC weekday with Monday = 0 through Sunday = 6.
func WeekdayOf(t time.Time) int {
	return (int(t.UTC().Weekday()) + 6) % 7
}

package journey

import "time"

// Clock supplies the current wall time for default timestamps and for
// windows such as "the last N days".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock, normalised to UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

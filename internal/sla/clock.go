package sla

import "time"

// Clock supplies the current time. All deadline math is relative to it.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock loads the named zone, falling back to UTC when it is unknown.
func NewSystemClock(zone string) (SystemClock, error) {
	if zone == "" {
		return SystemClock{Location: time.UTC}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return SystemClock{Location: time.UTC}, err
	}
	return SystemClock{Location: loc}, nil
}

// Now implements Clock.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

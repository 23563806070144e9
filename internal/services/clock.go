package services

import "time"

// Clock supplies the current instant. Duration and availability checks only
// ever read time through it.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

package lock

import "time"

// Clock supplies time to the engine. Now is wall-clock time used for
// user-facing deadlines (lockout expiry, the background anchor).
// Monotonic is an ever-advancing reading used for duration math, so that
// manual clock or timezone changes can neither shorten nor extend a
// suspension window.
type Clock interface {
	Now() time.Time
	Monotonic() time.Duration
}

type systemClock struct {
	start time.Time
}

// SystemClock returns a Clock backed by the real time sources.
func SystemClock() Clock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) Now() time.Time {
	return time.Now()
}

// Monotonic returns the elapsed time since the clock was created.
// time.Since uses the monotonic reading carried in c.start, so the result
// is unaffected by wall-clock adjustments.
func (c *systemClock) Monotonic() time.Duration {
	return time.Since(c.start)
}

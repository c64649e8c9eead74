package lock

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a test clock whose wall and monotonic readings advance
// independently, so wall-clock manipulation can be simulated.
type fakeClock struct {
	mu   sync.Mutex
	wall time.Time
	mono time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{wall: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wall
}

func (c *fakeClock) Monotonic() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mono
}

// advance moves both clocks forward, like real elapsed time.
func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wall = c.wall.Add(d)
	c.mono += d
}

// warp adjusts only the wall clock, like a manual clock change.
func (c *fakeClock) warp(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wall = c.wall.Add(d)
}

func TestSuspendIdempotent(t *testing.T) {
	clock := newFakeClock()
	w := newSuspensionWindow(clock, func() {})

	if !w.suspend("camera") {
		t.Fatal("first suspend should open the window")
	}
	clock.advance(3 * time.Second)
	if w.suspend("camera") {
		t.Fatal("second suspend while active must be a no-op")
	}

	age, ok := w.age()
	if !ok {
		t.Fatal("expected an active suspension")
	}
	if age != 3*time.Second {
		t.Errorf("expected age 3s from the first suspend, got %v", age)
	}
}

func TestResumeWithoutSuspendTolerated(t *testing.T) {
	w := newSuspensionWindow(newFakeClock(), func() {})
	if w.resume() {
		t.Fatal("resume with no active suspension should report false")
	}
}

func TestResumeClearsToken(t *testing.T) {
	w := newSuspensionWindow(newFakeClock(), func() {})
	w.suspend("picker")

	if !w.resume() {
		t.Fatal("resume should close the active window")
	}
	if w.active() {
		t.Error("window still active after resume")
	}
	if _, ok := w.currentReason(); ok {
		t.Error("token survived resume")
	}
}

func TestSuspensionExpiresOnMonotonicClock(t *testing.T) {
	clock := newFakeClock()
	w := newSuspensionWindow(clock, func() {})
	w.suspend("camera")

	// Winding the wall clock far forward must not expire the window.
	clock.warp(2 * time.Hour)
	if !w.active() {
		t.Fatal("wall-clock warp expired the suspension")
	}

	clock.advance(MaxSuspendDuration + time.Minute)
	if w.active() {
		t.Fatal("suspension still active past the maximum duration")
	}
}

func TestAutoResumeFiresWithoutExplicitResume(t *testing.T) {
	clock := newFakeClock()
	resumed := make(chan struct{})

	w := newSuspensionWindow(clock, nil)
	w.onAutoResume = func() {
		w.resume()
		close(resumed)
	}
	w.maxDuration = 20 * time.Millisecond

	w.suspend("camera")

	select {
	case <-resumed:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-resume timer never fired")
	}
	if _, ok := w.currentReason(); ok {
		t.Error("token survived auto-resume")
	}
}

func TestResumeCancelsAutoResumeTimer(t *testing.T) {
	fired := make(chan struct{}, 1)
	w := newSuspensionWindow(newFakeClock(), nil)
	w.onAutoResume = func() { fired <- struct{}{} }
	w.maxDuration = 50 * time.Millisecond

	w.suspend("picker")
	w.resume()

	select {
	case <-fired:
		t.Fatal("auto-resume fired after an explicit resume")
	case <-time.After(150 * time.Millisecond):
	}
}

package lock

import (
	"sync"
	"time"
)

// MaxSuspendDuration bounds how long a trusted-delegate suspension can
// hold off the backgrounding-timeout logic before the safety net
// auto-resumes it.
const MaxSuspendDuration = 10 * time.Minute

// suspendGrace is the age below which a foreground event while suspended
// is treated as the delegate activity's own startup transition.
const suspendGrace = time.Second

// suspensionToken records one active suspension. Never persisted: if the
// process dies while suspended, the next construction starts unsuspended.
type suspensionToken struct {
	reason string
	start  time.Duration // monotonic reading at Suspend time
}

// suspensionWindow tracks "trusted delegate is active" periods during
// which the OS reports this app as backgrounded even though the user
// never left it (system camera, file picker). At most one token is
// active at a time.
//
// Ages are measured on the monotonic clock so wall-clock manipulation
// can neither prematurely expire nor indefinitely extend a suspension.
type suspensionWindow struct {
	mu           sync.Mutex
	clock        Clock
	maxDuration  time.Duration
	onAutoResume func()

	token *suspensionToken
	timer *time.Timer
}

func newSuspensionWindow(clock Clock, onAutoResume func()) *suspensionWindow {
	return &suspensionWindow{
		clock:        clock,
		maxDuration:  MaxSuspendDuration,
		onAutoResume: onAutoResume,
	}
}

// suspend opens a suspension window. A second call while one is active is
// a no-op and returns false, leaving the original start time in place.
func (w *suspensionWindow) suspend(reason string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.token != nil {
		return false
	}
	w.token = &suspensionToken{reason: reason, start: w.clock.Monotonic()}
	// Safety net: a delegate that never reports back must not suppress
	// the lock forever.
	w.timer = time.AfterFunc(w.maxDuration, w.onAutoResume)
	return true
}

// resume closes the window. Returns false if no suspension was active
// (a missing matching suspend is tolerated). The timer is cancelled
// before the token is cleared so a concurrently firing auto-resume can
// only ever run against a still-consistent window.
func (w *suspensionWindow) resume() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.token == nil {
		return false
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.token = nil
	return true
}

// active reports whether a suspension currently holds. A token older
// than the maximum duration no longer counts even if the safety timer
// has not fired yet.
func (w *suspensionWindow) active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.token == nil {
		return false
	}
	return w.clock.Monotonic()-w.token.start < w.maxDuration
}

// age returns how long the current suspension has been active.
func (w *suspensionWindow) age() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.token == nil {
		return 0, false
	}
	return w.clock.Monotonic() - w.token.start, true
}

// reason returns the reason of the current suspension, if any.
func (w *suspensionWindow) currentReason() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.token == nil {
		return "", false
	}
	return w.token.reason, true
}

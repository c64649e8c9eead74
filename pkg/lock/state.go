// Package lock implements the local re-authentication lock engine: the
// component that decides, independent of any server session, whether the
// application is currently accessible to the device holder.
//
// The engine guards the app behind an optional secret and/or biometric
// factor, enforces a lockout policy against brute-force guessing, and
// survives process death mid-lockout. It owns the canonical State value;
// the UI layer renders it and forwards unlock attempts.
package lock

import (
	"fmt"
	"time"
)

// State is the canonical "is the app currently accessible" value.
// Exactly one variant is active at a time; consumers switch exhaustively
// over Unlocked, Locked and LockedOut.
type State interface {
	lockState()
}

// Unlocked means the app is accessible.
type Unlocked struct{}

// Locked means a secret or biometric factor is required.
type Locked struct {
	Since time.Time
}

// LockedOut means unlock attempts are refused. Until is the wall-clock
// expiry of a temporary lockout and is zero when Permanent.
//
// Revision increases on every emission, even when the semantic fields
// are unchanged, so observers that only react to "did the value change"
// are guaranteed to fire on a re-emission.
type LockedOut struct {
	Permanent bool
	Until     time.Time
	Revision  uint64
}

func (Unlocked) lockState()  {}
func (Locked) lockState()    {}
func (LockedOut) lockState() {}

// Timeout is the configured grace period between backgrounding the app
// and requiring re-authentication on the next foreground.
type Timeout int

const (
	TimeoutImmediate Timeout = iota
	Timeout1Minute
	Timeout5Minutes
	Timeout15Minutes
	Timeout30Minutes
)

// Duration returns the grace period. TimeoutImmediate is zero, so any
// elapsed background time at all triggers a re-lock.
func (t Timeout) Duration() time.Duration {
	switch t {
	case Timeout1Minute:
		return time.Minute
	case Timeout5Minutes:
		return 5 * time.Minute
	case Timeout15Minutes:
		return 15 * time.Minute
	case Timeout30Minutes:
		return 30 * time.Minute
	default:
		return 0
	}
}

// String returns the configuration spelling of the timeout.
func (t Timeout) String() string {
	switch t {
	case TimeoutImmediate:
		return "immediate"
	case Timeout1Minute:
		return "1m"
	case Timeout5Minutes:
		return "5m"
	case Timeout15Minutes:
		return "15m"
	case Timeout30Minutes:
		return "30m"
	default:
		return "unknown"
	}
}

// ParseTimeout parses the configuration spelling of a timeout.
func ParseTimeout(s string) (Timeout, error) {
	switch s {
	case "immediate", "":
		return TimeoutImmediate, nil
	case "1m":
		return Timeout1Minute, nil
	case "5m":
		return Timeout5Minutes, nil
	case "15m":
		return Timeout15Minutes, nil
	case "30m":
		return Timeout30Minutes, nil
	default:
		return TimeoutImmediate, fmt.Errorf("lock: invalid timeout %q (want immediate, 1m, 5m, 15m or 30m)", s)
	}
}

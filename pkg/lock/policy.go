package lock

import "time"

// Lockout thresholds for the local app lock. Every FirstLockoutThreshold
// cumulative failures arm a temporary lockout; PermanentThreshold total
// failures wipe the secret and disable the feature.
const (
	FirstLockoutThreshold = 5
	PermanentThreshold    = 15

	// TemporaryLockoutDuration is how long a temporary lockout holds.
	TemporaryLockoutDuration = 30 * time.Minute
)

// FailureRecord is the persisted failure history. FailedAttempts only
// ever increases except on successful unlock, secret setup or explicit
// disable, which reset it to zero. LockoutUntil is zero when no lockout
// is armed.
type FailureRecord struct {
	FailedAttempts uint32
	LockoutUntil   time.Time
}

// InTemporaryLockout reports whether a temporary lockout is in force at
// now. An expired window is cleared as a side effect (lazy expiry); the
// attempts counter is left alone, so further failures keep accumulating
// toward the permanent threshold.
func (r *FailureRecord) InTemporaryLockout(now time.Time) bool {
	if r.LockoutUntil.IsZero() {
		return false
	}
	if now.Before(r.LockoutUntil) {
		return true
	}
	r.LockoutUntil = time.Time{}
	return false
}

// Reset clears the failure history.
func (r *FailureRecord) Reset() {
	r.FailedAttempts = 0
	r.LockoutUntil = time.Time{}
}

// RemainingAttempts returns how many more failures are allowed before the
// next temporary lockout arms.
func (r *FailureRecord) RemainingAttempts() int {
	return FirstLockoutThreshold - int(r.FailedAttempts%FirstLockoutThreshold)
}

// OutcomeKind classifies the policy decision after a failed attempt.
type OutcomeKind int

const (
	// OutcomeRemainLocked means the attempt failed but no lockout armed.
	OutcomeRemainLocked OutcomeKind = iota
	// OutcomeTemporaryLockout means a time-bounded lockout armed.
	OutcomeTemporaryLockout
	// OutcomePermanentLockout means the permanent threshold was reached;
	// the caller must wipe the secret and disable the feature.
	OutcomePermanentLockout
)

// Outcome is the lockout policy decision for one failed attempt.
type Outcome struct {
	Kind              OutcomeKind
	Until             time.Time // set for OutcomeTemporaryLockout
	RemainingAttempts int       // set for OutcomeRemainLocked
}

// RecordFailure increments the failure counter and decides the
// consequence. Pure over (record, now): the same inputs always produce
// the same outcome.
func (r *FailureRecord) RecordFailure(now time.Time) Outcome {
	r.FailedAttempts++

	switch {
	case r.FailedAttempts >= PermanentThreshold:
		return Outcome{Kind: OutcomePermanentLockout}
	case r.FailedAttempts%FirstLockoutThreshold == 0:
		r.LockoutUntil = now.Add(TemporaryLockoutDuration)
		return Outcome{Kind: OutcomeTemporaryLockout, Until: r.LockoutUntil}
	default:
		return Outcome{Kind: OutcomeRemainLocked, RemainingAttempts: r.RemainingAttempts()}
	}
}

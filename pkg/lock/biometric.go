package lock

import "github.com/scandocs/applock/pkg/audit"

// Authenticator is the external biometric collaborator: the platform
// prompt (or the CLI's device-credential stand-in). Authenticate invokes
// exactly one of the three callbacks.
type Authenticator interface {
	// CanAuthenticate reports whether the device has an enrolled
	// biometric capability.
	CanAuthenticate() bool
	// Authenticate runs the capture. onFallback is invoked when the user
	// chooses the secret path instead.
	Authenticate(onSuccess func(), onError func(message string), onFallback func())
}

// BiometricGate decides whether biometric unlock is currently permitted
// and delegates the actual capture to the Authenticator.
type BiometricGate struct {
	machine *Machine
	auth    Authenticator
}

// CanOffer reports whether the biometric path is available, enabled for
// the lock feature, and not blocked by a permanent lockout. A temporary
// lockout does not block biometric: only the secret path is rate-limited,
// and permanent lockout disables the whole feature anyway.
func (g *BiometricGate) CanOffer() bool {
	if g.auth == nil || !g.auth.CanAuthenticate() {
		return false
	}

	g.machine.mu.Lock()
	defer g.machine.mu.Unlock()

	if !g.machine.biometricEnabled {
		return false
	}
	return g.machine.record.FailedAttempts < PermanentThreshold
}

// Unlock runs the biometric capture. Success behaves exactly like a
// successful secret attempt; an error or cancel leaves the current state
// untouched, so an armed temporary lockout is never demoted to a state
// the UI could read as "attempts available".
func (g *BiometricGate) Unlock(onFallback func()) error {
	if !g.CanOffer() {
		return ErrBiometricUnavailable
	}
	if onFallback == nil {
		onFallback = func() {}
	}
	g.auth.Authenticate(g.success, g.failure, onFallback)
	return nil
}

// success completes the unlock unless the record hit the permanent
// threshold between the CanOffer check and the authenticator's callback.
func (g *BiometricGate) success() {
	m := g.machine
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record.FailedAttempts >= PermanentThreshold {
		return
	}
	m.completeUnlock(audit.OpUnlock)
}

// failure records the biometric error without touching the failure
// counters; hardware and enrollment errors are not guesses.
func (g *BiometricGate) failure(message string) {
	m := g.machine
	m.mu.Lock()
	defer m.mu.Unlock()

	m.auditLog(audit.OpBiometricError, audit.ResultError, message)
}

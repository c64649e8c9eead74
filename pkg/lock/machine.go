package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/scandocs/applock/pkg/audit"
	"github.com/scandocs/applock/pkg/secret"
	"github.com/scandocs/applock/pkg/store"
)

// Errors returned by engine operations.
var (
	ErrNoStore              = errors.New("lock: config requires a store")
	ErrBiometricUnavailable = errors.New("lock: biometric unlock is not currently offered")
)

// Config assembles the engine's collaborators. Store is required; Clock,
// Secrets and the optional Authenticator/Audit default sensibly.
type Config struct {
	Store         store.Store
	Secrets       *secret.Vault
	Clock         Clock
	Timeout       Timeout
	Authenticator Authenticator
	Audit         *audit.Logger
}

// Machine is the single source of truth for "is the app currently
// accessible". All entry points serialize on one mutex, so a lifecycle
// callback and an unlock attempt arriving on different goroutines can
// never interleave over stale counters.
type Machine struct {
	mu      sync.Mutex
	store   store.Store
	secrets *secret.Vault
	clock   Clock
	timeout Timeout
	audit   *audit.Logger

	enabled          bool
	biometricEnabled bool
	record           FailureRecord
	state            State
	revision         uint64
	backgroundAnchor time.Time // zero = unset (first run)
	skipNextTimeout  bool      // armed by Resume, consumed by OnForegrounded

	window *suspensionWindow
	gate   *BiometricGate
	subs   map[chan State]struct{}
}

// New constructs the engine. The persisted failure record and flags are
// loaded synchronously: this is the one deliberate exception to "never
// block", because computing the initial state before anyone can register
// for lifecycle events closes the window where a foreground callback
// would read a default Unlocked value and bypass the lock.
func New(cfg Config) (*Machine, error) {
	if cfg.Store == nil {
		return nil, ErrNoStore
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if cfg.Secrets == nil {
		cfg.Secrets = secret.NewVault(cfg.Store)
	}

	m := &Machine{
		store:   cfg.Store,
		secrets: cfg.Secrets,
		clock:   cfg.Clock,
		timeout: cfg.Timeout,
		audit:   cfg.Audit,
		subs:    make(map[chan State]struct{}),
	}
	m.window = newSuspensionWindow(cfg.Clock, m.autoResume)
	m.gate = &BiometricGate{machine: m, auth: cfg.Authenticator}

	if err := m.load(); err != nil {
		return nil, err
	}
	m.state = m.initialState(m.clock.Now())
	return m, nil
}

// load reads the persisted flags and failure record. Unparseable values
// are treated as absent; a store read error aborts construction since an
// engine without its failure history could be brute-forced by crashing.
func (m *Machine) load() error {
	enabled, err := m.getFlag(store.KeyLockEnabled)
	if err != nil {
		return err
	}
	m.enabled = enabled

	biometric, err := m.getFlag(store.KeyBiometricEnabled)
	if err != nil {
		return err
	}
	m.biometricEnabled = biometric

	if raw, ok, err := m.store.Get(store.KeyFailedAttempts); err != nil {
		return fmt.Errorf("lock: failed to load failure record: %w", err)
	} else if ok {
		if n, perr := strconv.ParseUint(raw, 10, 32); perr == nil {
			m.record.FailedAttempts = uint32(n)
		}
	}

	if raw, ok, err := m.store.Get(store.KeyLockoutUntil); err != nil {
		return fmt.Errorf("lock: failed to load failure record: %w", err)
	} else if ok {
		if ms, perr := strconv.ParseInt(raw, 10, 64); perr == nil && ms > 0 {
			m.record.LockoutUntil = time.UnixMilli(ms)
		}
	}
	return nil
}

// initialState reconstructs the state a dead process left behind. A
// lockout in force when the process last died must be re-established
// before the first lifecycle callback fires.
func (m *Machine) initialState(now time.Time) State {
	if !m.shouldLock() {
		return Unlocked{}
	}
	if m.record.FailedAttempts >= PermanentThreshold {
		return LockedOut{Permanent: true, Revision: m.nextRevision()}
	}
	if m.record.InTemporaryLockout(now) {
		return LockedOut{Until: m.record.LockoutUntil, Revision: m.nextRevision()}
	}
	return Locked{Since: now}
}

// shouldLock reports whether the lock feature applies: it is enabled and
// a secret is stored.
func (m *Machine) shouldLock() bool {
	return m.enabled && m.secrets.HasSecret()
}

// State returns the current lock state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a latest-value channel of lock states, primed with
// the current one. The channel conflates: a slow reader only ever sees
// the newest state, and the Revision counter on LockedOut guarantees
// that even a re-emission of unchanged semantics reads as a new value.
func (m *Machine) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	ch <- m.state
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// setState records and publishes a new state. Caller holds m.mu, which
// makes publication order identical to mutation order.
func (m *Machine) setState(s State) {
	m.state = s
	for ch := range m.subs {
		select {
		case ch <- s:
		default:
			// Displace the stale value; the buffer is ours alone under m.mu.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

func (m *Machine) nextRevision() uint64 {
	m.revision++
	return m.revision
}

// Setup hashes and stores the secret, enables the feature and resets the
// failure counters. The current state is deliberately left alone: setup
// happens from a settings context, not the lock screen.
func (m *Machine) Setup(secretValue string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.secrets.SetSecret(secretValue); err != nil {
		return err
	}
	m.putFlag(store.KeyLockEnabled, true)
	m.enabled = true
	m.resetFailures()
	m.auditLog(audit.OpSetup, audit.ResultSuccess, "")
	return nil
}

// AttemptUnlock verifies the secret and transitions to Unlocked on
// success. During a temporary or permanent lockout it returns false
// immediately with no side effect, so hammering the lock screen cannot
// push the counter toward the permanent threshold.
func (m *Machine) AttemptUnlock(guess string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if m.refuseAttempt(now) {
		return false
	}

	if m.secrets.Verify(guess) {
		m.completeUnlock(audit.OpUnlock)
		return true
	}

	m.registerFailure(now)
	return false
}

// ChangeSecret verifies old and replaces it with next. A failed
// verification counts exactly like a failed unlock attempt, since the
// old-secret check is the same oracle. Refused outright during lockout.
func (m *Machine) ChangeSecret(old, next string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if m.refuseAttempt(now) {
		return false
	}

	if !m.secrets.Verify(old) {
		m.registerFailure(now)
		return false
	}

	if err := m.secrets.SetSecret(next); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to store changed secret: %v\n", err)
		return false
	}
	m.resetFailures()
	m.auditLog(audit.OpSecretChanged, audit.ResultSuccess, "")
	return true
}

// Lock force-transitions to Locked (explicit user or app-driven
// re-lock). The failure record is untouched, so an armed lockout keeps
// refusing attempts even though the displayed state is Locked.
func (m *Machine) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setState(Locked{Since: m.clock.Now()})
	m.auditLog(audit.OpRelock, audit.ResultSuccess, "")
}

// DisableLock clears the secret, disables the feature and resets the
// counters. It does not flip the state itself; the enabled-flag observer
// performs the Unlocked transition, so exactly one code path emits it.
func (m *Machine) DisableLock() {
	m.mu.Lock()
	if err := m.secrets.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to clear secret: %v\n", err)
	}
	m.putFlag(store.KeyLockEnabled, false)
	m.enabled = false
	m.putFlag(store.KeyBiometricEnabled, false)
	m.biometricEnabled = false
	m.resetFailures()
	m.auditLog(audit.OpDisable, audit.ResultSuccess, "")
	m.mu.Unlock()

	m.enabledChanged()
}

// enabledChanged is the single observer of the feature-enabled flag.
func (m *Machine) enabledChanged() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enabled {
		return
	}
	if _, ok := m.state.(Unlocked); !ok {
		m.setState(Unlocked{})
	}
}

// SetBiometricEnabled records whether the user opted into biometric
// unlock for the lock feature.
func (m *Machine) SetBiometricEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putFlag(store.KeyBiometricEnabled, enabled)
	m.biometricEnabled = enabled
}

// Biometric returns the gate deciding whether biometric unlock is
// currently permitted.
func (m *Machine) Biometric() *BiometricGate {
	return m.gate
}

// Suspend opens a trusted-delegate suspension window (camera capture,
// file picker). Idempotent while one is active.
func (m *Machine) Suspend(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window.suspend(reason)
}

// Resume closes the suspension window. The next foreground check is
// skipped outright: anchor arithmetic cannot express "zero elapsed"
// against a zero timeout, so TimeoutImmediate would re-lock on every
// trusted-delegate round trip. The anchor is still reset so a genuine
// backgrounding after the resume starts from now.
func (m *Machine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.window.resume() {
		m.backgroundAnchor = m.clock.Now()
		m.skipNextTimeout = true
	}
}

// autoResume is the suspension safety net, fired by the window's timer.
func (m *Machine) autoResume() {
	m.Resume()
}

// Suspended returns the reason of the active suspension, if any.
func (m *Machine) Suspended() (string, bool) {
	return m.window.currentReason()
}

// OnBackgrounded records the background anchor (unless a trusted
// delegate owns the foreground) and refreshes an armed lockout.
func (m *Machine) OnBackgrounded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.window.active() {
		// A real backgrounding after a resume re-arms the timeout check.
		m.backgroundAnchor = m.clock.Now()
		m.skipNextTimeout = false
	}

	// A lockout must not be churned through Unlocked-then-relock across
	// backgrounding; re-emit it unchanged so observers still refresh.
	if st, ok := m.state.(LockedOut); ok {
		st.Revision = m.nextRevision()
		m.setState(st)
	}
}

// OnForegrounded applies the timeout policy when the app returns.
//
// With a suspension active, a token younger than the grace period is the
// delegate activity's own startup transition and is ignored; an older
// one means the process restarted (or the delegate vanished) while
// suspended, so the window is force-resumed and the timeout check is
// skipped for this call only.
func (m *Machine) OnForegrounded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()

	if age, suspended := m.window.age(); suspended {
		if age < suspendGrace {
			return
		}
		m.window.resume()
		m.backgroundAnchor = now
		return
	}

	if st, ok := m.state.(LockedOut); ok {
		if st.Permanent || m.record.InTemporaryLockout(now) {
			st.Revision = m.nextRevision()
			m.setState(st)
		} else {
			// Lockout expired while backgrounded.
			m.persistRecord()
			m.setState(Locked{Since: now})
		}
		return
	}

	if !m.shouldLock() {
		return
	}
	if _, unlocked := m.state.(Unlocked); !unlocked {
		return
	}

	if m.skipNextTimeout {
		m.skipNextTimeout = false
		return
	}
	if m.backgroundAnchor.IsZero() || now.Sub(m.backgroundAnchor) >= m.timeout.Duration() {
		m.setState(Locked{Since: now})
	}
}

// Status is a point-in-time snapshot for display surfaces.
type Status struct {
	State             State
	Enabled           bool
	BiometricEnabled  bool
	FailedAttempts    uint32
	RemainingAttempts int
	LockoutUntil      time.Time
}

// Status returns a consistent snapshot of the engine.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		State:             m.state,
		Enabled:           m.enabled,
		BiometricEnabled:  m.biometricEnabled,
		FailedAttempts:    m.record.FailedAttempts,
		RemainingAttempts: m.record.RemainingAttempts(),
		LockoutUntil:      m.record.LockoutUntil,
	}
}

// refuseAttempt reports whether an attempt must be rejected outright.
// Only the failure record is consulted, never the displayed state: an
// explicit Lock() while locked out changes the display but must not
// reopen the password path, and conversely a Setup after a permanent
// lockout resets the record and must reopen it even though the displayed
// state is still LockedOut. An expired temporary lockout is demoted to
// Locked here (lazy expiry).
func (m *Machine) refuseAttempt(now time.Time) bool {
	if m.record.FailedAttempts >= PermanentThreshold {
		return true
	}

	hadLockout := !m.record.LockoutUntil.IsZero()
	if m.record.InTemporaryLockout(now) {
		return true
	}
	if hadLockout {
		// Window just expired: clear the persisted deadline and refresh
		// the displayed state.
		m.persistRecord()
		if _, ok := m.state.(LockedOut); ok {
			m.setState(Locked{Since: now})
		}
	}
	return false
}

// completeUnlock is shared by the password and biometric success paths.
func (m *Machine) completeUnlock(op string) {
	m.resetFailures()
	m.setState(Unlocked{})
	m.auditLog(op, audit.ResultSuccess, "")
}

// registerFailure applies the lockout policy to one failed attempt.
func (m *Machine) registerFailure(now time.Time) {
	outcome := m.record.RecordFailure(now)
	m.persistRecord()

	switch outcome.Kind {
	case OutcomePermanentLockout:
		// Wipe the secret and disable the feature entirely; only a fresh
		// setup recovers from here.
		if err := m.secrets.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to wipe secret: %v\n", err)
		}
		m.putFlag(store.KeyLockEnabled, false)
		m.enabled = false
		m.putFlag(store.KeyBiometricEnabled, false)
		m.biometricEnabled = false
		m.setState(LockedOut{Permanent: true, Revision: m.nextRevision()})
		m.auditLog(audit.OpWipe, audit.ResultSuccess, "")
		m.auditLog(audit.OpPermanentLockout, audit.ResultDenied, "")
	case OutcomeTemporaryLockout:
		m.setState(LockedOut{Until: outcome.Until, Revision: m.nextRevision()})
		m.auditLog(audit.OpLockout, audit.ResultDenied, outcome.Until.Format(time.RFC3339))
	default:
		m.auditLog(audit.OpUnlockFailed, audit.ResultError,
			fmt.Sprintf("%d attempts remaining", outcome.RemainingAttempts))
	}
}

// resetFailures clears the failure history in memory and in the store.
func (m *Machine) resetFailures() {
	m.record.Reset()
	m.persistRecord()
}

// persistRecord writes failedAttempts and lockoutUntil together. Write
// failures are logged and swallowed: in-memory state stays authoritative
// for this process lifetime, and a crash right after can only ever
// under-count failures, never produce a false unlock.
func (m *Machine) persistRecord() {
	until := "0"
	if !m.record.LockoutUntil.IsZero() {
		until = strconv.FormatInt(m.record.LockoutUntil.UnixMilli(), 10)
	}
	err := m.store.PutAll(map[string]string{
		store.KeyFailedAttempts: strconv.FormatUint(uint64(m.record.FailedAttempts), 10),
		store.KeyLockoutUntil:   until,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to persist failure record: %v\n", err)
	}
}

func (m *Machine) putFlag(key string, value bool) {
	raw := "0"
	if value {
		raw = "1"
	}
	if err := m.store.Put(key, raw); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to persist %s: %v\n", key, err)
	}
}

func (m *Machine) getFlag(key string) (bool, error) {
	raw, ok, err := m.store.Get(key)
	if err != nil {
		return false, fmt.Errorf("lock: failed to load %s: %w", key, err)
	}
	return ok && raw == "1", nil
}

func (m *Machine) auditLog(op, result, detail string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Log(op, result, detail); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log failed: %v\n", err)
	}
}

// Package audit provides an HMAC-chained security event log for the lock
// engine. Each record carries an HMAC over its fields and the previous
// record's HMAC, so truncation or in-place edits of the lockout history
// are detectable.
package audit

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Operation types recorded by the lock engine.
const (
	OpSetup            = "lock.setup"
	OpUnlock           = "lock.unlock"
	OpUnlockFailed     = "lock.unlock_failed"
	OpLockout          = "lock.lockout"
	OpPermanentLockout = "lock.permanent_lockout"
	OpWipe             = "lock.wipe"
	OpDisable          = "lock.disable"
	OpRelock           = "lock.relock"
	OpSecretChanged    = "lock.secret_changed"
	OpBiometricError   = "lock.biometric_error"
)

// Result indicates the outcome of an operation.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultDenied  = "denied"
)

const (
	logFileName = "events.jsonl"
	keyFileName = "audit.key"

	fileMode = 0600
	dirMode  = 0700

	keyLength = 32
)

// Event is a single audit log record.
type Event struct {
	Version   int    `json:"v"`
	Timestamp string `json:"ts"` // RFC 3339 nanosecond precision
	Operation string `json:"op"`
	Result    string `json:"result"`
	Detail    string `json:"detail,omitempty"`

	Chain Chain `json:"chain"`
}

// Chain links an event to its predecessor for tamper detection.
type Chain struct {
	Sequence uint64 `json:"seq"`
	Prev     string `json:"prev"` // previous event's HMAC, "" for the first
	HMAC     string `json:"hmac"`
}

// Logger appends HMAC-chained events to a JSONL file.
type Logger struct {
	mu       sync.Mutex
	path     string
	hmacKey  []byte
	sequence uint64
	prev     string
}

// NewLogger opens (creating if necessary) the audit log in dir. A fresh
// random chain key is generated on first use; the chain state is
// recovered from the last record of an existing log.
func NewLogger(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("audit: failed to create log directory: %w", err)
	}

	l := &Logger{path: filepath.Join(dir, logFileName)}

	master, err := loadOrCreateKey(filepath.Join(dir, keyFileName))
	if err != nil {
		return nil, err
	}

	// Derive the chain key rather than using the file key directly, so a
	// future key rotation scheme can derive per-purpose keys.
	reader := hkdf.New(sha256.New, master, nil, []byte("applock-audit-v1"))
	l.hmacKey = make([]byte, keyLength)
	if _, err := reader.Read(l.hmacKey); err != nil {
		return nil, fmt.Errorf("audit: failed to derive chain key: %w", err)
	}

	if err := l.recoverChain(); err != nil {
		return nil, err
	}
	return l, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != keyLength {
			return nil, fmt.Errorf("audit: key file %s is corrupted", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("audit: failed to read key file: %w", err)
	}

	key = make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("audit: failed to generate key: %w", err)
	}
	if err := os.WriteFile(path, key, fileMode); err != nil {
		return nil, fmt.Errorf("audit: failed to write key file: %w", err)
	}
	return key, nil
}

// recoverChain continues the chain from the last record of an existing
// log file.
func (l *Logger) recoverChain() error {
	events, err := l.readAll()
	if err != nil {
		return err
	}
	if len(events) > 0 {
		last := events[len(events)-1]
		l.sequence = last.Chain.Sequence
		l.prev = last.Chain.HMAC
	}
	return nil
}

// Log appends one event. Safe for concurrent use.
func (l *Logger) Log(op, result, detail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	event := Event{
		Version:   1,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Operation: op,
		Result:    result,
		Detail:    detail,
	}
	event.Chain.Sequence = l.sequence + 1
	event.Chain.Prev = l.prev
	event.Chain.HMAC = l.computeHMAC(&event)

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: failed to marshal event: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, fileMode)
	if err != nil {
		return fmt.Errorf("audit: failed to open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: failed to append event: %w", err)
	}

	l.sequence = event.Chain.Sequence
	l.prev = event.Chain.HMAC
	return nil
}

func (l *Logger) computeHMAC(event *Event) string {
	mac := hmac.New(sha256.New, l.hmacKey)
	fmt.Fprintf(mac, "%d|%s|%s|%s|%s|%s",
		event.Chain.Sequence, event.Timestamp, event.Operation,
		event.Result, event.Detail, event.Chain.Prev)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyResult reports the outcome of a chain verification.
type VerifyResult struct {
	Events   int
	Problems []string
}

// Valid reports whether the whole chain verified.
func (r *VerifyResult) Valid() bool {
	return len(r.Problems) == 0
}

// Verify walks the log checking sequence numbers, chain links and HMACs.
func (l *Logger) Verify() (*VerifyResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.readAll()
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Events: len(events)}
	expectedSeq := uint64(1)
	expectedPrev := ""
	for _, event := range events {
		if event.Chain.Sequence != expectedSeq {
			result.Problems = append(result.Problems,
				fmt.Sprintf("record %d: expected sequence %d, got %d",
					expectedSeq, expectedSeq, event.Chain.Sequence))
		}
		if event.Chain.Prev != expectedPrev {
			result.Problems = append(result.Problems,
				fmt.Sprintf("record %d: chain link broken", event.Chain.Sequence))
		}
		if l.computeHMAC(&event) != event.Chain.HMAC {
			result.Problems = append(result.Problems,
				fmt.Sprintf("record %d: HMAC mismatch", event.Chain.Sequence))
		}
		expectedSeq = event.Chain.Sequence + 1
		expectedPrev = event.Chain.HMAC
	}
	return result, nil
}

// List returns up to limit most recent events (0 = all).
func (l *Logger) List(limit int) ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// Path returns the log file path.
func (l *Logger) Path() string {
	return l.path
}

func (l *Logger) readAll() ([]Event, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("audit: failed to open log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("audit: corrupted log record: %w", err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: failed to read log: %w", err)
	}
	return events, nil
}

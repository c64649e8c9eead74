// Package store provides the durable key-value store backing the lock
// engine. The engine persists a small fixed set of named values that must
// survive process restarts: the secret hash, the feature flags and the
// failure counters. Two file-backed implementations are provided (SQLite
// and bbolt) plus an in-memory store for tests.
package store

import "errors"

// Keys persisted by the lock engine.
const (
	KeySecretHash       = "secret_hash"
	KeyLockEnabled      = "lock_enabled"
	KeyBiometricEnabled = "biometric_enabled"
	KeyFailedAttempts   = "failed_attempts"
	KeyLockoutUntil     = "lockout_until"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: store is closed")

// Store is a durable string key-value store.
//
// Get returns ok=false for a missing key. PutAll writes several values in
// one operation; failed_attempts and lockout_until are always written
// together so a crash cannot leave the counter and the deadline out of
// step with each other.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Put(key, value string) error
	PutAll(values map[string]string) error
	Delete(key string) error
	Close() error
}

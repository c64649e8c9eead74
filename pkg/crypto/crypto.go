// Package crypto provides cryptographic primitives for applock.
//
// This package implements Argon2id secret hashing following OWASP
// recommendations. The lock engine never stores a reusable key, only a
// salted hash used to verify the re-authentication secret.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters following OWASP recommendations.
const (
	// Argon2Memory is the memory cost in KiB (64MB).
	Argon2Memory = 64 * 1024

	// Argon2Time is the number of iterations.
	Argon2Time = 3

	// Argon2Threads is the degree of parallelism.
	Argon2Threads = 4

	// HashLength is the length of derived hashes in bytes (256 bits).
	HashLength = 32

	// SaltLength is the length of hash salts in bytes (128 bits).
	SaltLength = 16
)

// HashSecret derives a 256-bit Argon2id hash of secret under salt.
//
// The deliberately expensive parameters (64 MB memory, 3 iterations,
// 4 threads) bound the rate at which an offline attacker can test
// guesses against a stolen hash.
func HashSecret(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, Argon2Time, Argon2Memory, Argon2Threads, HashLength)
}

// NewSalt returns SaltLength bytes of cryptographically secure random data.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate salt: %w", err)
	}
	return salt, nil
}

// ConstantTimeEqual compares two byte slices in constant time.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation.
// This is critical for securely destroying sensitive data like the
// plaintext secret held during an unlock attempt.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// runtime.KeepAlive ensures the write operations are not optimized away
	// by the compiler since b is still "in use" after the loop.
	runtime.KeepAlive(b)
}

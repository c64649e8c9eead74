package crypto

import (
	"bytes"
	"testing"
)

func TestHashSecretDeterministic(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt failed: %v", err)
	}

	a := HashSecret([]byte("secret-pin"), salt)
	b := HashSecret([]byte("secret-pin"), salt)
	if !bytes.Equal(a, b) {
		t.Error("same secret and salt produced different hashes")
	}
	if len(a) != HashLength {
		t.Errorf("expected %d-byte hash, got %d", HashLength, len(a))
	}
}

func TestHashSecretSaltChangesHash(t *testing.T) {
	salt1, _ := NewSalt()
	salt2, _ := NewSalt()
	if bytes.Equal(salt1, salt2) {
		t.Fatal("two fresh salts are identical")
	}

	a := HashSecret([]byte("secret-pin"), salt1)
	b := HashSecret([]byte("secret-pin"), salt2)
	if bytes.Equal(a, b) {
		t.Error("different salts produced the same hash")
	}
}

func TestNewSaltLength(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt failed: %v", err)
	}
	if len(salt) != SaltLength {
		t.Errorf("expected %d-byte salt, got %d", SaltLength, len(salt))
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !ConstantTimeEqual([]byte("abc"), []byte("abc")) {
		t.Error("equal slices compared unequal")
	}
	if ConstantTimeEqual([]byte("abc"), []byte("abd")) {
		t.Error("unequal slices compared equal")
	}
	if ConstantTimeEqual([]byte("abc"), []byte("abcd")) {
		t.Error("slices of different length compared equal")
	}
}

func TestSecureWipe(t *testing.T) {
	b := []byte("sensitive")
	SecureWipe(b)
	for i, c := range b {
		if c != 0 {
			t.Fatalf("byte %d not wiped", i)
		}
	}
}

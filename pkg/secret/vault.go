// Package secret stores and verifies the re-authentication secret as a
// salted Argon2id hash. The plaintext secret is never persisted; the
// vault only ever answers "does this guess match".
package secret

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/scandocs/applock/pkg/crypto"
	"github.com/scandocs/applock/pkg/store"
)

// hashScheme identifies the encoded hash format. Stored values look like
// "argon2id$<salt hex>$<hash hex>".
const hashScheme = "argon2id"

// Vault manages the stored secret hash.
type Vault struct {
	store store.Store
}

// NewVault returns a Vault persisting through st.
func NewVault(st store.Store) *Vault {
	return &Vault{store: st}
}

// SetSecret hashes secret under a fresh random salt and persists the
// encoded hash, replacing any previous one.
func (v *Vault) SetSecret(secret string) error {
	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}

	raw := []byte(secret)
	hash := crypto.HashSecret(raw, salt)
	crypto.SecureWipe(raw)

	encoded := fmt.Sprintf("%s$%s$%s", hashScheme, hex.EncodeToString(salt), hex.EncodeToString(hash))
	if err := v.store.Put(store.KeySecretHash, encoded); err != nil {
		return fmt.Errorf("secret: failed to store hash: %w", err)
	}
	return nil
}

// Verify reports whether guess matches the stored secret.
//
// A missing, truncated or otherwise malformed stored hash verifies false
// exactly like a wrong guess. Distinguishing the two would tell a
// brute-force caller whether a secret is configured at all.
func (v *Vault) Verify(guess string) bool {
	encoded, ok, err := v.store.Get(store.KeySecretHash)
	if err != nil || !ok {
		return false
	}

	salt, want, ok := decode(encoded)
	if !ok {
		return false
	}

	raw := []byte(guess)
	got := crypto.HashSecret(raw, salt)
	crypto.SecureWipe(raw)

	return crypto.ConstantTimeEqual(got, want)
}

// Clear removes the stored hash.
func (v *Vault) Clear() error {
	if err := v.store.Delete(store.KeySecretHash); err != nil {
		return fmt.Errorf("secret: failed to clear hash: %w", err)
	}
	return nil
}

// HasSecret reports whether a well-formed hash is stored.
func (v *Vault) HasSecret() bool {
	encoded, ok, err := v.store.Get(store.KeySecretHash)
	if err != nil || !ok {
		return false
	}
	_, _, ok = decode(encoded)
	return ok
}

func decode(encoded string) (salt, hash []byte, ok bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != hashScheme {
		return nil, nil, false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) != crypto.SaltLength {
		return nil, nil, false
	}
	hash, err = hex.DecodeString(parts[2])
	if err != nil || len(hash) != crypto.HashLength {
		return nil, nil, false
	}
	return salt, hash, true
}
